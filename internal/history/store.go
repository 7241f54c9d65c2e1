package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

var ErrNotFound = errors.New("no analysis recorded for folder")

// Store keeps one row per classified folder per run
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// Summary is the payload of the history statistics endpoint
type Summary struct {
	Total      int64                  `json:"total"`
	ByStatus   map[string]int64       `json:"by_status"`
	ByCategory []models.CategoryCount `json:"by_category"`
}

// Open connects to sqlite or postgres and migrates the schema
func Open(driver, dsn string, logger *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	store, err := NewStore(db, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func NewStore(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&models.AnalysisRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Record stores one folder result of a run
func (s *Store) Record(ctx context.Context, runID, provider string, result models.ClassificationResult) error {
	impression, err := encodeTags(result.ImpressionTags)
	if err != nil {
		return err
	}
	objects, err := encodeTags(result.ObjectTags)
	if err != nil {
		return err
	}

	record := &models.AnalysisRecord{
		RunID:          runID,
		FolderName:     result.Folder,
		BroadCategory:  result.Category,
		SpecificItem:   result.Subcategory,
		ImpressionTags: impression,
		ObjectTags:     objects,
		Reason:         result.Reason,
		Purpose:        result.Purpose,
		Status:         string(result.Status),
		ImageCount:     result.ImagesSent,
		Provider:       provider,
		AnalyzedAt:     s.now(),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to store analysis for %s: %w", result.Folder, err)
	}

	s.logger.Debug("Stored analysis",
		zap.String("run_id", runID),
		zap.String("folder", result.Folder),
		zap.String("status", string(result.Status)))
	return nil
}

// CategoryStats counts classified folders per broad category, most frequent first
func (s *Store) CategoryStats(ctx context.Context) ([]models.CategoryCount, error) {
	var counts []models.CategoryCount
	err := s.db.WithContext(ctx).
		Model(&models.AnalysisRecord{}).
		Select("broad_category, COUNT(*) AS count").
		Where("status = ?", string(models.StatusClassified)).
		Group("broad_category").
		Order("count DESC, broad_category ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	return counts, nil
}

func (s *Store) Summary(ctx context.Context) (*Summary, error) {
	summary := &Summary{ByStatus: make(map[string]int64)}

	if err := s.db.WithContext(ctx).Model(&models.AnalysisRecord{}).Count(&summary.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}

	var rows []struct {
		Status string
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.AnalysisRecord{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}
	for _, row := range rows {
		summary.ByStatus[row.Status] = row.Count
	}

	categories, err := s.CategoryStats(ctx)
	if err != nil {
		return nil, err
	}
	summary.ByCategory = categories
	return summary, nil
}

// Recent returns the latest analyses, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	var records []models.AnalysisRecord

	query := s.db.WithContext(ctx).Order("analyzed_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent analyses: %w", err)
	}
	return records, nil
}

// LatestByFolder returns the most recent analysis of a folder
func (s *Store) LatestByFolder(ctx context.Context, folder string) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	err := s.db.WithContext(ctx).
		Where("folder_name = ?", folder).
		Order("analyzed_at DESC, id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, folder)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis for %s: %w", folder, err)
	}
	return &record, nil
}

// Ping checks the database connection for readiness probes
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(data), nil
}

// DecodeTags reverses the JSON encoding used for tag columns
func DecodeTags(raw string) []string {
	var tags []string
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}
