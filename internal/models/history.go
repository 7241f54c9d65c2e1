package models

import (
	"time"

	"gorm.io/gorm"
)

// AnalysisRecord stores one classified folder per run for statistics
type AnalysisRecord struct {
	gorm.Model
	RunID          string    `gorm:"index;not null" json:"run_id"`
	FolderName     string    `gorm:"index;not null" json:"folder_name"`
	BroadCategory  string    `gorm:"index;not null" json:"broad_category"`
	SpecificItem   string    `json:"specific_item"`
	ImpressionTags string    `gorm:"type:text" json:"impression_tags"` // JSON array of slugs
	ObjectTags     string    `gorm:"type:text" json:"object_tags"`     // JSON array of slugs
	Reason         string    `gorm:"type:text" json:"reason"`
	Purpose        string    `gorm:"type:text" json:"purpose"`
	Status         string    `gorm:"not null" json:"status"`
	ImageCount     int       `gorm:"not null" json:"image_count"`
	Provider       string    `json:"provider"`
	AnalyzedAt     time.Time `gorm:"index;not null" json:"analyzed_at"`
}

// CategoryCount is one row of the per-category statistics
type CategoryCount struct {
	BroadCategory string `json:"broad_category"`
	Count         int64  `json:"count"`
}
