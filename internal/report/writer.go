package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

const filePrefix = "classification_results_"

type encoder func(io.Writer, *models.Report) error

var encoders = map[string]encoder{
	"json": EncodeJSON,
	"csv":  EncodeCSV,
	"xlsx": EncodeXLSX,
}

// Writer writes a finished report once, in every configured format
type Writer struct {
	dir     string
	formats []string
	logger  *zap.Logger
}

func NewWriter(dir string, formats []string, logger *zap.Logger) (*Writer, error) {
	if len(formats) == 0 {
		formats = []string{"json", "csv"}
	}
	for _, format := range formats {
		if _, ok := encoders[format]; !ok {
			return nil, fmt.Errorf("unsupported report format: %s", format)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{dir: dir, formats: formats, logger: logger}, nil
}

// FileName returns classification_results_YYYYMMDD_HHMMSS.<format>
func FileName(at time.Time, format string) string {
	return filePrefix + at.Format("20060102_150405") + "." + format
}

// Write creates the output directory if needed and returns the written paths
func (w *Writer) Write(report *models.Report, at time.Time) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}

	paths := make([]string, 0, len(w.formats))
	for _, format := range w.formats {
		path := filepath.Join(w.dir, FileName(at, format))
		if err := writeFile(path, report, encoders[format]); err != nil {
			return paths, err
		}
		w.logger.Info("Report written", zap.String("format", format), zap.String("path", path))
		paths = append(paths, path)
	}
	return paths, nil
}

// writeFile writes to a temp file in the same directory and renames it into place
func writeFile(path string, report *models.Report, encode encoder) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	buf := bufio.NewWriter(tmp)
	if err := encode(buf, report); err != nil {
		tmp.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close report %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}

// ReadJSON loads a report previously written by EncodeJSON
func ReadJSON(path string) (*models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &report, nil
}
