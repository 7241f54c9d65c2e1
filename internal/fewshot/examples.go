package fewshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/RIDLEYsan/studio-classification-app/internal/imageset"
	"github.com/RIDLEYsan/studio-classification-app/internal/models"
	"github.com/RIDLEYsan/studio-classification-app/internal/taxonomy"
)

const (
	ManifestFile = "examples.yaml"

	// examples shown per category in one request
	DefaultPerCategory = 1
)

// manifest entry describing one labelled example image
type Entry struct {
	File        string `yaml:"file"`
	Category    string `yaml:"category"`
	Subcategory string `yaml:"subcategory"`
	Note        string `yaml:"note"`
}

type manifest struct {
	PerCategory int     `yaml:"per_category"`
	Examples    []Entry `yaml:"examples"`
}

// Set holds the example images that loaded successfully, in manifest order
type Set struct {
	examples    []models.Example
	perCategory int
}

// Load reads dir/examples.yaml and the images it names. An empty dir yields an
// empty set. Entries with a missing file, an unusable image or a category outside
// the taxonomy are skipped with a warning.
func Load(dir string, tax *taxonomy.Taxonomy, maxBytes int64, logger *zap.Logger) (*Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	set := &Set{perCategory: DefaultPerCategory}
	if dir == "" {
		return set, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("few-shot manifest %s not found in %s", ManifestFile, dir)
		}
		return nil, fmt.Errorf("failed to read few-shot manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse few-shot manifest: %w", err)
	}
	if m.PerCategory > 0 {
		set.perCategory = m.PerCategory
	}

	for _, entry := range m.Examples {
		category, subcategory, ok := tax.Resolve(entry.Category, entry.Subcategory)
		if !ok {
			logger.Warn("Few-shot example has unknown category",
				zap.String("file", entry.File),
				zap.String("category", entry.Category))
			continue
		}

		path := filepath.Join(dir, entry.File)
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Few-shot example not found", zap.String("path", path), zap.Error(err))
			continue
		}
		mime, err := imageset.Sniff(raw, maxBytes)
		if err != nil {
			logger.Warn("Few-shot example is not a usable image", zap.String("path", path), zap.Error(err))
			continue
		}

		set.examples = append(set.examples, models.Example{
			Image:       models.Image{Name: entry.File, MIMEType: mime, Data: raw},
			Category:    category,
			Subcategory: subcategory,
			Note:        entry.Note,
		})
		logger.Debug("Loaded few-shot example", zap.String("file", entry.File), zap.String("category", category))
	}

	logger.Info("Few-shot examples loaded", zap.Int("count", len(set.examples)), zap.String("dir", dir))
	return set, nil
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.examples)
}

// Select returns at most perCategory examples of each category, manifest order kept
func (s *Set) Select() []models.Example {
	if s.Len() == 0 {
		return nil
	}
	used := make(map[string]int)
	var out []models.Example
	for _, ex := range s.examples {
		if used[ex.Category] >= s.perCategory {
			continue
		}
		used[ex.Category]++
		out = append(out, ex)
	}
	return out
}

// Status counts loaded examples per category
func (s *Set) Status() map[string]int {
	status := make(map[string]int)
	if s == nil {
		return status
	}
	for _, ex := range s.examples {
		status[ex.Category]++
	}
	return status
}
