package imageset

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

const DefaultMaxImages = 10

// Loader reads and validates the images of a property folder
type Loader struct {
	maxImages int
	maxBytes  int64
	logger    *zap.Logger
}

func NewLoader(maxImages int, maxBytes int64, logger *zap.Logger) *Loader {
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		maxImages: maxImages,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Load returns up to maxImages usable images in folder order. Files that
// cannot be used are skipped with a warning and returned as SkippedImage.
func (l *Loader) Load(folder models.PropertyFolder) ([]models.Image, []models.SkippedImage) {
	var (
		images  []models.Image
		skipped []models.SkippedImage
	)

	for i, ref := range folder.Images {
		if len(images) >= l.maxImages {
			l.logger.Debug("Image cap reached",
				zap.String("folder", folder.Name),
				zap.Int("cap", l.maxImages),
				zap.Int("not_sent", len(folder.Images)-i))
			break
		}

		img, err := l.loadOne(ref)
		if err != nil {
			l.logger.Warn("Skipping image",
				zap.String("folder", folder.Name),
				zap.String("image", ref.Name),
				zap.Error(err))
			skipped = append(skipped, models.SkippedImage{Name: ref.Name, Reason: skipReason(err)})
			continue
		}
		images = append(images, img)
	}

	return images, skipped
}

func (l *Loader) loadOne(ref models.ImageRef) (models.Image, error) {
	if !Accepted(ref.Name) {
		return models.Image{}, ErrUnsupportedFormat
	}

	info, err := os.Stat(ref.Path)
	if err != nil {
		return models.Image{}, fmt.Errorf("failed to stat image: %w", err)
	}
	if l.maxBytes > 0 && info.Size() > l.maxBytes {
		return models.Image{}, ErrImageTooLarge
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return models.Image{}, fmt.Errorf("failed to read image: %w", err)
	}

	mime, err := Sniff(data, l.maxBytes)
	if err != nil {
		return models.Image{}, err
	}
	return models.Image{Name: ref.Name, MIMEType: mime, Data: data}, nil
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported format"
	case errors.Is(err, ErrEmptyImage):
		return "empty file"
	case errors.Is(err, ErrImageTooLarge):
		return "too large"
	case errors.Is(err, ErrCorruptImage):
		return "corrupt image"
	}
	return "unreadable"
}
