package imageset

import (
	"encoding/base64"
	"errors"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

// DefaultMaxRequestBytes keeps a request under Gemini's 20 MB inline limit,
// with room left for the prompt text
const DefaultMaxRequestBytes = 18 << 20

const reasonRequestBudget = "request size budget"

// ErrRequestTooLarge means not even the first image fits in the request budget
var ErrRequestTooLarge = errors.New("no image fits in the request size budget")

// InlineSize is the number of bytes data occupies once base64 encoded in a request
func InlineSize(data []byte) int64 {
	return int64(base64.StdEncoding.EncodedLen(len(data)))
}

// ExamplesInlineSize sums the inline size of the few-shot example images
func ExamplesInlineSize(examples []models.Example) int64 {
	var total int64
	for _, ex := range examples {
		total += InlineSize(ex.Image.Data)
	}
	return total
}

// FitRequestBudget keeps images in order while their inline size fits in budget.
// The first image that does not fit and every image after it are returned as
// skipped. A budget <= 0 disables the check.
func FitRequestBudget(images []models.Image, budget int64) ([]models.Image, []models.SkippedImage) {
	if budget <= 0 {
		return images, nil
	}

	var used int64
	for i, img := range images {
		used += InlineSize(img.Data)
		if used > budget {
			skipped := make([]models.SkippedImage, 0, len(images)-i)
			for _, rest := range images[i:] {
				skipped = append(skipped, models.SkippedImage{Name: rest.Name, Reason: reasonRequestBudget})
			}
			return images[:i], skipped
		}
	}
	return images, nil
}
