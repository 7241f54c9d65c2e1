package imageset

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

var mimeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
	"image/heif": ".heif",
}

// DecodeUpload turns a base64 payload or data URL into a validated image
func DecodeUpload(index int, payload string, maxBytes int64) (models.Image, error) {
	encoded := strings.TrimSpace(payload)
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.Index(encoded, ",")
		if comma < 0 || !strings.Contains(encoded[:comma], ";base64") {
			return models.Image{}, fmt.Errorf("image %d: malformed data URL", index)
		}
		encoded = encoded[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return models.Image{}, fmt.Errorf("image %d: invalid base64: %w", index, err)
		}
	}

	mime, err := Sniff(data, maxBytes)
	if err != nil {
		return models.Image{}, fmt.Errorf("image %d: %w", index, err)
	}

	return models.Image{
		Name:     fmt.Sprintf("upload_%02d%s", index+1, mimeExtensions[mime]),
		MIMEType: mime,
		Data:     data,
	}, nil
}
