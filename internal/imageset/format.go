package imageset

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEmptyImage        = errors.New("image file is empty")
	ErrImageTooLarge     = errors.New("image exceeds size limit")
	ErrCorruptImage      = errors.New("image data is corrupt or not an image")
)

// formats Gemini accepts as inline image data
var acceptedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
}

// picked up by the scan so they can be reported, but never sent
var knownUnsupported = map[string]bool{
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

var decodedMIME = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// LooksLikeImage reports whether the file name carries an image extension, supported or not
func LooksLikeImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := acceptedExtensions[ext]
	return ok || knownUnsupported[ext]
}

// Accepted reports whether images with this file name can be sent
func Accepted(name string) bool {
	_, ok := acceptedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Sniff validates image bytes and returns their MIME type. Only the header is
// decoded; pixels are never touched.
func Sniff(data []byte, maxBytes int64) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", ErrImageTooLarge
	}

	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if mime, ok := decodedMIME[format]; ok {
			return mime, nil
		}
		return "", ErrUnsupportedFormat
	}

	if brand, ok := heifBrand(data); ok {
		if brand == "mif1" || brand == "msf1" {
			return "image/heif", nil
		}
		return "image/heic", nil
	}
	return "", ErrCorruptImage
}

// heifBrand reads the ISO-BMFF ftyp box that opens HEIC/HEIF files
func heifBrand(data []byte) (string, bool) {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return "", false
	}
	brand := string(data[8:12])
	switch brand {
	case "heic", "heix", "hevc", "hevx", "heim", "heis", "mif1", "msf1":
		return brand, true
	}
	return "", false
}
