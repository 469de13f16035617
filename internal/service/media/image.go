// Package media loads still images, image folders and video frames into
// MediaItems ready for recognition.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/models"
)

// JPEGQuality is used when a non-JPEG image is re-encoded for upload.
const JPEGQuality = 90

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// LoadImage reads a single image file.
func LoadImage(path string) (models.MediaItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("%w: cannot read %s: %v", apperr.ErrInvalidInput, path, err)
	}
	return DecodeImage(filepath.Base(path), data)
}

// DecodeImage validates raw image bytes and returns an item carrying JPEG
// data. Formats other than JPEG are re-encoded.
func DecodeImage(name string, data []byte) (models.MediaItem, error) {
	if len(data) == 0 {
		return models.MediaItem{}, fmt.Errorf("%w: %s is empty", apperr.ErrInvalidInput, name)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("%w: %s is not a supported image: %v", apperr.ErrInvalidInput, name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return models.MediaItem{}, fmt.Errorf("%w: %s has no pixels", apperr.ErrInvalidInput, name)
	}

	if format != "jpeg" {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return models.MediaItem{}, fmt.Errorf("%w: cannot decode %s: %v", apperr.ErrInvalidInput, name, err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return models.MediaItem{}, fmt.Errorf("%w: cannot encode %s: %v", apperr.ErrInvalidInput, name, err)
		}
		data = buf.Bytes()
	}

	return models.MediaItem{
		Name:   name,
		Width:  cfg.Width,
		Height: cfg.Height,
		Data:   data,
	}, nil
}

// LoadFolder loads every image file directly inside dir in name order.
// Subdirectories, hidden files and other extensions are ignored. A folder
// without images, or with an image that cannot be decoded, is rejected.
func LoadFolder(dir string) ([]models.MediaItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read folder %s: %v", apperr.ErrInvalidInput, dir, err)
	}

	var items []models.MediaItem
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !IsImageFile(name) {
			continue
		}

		item, err := LoadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: folder %s contains no images", apperr.ErrInvalidInput, dir)
	}
	return items, nil
}
