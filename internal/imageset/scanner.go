package imageset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

var (
	ErrRootNotFound = errors.New("photo root directory not found")
	ErrNoFolders    = errors.New("photo root contains no property folders")
)

// Scan lists the property folders directly under root, each with its image
// files in name order. Files that are not images at all are ignored. Symlinked
// folders are followed. A folder whose entries cannot be read is still returned,
// with ScanErr set, so that it gets its own row.
func Scan(root string, logger *zap.Logger) ([]models.PropertyFolder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("failed to stat photo root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo root %s: %w", root, err)
	}

	var folders []models.PropertyFolder
	for _, entry := range entries {
		if isHidden(entry.Name()) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		isDir, err := resolvesToDir(entry, path)
		if err != nil {
			logger.Warn("Skipping unresolvable entry in photo root",
				zap.String("entry", entry.Name()),
				zap.Error(err))
			continue
		}
		if !isDir {
			continue
		}

		folder, err := ScanFolder(path)
		folder.ScanErr = err
		folders = append(folders, folder)
	}

	if len(folders) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFolders, root)
	}
	return folders, nil
}

// ScanFolder lists the image files of a single property folder
func ScanFolder(path string) (models.PropertyFolder, error) {
	folder := models.PropertyFolder{
		Name: filepath.Base(path),
		Path: path,
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return folder, fmt.Errorf("failed to read property folder %s: %w", path, err)
	}

	// os.ReadDir returns entries sorted by file name
	for _, entry := range entries {
		if entry.IsDir() || isHidden(entry.Name()) || !LooksLikeImage(entry.Name()) {
			continue
		}
		folder.Images = append(folder.Images, models.ImageRef{
			Name: entry.Name(),
			Path: filepath.Join(path, entry.Name()),
		})
	}
	return folder, nil
}

// resolvesToDir follows symlinks, which os.DirEntry.IsDir does not
func resolvesToDir(entry os.DirEntry, path string) (bool, error) {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.IsDir(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve symlink %s: %w", path, err)
	}
	return info.IsDir(), nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
