// Package photos stores plant photos as durable local files.
package photos

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Dir is a directory of stored photo files named by random UUIDs.
type Dir struct {
	root string
}

func New(root string) *Dir {
	return &Dir{root: root}
}

// Save writes the image bytes to a new file and returns its path. The
// extension is taken from the MIME type ("image/jpeg" -> ".jpg").
func (d *Dir) Save(image []byte, mimeType string) (string, error) {
	if err := os.MkdirAll(d.root, 0755); err != nil {
		return "", fmt.Errorf("create photos dir: %w", err)
	}

	ext := ".jpg"
	switch mimeType {
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	}

	path := filepath.Join(d.root, uuid.NewString()+ext)
	if err := os.WriteFile(path, image, 0644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return path, nil
}

// Remove deletes a stored photo. A missing file is not an error: the record
// is what matters, the file is best-effort.
func (d *Dir) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}
