package photos

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndRemove(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "photos"))

	path, err := d.Save([]byte("jpegdata"), "image/jpeg")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(path, ".jpg") {
		t.Errorf("path = %q, want .jpg suffix", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "jpegdata" {
		t.Errorf("content = %q", data)
	}

	if err := d.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be gone")
	}

	// Removing again, or removing nothing, is fine
	if err := d.Remove(path); err != nil {
		t.Errorf("second remove: %v", err)
	}
	if err := d.Remove(""); err != nil {
		t.Errorf("remove empty path: %v", err)
	}
}

func TestSave_Extensions(t *testing.T) {
	d := New(t.TempDir())

	for mime, ext := range map[string]string{
		"image/png":    ".png",
		"image/webp":   ".webp",
		"image/jpeg":   ".jpg",
		"what/unknown": ".jpg",
	} {
		path, err := d.Save([]byte("x"), mime)
		if err != nil {
			t.Fatalf("save %s: %v", mime, err)
		}
		if !strings.HasSuffix(path, ext) {
			t.Errorf("%s -> %q, want %s suffix", mime, path, ext)
		}
	}
}
