// Package storage reads and rewrites the host page on disk.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Document is the HTML file the data literal lives in.
type Document struct {
	path string
	log  *slog.Logger
}

func NewDocument(path string, log *slog.Logger) *Document {
	if log == nil {
		log = slog.Default()
	}
	return &Document{path: path, log: log}
}

func (d *Document) Path() string { return d.path }

// Read returns the whole file.
func (d *Document) Read() (string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}

// Write replaces the file atomically: the content goes to a temp file in
// the same directory which is then renamed over the original. The
// original file mode is kept.
func (d *Document) Write(content string) (err error) {
	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(d.path); statErr == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat document: %w", statErr)
	}

	dir, base := filepath.Split(d.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			if rmErr := os.Remove(tmp.Name()); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				d.log.Warn("failed to remove temp file", "path", tmp.Name(), "error", rmErr)
			}
		}
	}()

	if _, err = tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	d.log.Debug("document written", "path", d.path, "bytes", len(content))
	return nil
}

// Fingerprint is a short stable hash of content, used in logs to show
// whether a run changed the page.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}
