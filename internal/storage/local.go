package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"campus-events/internal/apperr"
	"campus-events/internal/utils"
)

type LocalStore struct {
	dir      string
	maxBytes int64
}

// NewLocalStore creates dir when it does not exist yet.
func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *LocalStore) Save(_ context.Context, originalName string, r io.Reader) (string, error) {
	buf, _, err := readImage(r, s.maxBytes)
	if err != nil {
		return "", err
	}
	name := utils.UploadName(originalName)
	if err := os.WriteFile(filepath.Join(s.dir, name), buf, 0o644); err != nil {
		return "", fmt.Errorf("write image %s: %w", name, err)
	}
	return name, nil
}

// Remove deletes ref. A file that is already gone is not an error.
func (s *LocalStore) Remove(_ context.Context, ref string) error {
	if !validRef(ref) {
		return apperr.Errorf(apperr.ErrValidation, "image %q", ref)
	}
	err := os.Remove(filepath.Join(s.dir, ref))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image %s: %w", ref, err)
	}
	return nil
}

func (s *LocalStore) Serve(w http.ResponseWriter, r *http.Request, ref string) {
	if !validRef(ref) {
		utils.WriteError(w, http.StatusNotFound, "File not found")
		return
	}
	path := filepath.Join(s.dir, ref)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		utils.WriteError(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
