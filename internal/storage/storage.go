// Package storage keeps uploaded event images, on local disk or in S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"campus-events/internal/apperr"
	"campus-events/internal/config"
	"campus-events/internal/logger"
)

// ImageStore saves, serves and removes event images. References returned by
// Save are bare file names; they are what Event.Image holds.
type ImageStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	Remove(ctx context.Context, ref string) error
	Serve(w http.ResponseWriter, r *http.Request, ref string)
}

// New picks S3 when a bucket is configured and the upload directory otherwise.
func New(uploads config.UploadConfig, s3cfg config.S3Config, log *logger.Logger) (ImageStore, error) {
	if s3cfg.Bucket != "" {
		store, err := NewS3Store(s3cfg, uploads.MaxBytes)
		if err != nil {
			return nil, err
		}
		log.Info("STORAGE", fmt.Sprintf("Storing images in s3://%s", s3cfg.Bucket))
		return store, nil
	}
	store, err := NewLocalStore(uploads.Dir, uploads.MaxBytes)
	if err != nil {
		return nil, err
	}
	log.Info("STORAGE", fmt.Sprintf("Storing images in %s", uploads.Dir))
	return store, nil
}

// readImage buffers at most maxBytes of r and sniffs the content type. Only
// images are accepted.
func readImage(r io.Reader, maxBytes int64) ([]byte, string, error) {
	buf, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(buf)) > maxBytes {
		return nil, "", apperr.Errorf(apperr.ErrValidation, "image larger than %d bytes", maxBytes)
	}
	if len(buf) == 0 {
		return nil, "", apperr.Errorf(apperr.ErrValidation, "empty image")
	}
	contentType := http.DetectContentType(buf)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", apperr.Errorf(apperr.ErrValidation, "%s is not an image", contentType)
	}
	return buf, contentType, nil
}

// validRef rejects anything that is not a single plain file name.
func validRef(ref string) bool {
	if ref == "" || ref == "." || ref == ".." {
		return false
	}
	if strings.ContainsAny(ref, `/\`) || strings.Contains(ref, "..") {
		return false
	}
	return filepath.Base(ref) == ref
}
