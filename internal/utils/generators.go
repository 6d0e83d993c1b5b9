package utils

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadName returns a random file name that keeps the lowercased extension
// of the client supplied name.
func UploadName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if len(ext) > 10 {
		ext = ""
	}
	return uuid.NewString() + ext
}
