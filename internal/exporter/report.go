package exporter

import (
	"os"
	"path/filepath"

	apperrors "yieldcli/internal/errors"
)

// WriteTextFile writes a plain text report, creating its directory.
func WriteTextFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("create report directory", err).WithContext("path", path)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return apperrors.NewStorageError("write report", err).WithContext("path", path)
	}
	return nil
}
