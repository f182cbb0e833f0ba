package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const maxUploadMemory = 32 << 20

// saveUploadedFile spools the named multipart file field to a temporary file
// in dir and returns its path. A missing field returns an empty path and no
// error; the caller decides whether the field was required. The media relay
// owns deleting the returned file.
func saveUploadedFile(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("read %s form file: %w", field, err)
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	tmp, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("spool %s upload: %w", field, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return tmp.Name(), nil
}
