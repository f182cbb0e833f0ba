package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeStorage struct {
	saved       map[string]string
	contentType string
	err         error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: make(map[string]string)}
}

func (s *fakeStorage) Save(_ context.Context, key, contentType string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[key] = string(body)
	s.contentType = contentType
	return "https://assets.example.com/" + key, nil
}

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestRelayUpload(t *testing.T) {
	storage := newFakeStorage()
	relay := NewRelay(storage)

	path := writeTempFile(t, "avatar.png", "png-bytes")

	result := relay.Upload(context.Background(), path)
	if result == nil {
		t.Fatal("expected a result for a successful upload")
	}
	if !strings.HasPrefix(result.URL, "https://assets.example.com/") {
		t.Fatalf("unexpected url %q", result.URL)
	}
	if !strings.HasSuffix(result.URL, ".png") {
		t.Fatalf("expected key to keep the extension, got %q", result.URL)
	}
	if storage.contentType != "image/png" {
		t.Fatalf("expected detected content type image/png got %q", storage.contentType)
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("temp file should be deleted after a successful upload")
	}
}

func TestRelayUploadFailureStillDeletesTempFile(t *testing.T) {
	storage := newFakeStorage()
	storage.err = errors.New("bucket unavailable")
	relay := NewRelay(storage)

	path := writeTempFile(t, "avatar.jpg", "jpg-bytes")

	if result := relay.Upload(context.Background(), path); result != nil {
		t.Fatalf("expected nil result on storage failure, got %+v", result)
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("temp file should be deleted after a failed upload")
	}
}

func TestRelayUploadEmptyPath(t *testing.T) {
	storage := newFakeStorage()
	relay := NewRelay(storage)

	if result := relay.Upload(context.Background(), ""); result != nil {
		t.Fatalf("expected nil result for empty path, got %+v", result)
	}
	if len(storage.saved) != 0 {
		t.Fatal("nothing should reach storage for an empty path")
	}
}

func TestRelayUploadMissingFile(t *testing.T) {
	storage := newFakeStorage()
	relay := NewRelay(storage)

	missing := filepath.Join(t.TempDir(), "gone.png")
	if result := relay.Upload(context.Background(), missing); result != nil {
		t.Fatalf("expected nil result for missing file, got %+v", result)
	}
}
