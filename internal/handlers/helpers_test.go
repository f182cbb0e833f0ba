package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) UpdateRefreshToken(_ context.Context, userID, refreshToken string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = refreshToken
	s.users[userID] = user
	return nil
}

func (s *inMemoryUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[userID] = user
	return nil
}

func (s *inMemoryUserStore) UpdateProfile(_ context.Context, userID, email, fullName string) (models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.Email = email
	user.FullName = fullName
	s.users[userID] = user
	return user, nil
}

func (s *inMemoryUserStore) UpdateAvatarURL(_ context.Context, userID, avatarURL string) (models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.AvatarURL = avatarURL
	s.users[userID] = user
	return user, nil
}

func (s *inMemoryUserStore) UpdateCoverImageURL(_ context.Context, userID, coverImageURL string) (models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.CoverImageURL = coverImageURL
	s.users[userID] = user
	return user, nil
}

// fakeRelay mimics the media relay: every upload resolves to a deterministic
// URL. Set failing to fail every upload, or failCall to fail only the n-th
// upload (1-based), counting non-empty paths.
type fakeRelay struct {
	failing  bool
	failCall int
	calls    int
	uploaded []string
}

func (r *fakeRelay) Upload(_ context.Context, localPath string) *media.UploadResult {
	if localPath == "" {
		return nil
	}
	r.calls++
	if r.failing || r.calls == r.failCall {
		return nil
	}
	r.uploaded = append(r.uploaded, localPath)
	return &media.UploadResult{URL: "https://cdn.test/" + filepath.Base(localPath)}
}

func newTestManager(store auth.UserTokenStore) *auth.Manager {
	return auth.NewManager(config.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, store)
}

func seedUser(t *testing.T, store *inMemoryUserStore, id, username, email, password string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:        id,
		Username:  username,
		Email:     email,
		FullName:  "Test User",
		Password:  string(hashed),
		AvatarURL: "https://cdn.test/avatar.png",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	store.users[id] = user
	return user
}

func withUser(r *http.Request, user models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), identityKey{}, user))
}

// multipartBody builds a multipart form with the given text fields and file
// parts (field name to file content).
func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}

	for name, contents := range files {
		part, err := writer.CreateFormFile(name, name+".png")
		if err != nil {
			t.Fatalf("create file part %s: %v", name, err)
		}
		if _, err := io.Copy(part, bytes.NewReader(contents)); err != nil {
			t.Fatalf("write file part %s: %v", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	return body, writer.FormDataContentType()
}
