package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// AuthHandler implements registration and the session lifecycle.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	Media    MediaRelay

	// UploadTempDir receives spooled multipart files before the relay picks
	// them up.
	UploadTempDir string
	NowFunc       func() time.Time
}

// Register handles POST /api/v1/users/register (multipart).
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil || h.Media == nil {
		logger.Error("registration dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil, "hasMedia", h.Media != nil)
		respondError(ctx, w, errInternal("registration services unavailable"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid registration payload", "error", err)
		respondError(ctx, w, errValidation("invalid multipart request body"))
		return
	}

	username := strings.ToLower(strings.TrimSpace(r.FormValue("username")))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	fullName := strings.TrimSpace(r.FormValue("fullName"))

	// The password is hashed exactly as submitted; trimming it here would
	// make login comparisons fail for anyone whose password has edge
	// whitespace.
	password := r.FormValue("password")

	if username == "" || email == "" || strings.TrimSpace(password) == "" || fullName == "" {
		respondError(ctx, w, errValidation("please fill all the required fields"))
		return
	}

	if _, err := h.Users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		respondError(ctx, w, errConflict("user already exists"))
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("registration user lookup failed", "error", err, "username", username)
		respondError(ctx, w, err)
		return
	}

	avatarPath, err := saveUploadedFile(r, "avatar", h.UploadTempDir)
	if err != nil {
		logger.Error("spool avatar upload", "error", err)
		respondError(ctx, w, errInternal("failed to read avatar file"))
		return
	}
	if avatarPath == "" {
		respondError(ctx, w, errValidation("avatar file is required"))
		return
	}

	// Cover image is an optional single-file field; a missing or failed
	// upload degrades to an empty URL instead of aborting registration.
	coverPath, err := saveUploadedFile(r, "coverImage", h.UploadTempDir)
	if err != nil {
		logger.Warn("spool cover image upload", "error", err)
		coverPath = ""
	}

	avatar := h.Media.Upload(ctx, avatarPath)
	cover := h.Media.Upload(ctx, coverPath)

	if avatar == nil {
		respondError(ctx, w, errInternal("uploading avatar failed, please try again"))
		return
	}

	coverURL := ""
	if cover != nil {
		coverURL = cover.URL
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("registration failed to hash password", "error", err)
		respondError(ctx, w, errInternal("failed to secure password"))
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		Password:      string(hashed),
		AvatarURL:     avatar.URL,
		CoverImageURL: coverURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, errConflict("user already exists"))
			return
		}
		logger.Error("registration failed to create user", "error", err, "username", username)
		respondError(ctx, w, err)
		return
	}

	created, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		logger.Error("registration re-read failed", "error", err, "userId", user.ID)
		respondError(ctx, w, errInternal("something went wrong while registering the user"))
		return
	}

	respondData(ctx, w, http.StatusCreated, created.Public(), "user registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, errInternal("authentication services unavailable"))
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, errValidation("invalid request body"))
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" && req.Email == "" {
		respondError(ctx, w, errValidation("username or email is required"))
		return
	}

	user, err := h.Users.FindByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, errNotFound("user is not registered"))
			return
		}
		logger.Error("login user lookup failed", "error", err)
		respondError(ctx, w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, errUnauthorized("invalid user credentials"))
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, errInternal("failed to create session"))
		return
	}

	setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, loginResponse{
		User:         user.Public(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout. The authenticator has already
// resolved the caller.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	user, ok := userFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("unauthorized request"))
		return
	}

	if err := h.Sessions.Revoke(ctx, user.ID); err != nil {
		logging.FromContext(ctx).Error("revoke session", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	clearSessionCookies(w)
	respondData(ctx, w, http.StatusOK, struct{}{}, "user logged out")
}

// Refresh handles POST /api/v1/users/refresh-token. The refresh token is read
// from the cookie first and the request body second.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, errInternal("session service unavailable"))
		return
	}

	incoming := refreshTokenFromRequest(r)
	if incoming == "" {
		respondError(ctx, w, errUnauthorized("unauthorized request"))
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, incoming)
	if err != nil {
		logger.Warn("refresh failed", "error", err)
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, tokens, "access token refreshed successfully")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("unauthorized request"))
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password payload", "error", err)
		respondError(ctx, w, errValidation("invalid request body"))
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, errValidation("old and new passwords are required"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		respondError(ctx, w, errUnauthorized("invalid old password"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("change password failed to hash", "error", err)
		respondError(ctx, w, errInternal("failed to secure password"))
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		logger.Error("change password persist failed", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

func refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.RefreshToken)
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         models.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
