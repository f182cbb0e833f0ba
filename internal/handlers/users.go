package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// UserHandler implements the profile management endpoints. Every endpoint
// requires the authenticator to have attached the calling user.
type UserHandler struct {
	Users UserStore
	Media MediaRelay

	UploadTempDir string
}

// Me handles GET /api/v1/users/current-user.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	user, ok := userFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("unauthorized request"))
		return
	}

	respondData(ctx, w, http.StatusOK, user.Public(), "current user fetched successfully")
}

// UpdateProfile handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
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

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update account payload", "error", err)
		respondError(ctx, w, errValidation("invalid request body"))
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.FullName == "" {
		respondError(ctx, w, errValidation("email and full name are required"))
		return
	}

	updated, err := h.Users.UpdateProfile(ctx, user.ID, req.Email, req.FullName)
	if err != nil {
		logger.Error("update account failed", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, updated.Public(), "account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar (multipart).
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, imageUpdate{
		field:      "avatar",
		missingMsg: "avatar file is missing",
		failedMsg:  "error while uploading avatar",
		message:    "avatar updated successfully",
		persist:    h.Users.UpdateAvatarURL,
	})
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image (multipart).
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, imageUpdate{
		field:      "coverImage",
		missingMsg: "cover image file is missing",
		failedMsg:  "error while uploading cover image",
		message:    "cover image updated successfully",
		persist:    h.Users.UpdateCoverImageURL,
	})
}

type imageUpdate struct {
	field      string
	missingMsg string
	failedMsg  string
	message    string
	persist    func(ctx context.Context, userID, url string) (models.User, error)
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, op imageUpdate) {
	if r.Method != http.MethodPatch {
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

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid image payload", "field", op.field, "error", err)
		respondError(ctx, w, errValidation("invalid multipart request body"))
		return
	}

	path, err := saveUploadedFile(r, op.field, h.UploadTempDir)
	if err != nil {
		logger.Error("spool image upload", "field", op.field, "error", err)
		respondError(ctx, w, errInternal("failed to read uploaded file"))
		return
	}
	if path == "" {
		respondError(ctx, w, errValidation(op.missingMsg))
		return
	}

	result := h.Media.Upload(ctx, path)
	if result == nil {
		respondError(ctx, w, errInternal(op.failedMsg))
		return
	}

	updated, err := op.persist(ctx, user.ID, result.URL)
	if err != nil {
		logger.Error("persist image url", "field", op.field, "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, updated.Public(), op.message)
}

type updateProfileRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}
