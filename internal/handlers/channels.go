package handlers

import (
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/logging"
)

// ChannelHandler serves the aggregation-backed read endpoints.
type ChannelHandler struct {
	Profiles ProfileStore
}

// Profile handles GET /api/v1/channels/{username}. Authentication is
// optional: anonymous viewers get isSubscribed = false.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, errValidation("username is missing"))
		return
	}

	viewerID := ""
	if viewer, ok := userFromContext(ctx); ok {
		viewerID = viewer.ID
	}

	ctx, span := logging.StartSpan(ctx, "channel.profile")
	defer span.End()

	profile, err := h.Profiles.GetChannelProfile(ctx, username, viewerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, profile, "user channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h ChannelHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
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

	ctx, span := logging.StartSpan(ctx, "watch.history")
	defer span.End()

	history, err := h.Profiles.GetWatchHistory(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("watch history query failed", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, history, "watch history fetched successfully")
}
