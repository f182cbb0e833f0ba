package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/repositories"
)

// SubscriptionHandler toggles the subscriber/channel relation.
type SubscriptionHandler struct {
	Users         UserStore
	Subscriptions SubscriptionStore
}

// Toggle handles POST /api/v1/subscriptions/{username}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
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

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, errValidation("username is missing"))
		return
	}

	channel, err := h.Users.FindByUsernameOrEmail(ctx, username, "")
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, errNotFound("channel does not exist"))
			return
		}
		logger.Error("subscription channel lookup failed", "error", err, "username", username)
		respondError(ctx, w, err)
		return
	}

	if channel.ID == user.ID {
		respondError(ctx, w, errValidation("cannot subscribe to your own channel"))
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, user.ID, channel.ID)
	if err != nil {
		logger.Error("toggle subscription failed", "error", err, "userId", user.ID, "channelId", channel.ID)
		respondError(ctx, w, err)
		return
	}

	message := "subscription removed"
	if subscribed {
		message = "subscribed successfully"
	}

	respondData(ctx, w, http.StatusOK, subscriptionState{Subscribed: subscribed}, message)
}

type subscriptionState struct {
	Subscribed bool `json:"subscribed"`
}
