package handlers

import (
	"context"

	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/models"
)

// UserStore captures the persistence operations required by the user-facing
// handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateProfile(ctx context.Context, userID, email, fullName string) (models.User, error)
	UpdateAvatarURL(ctx context.Context, userID, avatarURL string) (models.User, error)
	UpdateCoverImageURL(ctx context.Context, userID, coverImageURL string) (models.User, error)
}

// SessionManager issues, refreshes, revokes, and verifies session tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
	VerifyAccessToken(raw string) (string, error)
}

// MediaRelay uploads a local temporary file to the asset host. A nil result
// means the upload is unavailable; the temp file is gone either way.
type MediaRelay interface {
	Upload(ctx context.Context, localPath string) *media.UploadResult
}

// ProfileStore runs the read-only aggregation queries.
type ProfileStore interface {
	GetChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
}

// SubscriptionStore manages the subscriber/channel relation.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
}
