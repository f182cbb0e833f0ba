package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// ProfileRepository exposes the read-only aggregation queries.
type ProfileRepository interface {
	// GetChannelProfile resolves a channel by username and computes its
	// subscriber counts. viewerID may be empty for anonymous viewers, in
	// which case IsSubscribed is always false.
	GetChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	// GetWatchHistory returns the user's watched videos in watch order, each
	// with its owner reduced to the public projection.
	GetWatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
}

// SubscriptionRepository manages the subscriber/channel relation.
type SubscriptionRepository interface {
	// Toggle subscribes the user to the channel if no subscription exists,
	// otherwise removes it. It reports the resulting state.
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
}
