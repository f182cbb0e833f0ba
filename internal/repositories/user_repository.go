package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// UserRepository defines the data access contract for users. The targeted
// column updates exist so session bookkeeping (token rotation, password
// changes) never re-validates or rewrites unrelated fields.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateProfile(ctx context.Context, userID, email, fullName string) (models.User, error)
	UpdateAvatarURL(ctx context.Context, userID, avatarURL string) (models.User, error)
	UpdateCoverImageURL(ctx context.Context, userID, coverImageURL string) (models.User, error)
}
