package app

import (
	"context"
	"fmt"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)

	objectStore, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
	}

	return handlers.Dependencies{
		Users:         users,
		Sessions:      auth.NewManager(cfg.Tokens, users),
		Media:         media.NewRelay(objectStore),
		Profiles:      repositories.NewPostgresProfileRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		UploadTempDir: cfg.UploadTempDir,
	}, nil
}
