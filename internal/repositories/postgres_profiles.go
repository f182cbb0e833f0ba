package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresProfileRepository runs the aggregation queries for channel profiles
// and watch history.
type PostgresProfileRepository struct {
	pool db.Pool
}

// NewPostgresProfileRepository constructs a profile repository backed by PostgreSQL.
func NewPostgresProfileRepository(pool db.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// GetChannelProfile resolves a channel and its subscriber aggregates in a
// single round trip. An empty viewerID matches no subscription rows, so
// anonymous viewers always see is_subscribed = false.
func (r *PostgresProfileRepository) GetChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            u.id,
            u.full_name,
            u.username,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id)    AS subscribers_count,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to_count,
            EXISTS(
                SELECT 1 FROM subscriptions s
                WHERE s.channel_id = u.id AND s.subscriber_id = $2
            ) AS is_subscribed,
            u.avatar_url,
            u.cover_image_url,
            u.email
        FROM users u
        WHERE u.username = $1
    `, username, viewerID)

	var profile models.ChannelProfile
	err = row.Scan(
		&profile.ID,
		&profile.FullName,
		&profile.Username,
		&profile.SubscribersCount,
		&profile.SubscribedToCount,
		&profile.IsSubscribed,
		&profile.AvatarURL,
		&profile.CoverImageURL,
		&profile.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}

	return profile, nil
}

// GetWatchHistory joins the user's watch history against videos and reduces
// each owner to the public projection. The position column preserves watch
// order. Users with no history get an empty slice, not an error.
func (r *PostgresProfileRepository) GetWatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT
            v.id, v.title, v.description, v.video_file_url, v.thumbnail_url,
            v.duration_seconds, v.view_count,
            o.full_name, o.username, o.avatar_url
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id
        JOIN users o  ON o.id = v.owner_id
        WHERE wh.user_id = $1
        ORDER BY wh.position
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	history := []models.WatchedVideo{}
	for rows.Next() {
		var entry models.WatchedVideo
		if err := rows.Scan(
			&entry.ID,
			&entry.Title,
			&entry.Description,
			&entry.VideoFileURL,
			&entry.ThumbnailURL,
			&entry.DurationSeconds,
			&entry.ViewCount,
			&entry.Owner.FullName,
			&entry.Owner.Username,
			&entry.Owner.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return history, nil
}

// PostgresSubscriptionRepository provides persistence for channel subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle flips the subscription state between subscriber and channel and
// reports whether the subscriber follows the channel afterwards.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES (gen_random_uuid()::TEXT, $1, $2, $3)
    `, subscriberID, channelID, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				// Lost a race with a concurrent toggle; already subscribed.
				return true, nil
			case "23503":
				return false, ErrNotFound
			}
		}
		return false, fmt.Errorf("insert subscription: %w", err)
	}

	return true, nil
}

var _ ProfileRepository = (*PostgresProfileRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
