package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const userColumns = `id, username, email, full_name, password_hash, avatar_url, cover_image_url, COALESCE(refresh_token, ''), created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, cover_image_url, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Username, user.Email, user.FullName, user.Password, user.AvatarURL, user.CoverImageURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by their identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE id = $1
    `, id)

	return scanUser(row, "select user by id")
}

// FindByUsernameOrEmail fetches the user matching either credential.
func (r *PostgresUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE (username = $1 AND $1 <> '') OR (email = $2 AND $2 <> '')
    `, username, email)

	return scanUser(row, "select user by username or email")
}

// UpdateRefreshToken syncs only the rotating refresh token column. An empty
// token clears the column.
func (r *PostgresUserRepository) UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = NULLIF($2, ''), updated_at = NOW()
        WHERE id = $1
    `, userID, refreshToken)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET password_hash = $2, updated_at = NOW()
        WHERE id = $1
    `, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateProfile modifies the mutable account fields and returns the updated record.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, userID, email, fullName string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE users
        SET email = $2, full_name = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns+`
    `, userID, email, fullName)

	user, err := scanUser(row, "update profile")
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, ErrConflict
		}
		return models.User{}, err
	}

	return user, nil
}

// UpdateAvatarURL replaces the avatar location and returns the updated record.
func (r *PostgresUserRepository) UpdateAvatarURL(ctx context.Context, userID, avatarURL string) (models.User, error) {
	return r.updateImageColumn(ctx, userID, "avatar_url", avatarURL)
}

// UpdateCoverImageURL replaces the cover image location and returns the updated record.
func (r *PostgresUserRepository) UpdateCoverImageURL(ctx context.Context, userID, coverImageURL string) (models.User, error) {
	return r.updateImageColumn(ctx, userID, "cover_image_url", coverImageURL)
}

func (r *PostgresUserRepository) updateImageColumn(ctx context.Context, userID, column, url string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE users
        SET `+column+` = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns+`
    `, userID, url)

	return scanUser(row, "update "+column)
}

func scanUser(row pgx.Row, op string) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.Password,
		&user.AvatarURL,
		&user.CoverImageURL,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
