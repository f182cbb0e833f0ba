package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

var (
	// ErrTokenInvalid indicates a token with a bad signature, a wrong signing
	// method, an expired lifetime, or a malformed payload.
	ErrTokenInvalid = errors.New("token invalid or expired")
	// ErrTokenReused indicates a refresh token that no longer matches the one
	// stored on the user record, i.e. a stale token presented after rotation.
	ErrTokenReused = errors.New("refresh token is expired or used")
)

// UserTokenStore is the slice of user persistence the token manager needs:
// resolving a user by id and syncing the rotating refresh token column
// without touching any other field.
type UserTokenStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error
}

// Manager issues, verifies, and rotates JWT session tokens. Access and
// refresh tokens are signed with separate secrets so neither can stand in for
// the other.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	store UserTokenStore
	now   func() time.Time
}

// NewManager constructs a Manager from the token configuration.
func NewManager(cfg config.TokenConfig, store UserTokenStore) *Manager {
	if store == nil {
		panic("auth: user token store must not be nil")
	}
	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		store:         store,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs a fresh access/refresh token pair for the user and persists the
// refresh token on the user record. The stored value is what a later Refresh
// call must present; persisting it is part of issuance, not an afterthought.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("auth: user id must be provided")
	}

	now := m.now()

	accessToken, accessExp, err := m.sign(userID, now, m.accessTTL, m.accessSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, refreshExp, err := m.sign(userID, now, m.refreshTTL, m.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := m.store.UpdateRefreshToken(ctx, userID, refreshToken); err != nil {
		return models.SessionTokens{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a refresh token for a new session token pair. The
// presented token must verify and must exactly equal the token currently
// stored on the user record; a mismatch means the token was already rotated
// away and nothing is issued. The equality check is best effort: two
// concurrent refreshes can both pass it before either write lands.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	userID, err := m.VerifyRefreshToken(refreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		// A token for a user that no longer exists is a credential failure;
		// anything else is a store failure and must surface as one.
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrTokenInvalid
		}
		return models.SessionTokens{}, fmt.Errorf("load user for refresh: %w", err)
	}

	if user.RefreshToken == "" || refreshToken != user.RefreshToken {
		return models.SessionTokens{}, ErrTokenReused
	}

	return m.Issue(ctx, user.ID)
}

// Revoke clears the stored refresh token so it can no longer be exchanged.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := m.store.UpdateRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// VerifyAccessToken validates an access token and returns the embedded user id.
func (m *Manager) VerifyAccessToken(raw string) (string, error) {
	return verify(raw, m.accessSecret)
}

// VerifyRefreshToken validates a refresh token and returns the embedded user id.
func (m *Manager) VerifyRefreshToken(raw string) (string, error) {
	return verify(raw, m.refreshSecret)
}

func (m *Manager) sign(userID string, now time.Time, ttl time.Duration, secret []byte) (string, time.Time, error) {
	exp := now.Add(ttl)
	// The jti claim makes every signed token unique, so rotating a refresh
	// token always invalidates its predecessor even within the same second.
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func verify(raw string, secret []byte) (string, error) {
	if raw == "" {
		return "", ErrTokenInvalid
	}

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}
