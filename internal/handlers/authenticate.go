package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/models"
)

type identityKey struct{}

// userFromContext returns the authenticated user attached by the
// Authenticator middleware. This is the single contract for authenticated
// identity: handlers never re-resolve it.
func userFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(identityKey{}).(models.User)
	return user, ok
}

// Authenticator resolves the calling user from the access token and attaches
// the full user record to the request context.
type Authenticator struct {
	Users    UserStore
	Sessions SessionManager
}

// RequireUser rejects requests without a valid access token.
func (a Authenticator) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user, ok := a.resolve(r)
		if !ok {
			respondError(ctx, w, errUnauthorized("unauthorized request"))
			return
		}

		next(w, r.WithContext(context.WithValue(ctx, identityKey{}, user)))
	}
}

// OptionalUser attaches the user when a valid access token is present and
// passes the request through untouched otherwise.
func (a Authenticator) OptionalUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user, ok := a.resolve(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), identityKey{}, user))
		}
		next(w, r)
	}
}

func (a Authenticator) resolve(r *http.Request) (models.User, bool) {
	if a.Users == nil || a.Sessions == nil {
		return models.User{}, false
	}

	raw := accessTokenFromRequest(r)
	if raw == "" {
		return models.User{}, false
	}

	userID, err := a.Sessions.VerifyAccessToken(raw)
	if err != nil {
		return models.User{}, false
	}

	user, err := a.Users.FindByID(r.Context(), userID)
	if err != nil {
		return models.User{}, false
	}

	return user, true
}

// accessTokenFromRequest reads the token from the accessToken cookie or from
// an Authorization bearer header, in that order.
func accessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
