package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/models"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// Session cookies are HTTP-only and secure: client-side script can neither
// read nor write them, and they are never sent over plaintext.
func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
