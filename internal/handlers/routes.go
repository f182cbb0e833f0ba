package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Media         MediaRelay
	Profiles      ProfileStore
	Subscriptions SubscriptionStore

	UploadTempDir string
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authn := Authenticator{Users: deps.Users, Sessions: deps.Sessions}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Media: deps.Media, UploadTempDir: deps.UploadTempDir}
	users := UserHandler{Users: deps.Users, Media: deps.Media, UploadTempDir: deps.UploadTempDir}
	channels := ChannelHandler{Profiles: deps.Profiles}
	subs := SubscriptionHandler{Users: deps.Users, Subscriptions: deps.Subscriptions}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/users/register", auth.Register)
	mux.HandleFunc("/api/v1/users/login", auth.Login)
	mux.HandleFunc("/api/v1/users/logout", authn.RequireUser(auth.Logout))
	mux.HandleFunc("/api/v1/users/refresh-token", auth.Refresh)
	mux.HandleFunc("/api/v1/users/change-password", authn.RequireUser(auth.ChangePassword))
	mux.HandleFunc("/api/v1/users/current-user", authn.RequireUser(users.Me))
	mux.HandleFunc("/api/v1/users/update-account", authn.RequireUser(users.UpdateProfile))
	mux.HandleFunc("/api/v1/users/avatar", authn.RequireUser(users.UpdateAvatar))
	mux.HandleFunc("/api/v1/users/cover-image", authn.RequireUser(users.UpdateCoverImage))
	mux.HandleFunc("/api/v1/users/history", authn.RequireUser(channels.WatchHistory))
	mux.HandleFunc("/api/v1/channels/{username}", authn.OptionalUser(channels.Profile))
	mux.HandleFunc("/api/v1/subscriptions/{username}", authn.RequireUser(subs.Toggle))
}
