package models

import "time"

// User represents an account within the ClipStream platform. Username and
// email are stored lowercase and are unique across all users.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
	RefreshToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Public returns the user projection that is safe to serialize. The password
// hash and the current refresh token never leave the service.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// PublicUser is the wire representation of a user.
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Video is a content record. Videos are created by the ingestion flow and are
// read-only within this service.
type Video struct {
	ID              string
	Title           string
	Description     string
	VideoFileURL    string
	ThumbnailURL    string
	DurationSeconds float64
	ViewCount       int64
	IsPublished     bool
	OwnerID         string
	Tags            []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Subscription relates a subscriber to the channel they follow.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// ChannelProfile is the aggregated public view of a channel.
type ChannelProfile struct {
	ID                string `json:"id"`
	FullName          string `json:"fullName"`
	Username          string `json:"username"`
	SubscribersCount  int64  `json:"subscribersCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
	AvatarURL         string `json:"avatar"`
	CoverImageURL     string `json:"coverImage"`
	Email             string `json:"email"`
}

// VideoOwner is the reduced owner projection attached to watch history
// entries.
type VideoOwner struct {
	FullName  string `json:"fullName"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// WatchedVideo is a watch history entry: the video joined with its owner.
type WatchedVideo struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	VideoFileURL    string     `json:"videoFile"`
	ThumbnailURL    string     `json:"thumbnail"`
	DurationSeconds float64    `json:"duration"`
	ViewCount       int64      `json:"views"`
	Owner           VideoOwner `json:"owner"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
