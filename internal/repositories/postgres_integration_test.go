package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipstream/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "ada", "ada@example.com")

	dup := user
	dup.ID = uuid.NewString()
	dup.Email = "other@example.com"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	byUsername, err := repo.FindByUsernameOrEmail(ctx, "ada", "")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if byUsername.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, byUsername.ID)
	}

	byEmail, err := repo.FindByUsernameOrEmail(ctx, "", "ada@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, byEmail.ID)
	}

	if _, err := repo.FindByUsernameOrEmail(ctx, "", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty credentials, got %v", err)
	}

	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestPostgresUserRepository_RefreshTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "grace", "grace@example.com")

	if err := repo.UpdateRefreshToken(ctx, user.ID, "token-1"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}

	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.RefreshToken != "token-1" {
		t.Fatalf("expected refresh token to persist, got %q", fetched.RefreshToken)
	}

	// Clearing stores NULL, which reads back as the empty string.
	if err := repo.UpdateRefreshToken(ctx, user.ID, ""); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}

	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id after clear: %v", err)
	}
	if fetched.RefreshToken != "" {
		t.Fatalf("expected cleared refresh token, got %q", fetched.RefreshToken)
	}

	if err := repo.UpdateRefreshToken(ctx, uuid.NewString(), "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestPostgresUserRepository_Updates(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "linus", "linus@example.com")

	if err := repo.UpdatePassword(ctx, user.ID, "rotated-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	updated, err := repo.UpdateProfile(ctx, user.ID, "new@example.com", "Linus T")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Email != "new@example.com" || updated.FullName != "Linus T" {
		t.Fatalf("expected updated profile, got %+v", updated)
	}
	if updated.Password != "rotated-hash" {
		t.Fatalf("expected rotated password hash, got %q", updated.Password)
	}

	updated, err = repo.UpdateAvatarURL(ctx, user.ID, "https://cdn.example.com/new-avatar.png")
	if err != nil {
		t.Fatalf("update avatar url: %v", err)
	}
	if updated.AvatarURL != "https://cdn.example.com/new-avatar.png" {
		t.Fatalf("expected new avatar url, got %q", updated.AvatarURL)
	}

	updated, err = repo.UpdateCoverImageURL(ctx, user.ID, "https://cdn.example.com/new-cover.png")
	if err != nil {
		t.Fatalf("update cover image url: %v", err)
	}
	if updated.CoverImageURL != "https://cdn.example.com/new-cover.png" {
		t.Fatalf("expected new cover image url, got %q", updated.CoverImageURL)
	}

	other := createTestUser(t, repo, "other", "other@example.com")
	if _, err := repo.UpdateProfile(ctx, other.ID, "new@example.com", "Clash"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestPostgresProfileRepository_GetChannelProfile(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	subRepo := NewPostgresSubscriptionRepository(testPool)
	profileRepo := NewPostgresProfileRepository(testPool)

	channel := createTestUser(t, userRepo, "channel", "channel@example.com")
	viewer := createTestUser(t, userRepo, "viewer", "viewer@example.com")
	fanOne := createTestUser(t, userRepo, "fan1", "fan1@example.com")
	fanTwo := createTestUser(t, userRepo, "fan2", "fan2@example.com")
	followedOne := createTestUser(t, userRepo, "followed1", "followed1@example.com")
	followedTwo := createTestUser(t, userRepo, "followed2", "followed2@example.com")

	for _, subscriber := range []models.User{viewer, fanOne, fanTwo} {
		if _, err := subRepo.Toggle(ctx, subscriber.ID, channel.ID); err != nil {
			t.Fatalf("subscribe %s: %v", subscriber.Username, err)
		}
	}
	for _, followed := range []models.User{followedOne, followedTwo} {
		if _, err := subRepo.Toggle(ctx, channel.ID, followed.ID); err != nil {
			t.Fatalf("channel subscribes to %s: %v", followed.Username, err)
		}
	}

	profile, err := profileRepo.GetChannelProfile(ctx, "channel", viewer.ID)
	if err != nil {
		t.Fatalf("get channel profile: %v", err)
	}

	if profile.SubscribersCount != 3 {
		t.Fatalf("expected 3 subscribers, got %d", profile.SubscribersCount)
	}
	if profile.SubscribedToCount != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", profile.SubscribedToCount)
	}
	if !profile.IsSubscribed {
		t.Fatal("expected viewer to be subscribed")
	}

	// Anonymous viewers never count as subscribed.
	profile, err = profileRepo.GetChannelProfile(ctx, "channel", "")
	if err != nil {
		t.Fatalf("get channel profile anonymously: %v", err)
	}
	if profile.IsSubscribed {
		t.Fatal("expected anonymous viewer to not be subscribed")
	}

	if _, err := profileRepo.GetChannelProfile(ctx, "ghost", viewer.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown channel, got %v", err)
	}
}

func TestPostgresProfileRepository_GetWatchHistory(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	profileRepo := NewPostgresProfileRepository(testPool)

	owner := createTestUser(t, userRepo, "owner", "owner@example.com")
	viewer := createTestUser(t, userRepo, "watcher", "watcher@example.com")

	first := createTestVideo(t, owner.ID, "First Video")
	second := createTestVideo(t, owner.ID, "Second Video")

	// Insert out of order; position must win.
	addWatchEntry(t, viewer.ID, second, 2)
	addWatchEntry(t, viewer.ID, first, 1)

	history, err := profileRepo.GetWatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("get watch history: %v", err)
	}

	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].ID != first || history[1].ID != second {
		t.Fatalf("expected history ordered by position, got %+v", history)
	}
	if history[0].Owner.Username != "owner" || history[0].Owner.FullName == "" {
		t.Fatalf("expected owner projection, got %+v", history[0].Owner)
	}

	empty, err := profileRepo.GetWatchHistory(ctx, owner.ID)
	if err != nil {
		t.Fatalf("get empty watch history: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil history, got %v", empty)
	}
}

func TestPostgresSubscriptionRepository_Toggle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	subRepo := NewPostgresSubscriptionRepository(testPool)

	subscriber := createTestUser(t, userRepo, "sub", "sub@example.com")
	channel := createTestUser(t, userRepo, "chan", "chan@example.com")

	subscribed, err := subRepo.Toggle(ctx, subscriber.ID, channel.ID)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !subscribed {
		t.Fatal("expected first toggle to subscribe")
	}

	subscribed, err = subRepo.Toggle(ctx, subscriber.ID, channel.ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if subscribed {
		t.Fatal("expected second toggle to unsubscribe")
	}

	if _, err := subRepo.Toggle(ctx, subscriber.ID, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown channel, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE watch_history, subscriptions, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username, email string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		FullName:  "Test " + username,
		Password:  "password-hash",
		AvatarURL: "https://cdn.example.com/" + username + ".png",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, ownerID, title string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := testPool.Exec(context.Background(), `
        INSERT INTO videos (id, owner_id, title, description, video_file_url, thumbnail_url, duration_seconds, view_count)
        VALUES ($1, $2, $3, '', $4, '', 120.5, 10)
    `, id, ownerID, title, "https://cdn.example.com/videos/"+id+".mp4")
	if err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return id
}

func addWatchEntry(t *testing.T, userID, videoID string, position int) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `
        INSERT INTO watch_history (user_id, video_id, position)
        VALUES ($1, $2, $3)
    `, userID, videoID, position)
	if err != nil {
		t.Fatalf("add watch entry: %v", err)
	}
}
