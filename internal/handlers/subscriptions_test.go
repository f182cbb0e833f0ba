package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type inMemorySubscriptionStore struct {
	pairs map[[2]string]bool
}

func newInMemorySubscriptionStore() *inMemorySubscriptionStore {
	return &inMemorySubscriptionStore{pairs: make(map[[2]string]bool)}
}

func (s *inMemorySubscriptionStore) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	key := [2]string{subscriberID, channelID}
	if s.pairs[key] {
		delete(s.pairs, key)
		return false, nil
	}
	s.pairs[key] = true
	return true, nil
}

func TestSubscriptionHandlerToggle(t *testing.T) {
	store := newInMemoryUserStore()
	viewer := seedUser(t, store, "user-1", "grace", "grace@example.com", "password123")
	seedUser(t, store, "user-2", "ada", "ada@example.com", "password123")

	subs := newInMemorySubscriptionStore()
	handler := SubscriptionHandler{Users: store, Subscriptions: subs}

	toggle := func() (bool, int) {
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/ada", nil), viewer)
		req.SetPathValue("username", "ada")
		rec := httptest.NewRecorder()

		handler.Toggle(rec, req)

		var state subscriptionState
		env := decodeEnvelope(t, rec)
		if rec.Code == http.StatusOK {
			if err := json.Unmarshal(env.Data, &state); err != nil {
				t.Fatalf("decode data: %v", err)
			}
		}
		return state.Subscribed, rec.Code
	}

	subscribed, code := toggle()
	if code != http.StatusOK || !subscribed {
		t.Fatalf("expected first toggle to subscribe, got code=%d subscribed=%v", code, subscribed)
	}

	subscribed, code = toggle()
	if code != http.StatusOK || subscribed {
		t.Fatalf("expected second toggle to unsubscribe, got code=%d subscribed=%v", code, subscribed)
	}
}

func TestSubscriptionHandlerToggleSelf(t *testing.T) {
	store := newInMemoryUserStore()
	viewer := seedUser(t, store, "user-1", "grace", "grace@example.com", "password123")
	handler := SubscriptionHandler{Users: store, Subscriptions: newInMemorySubscriptionStore()}

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/grace", nil), viewer)
	req.SetPathValue("username", "grace")
	rec := httptest.NewRecorder()

	handler.Toggle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Message != "cannot subscribe to your own channel" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}

func TestSubscriptionHandlerToggleUnknownChannel(t *testing.T) {
	store := newInMemoryUserStore()
	viewer := seedUser(t, store, "user-1", "grace", "grace@example.com", "password123")
	handler := SubscriptionHandler{Users: store, Subscriptions: newInMemorySubscriptionStore()}

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/ghost", nil), viewer)
	req.SetPathValue("username", "ghost")
	rec := httptest.NewRecorder()

	handler.Toggle(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSubscriptionHandlerToggleUnauthenticated(t *testing.T) {
	handler := SubscriptionHandler{Users: newInMemoryUserStore(), Subscriptions: newInMemorySubscriptionStore()}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/ada", nil)
	req.SetPathValue("username", "ada")
	rec := httptest.NewRecorder()

	handler.Toggle(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}
