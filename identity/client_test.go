package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chirp/domain"
)

func TestClientGetUserList(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("limit") != "100" {
			t.Errorf("limit = %q, want 100", r.URL.Query().Get("limit"))
		}
		ids := r.URL.Query()["user_id"]
		if len(ids) != 2 {
			t.Errorf("expected 2 deduplicated ids, got %v", ids)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "user_1", "username": "alice", "profile_image_url": "https://img.example/1.png"},
			{"id": "user_2", "username": "", "image_url": "https://img.example/2.png",
				"external_accounts": []map[string]string{{"provider": "oauth_github", "username": "bob-gh"}}},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL+"/", "sk_test")
	authors, err := c.GetUserList(context.Background(), []string{"user_1", "user_2", "user_1"})
	if err != nil {
		t.Fatalf("get user list: %v", err)
	}
	if len(authors) != 2 {
		t.Fatalf("expected 2 authors, got %d", len(authors))
	}
	if authors[0].Username != "alice" || authors[0].ProfileImageURL != "https://img.example/1.png" {
		t.Errorf("unexpected first author: %+v", authors[0])
	}
	if authors[1].ProfileImageURL != "https://img.example/2.png" || authors[1].ExternalUsername != "bob-gh" {
		t.Errorf("unexpected second author: %+v", authors[1])
	}
}

func TestClientGetUserByUsername(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("username") == "alice" {
			_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "user_1", "username": "alice"}})
			return
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "")
	a, err := c.GetUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if a.ID != "user_1" {
		t.Errorf("id = %q, want user_1", a.ID)
	}

	if _, err := c.GetUserByUsername(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestClientErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "sk_test")
	if _, err := c.GetUserList(context.Background(), []string{"user_1"}); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
