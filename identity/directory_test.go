package identity

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"chirp/db"
	"chirp/domain"
)

func openTestDirectory(t *testing.T) *Directory {
	t.Helper()
	conn, err := db.Setup(db.DriverSQLite, filepath.Join(t.TempDir(), "chirp.db"))
	if err != nil {
		t.Fatalf("setup db: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return NewDirectory(conn)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	d := openTestDirectory(t)
	ctx := context.Background()

	user, err := d.Register(ctx, "alice", "correct horse", "https://img.example/alice.png")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := d.Authenticate(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("id = %s, want %s", got.ID, user.ID)
	}

	if _, err := d.Authenticate(ctx, "alice", "wrong password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := d.Authenticate(ctx, "nobody", "correct horse"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown user: want ErrInvalidCredentials, got %v", err)
	}
}

func TestConcurrentRegisterSameUsername(t *testing.T) {
	d := openTestDirectory(t)

	const n = 5
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Register(context.Background(), "carol", "correct horse", "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case !errors.Is(err, domain.ErrUsernameTaken):
			t.Errorf("want ErrUsernameTaken, got %v", err)
		}
	}
	if created != 1 {
		t.Errorf("created %d users, want 1", created)
	}
}

func TestRegisterRejects(t *testing.T) {
	d := openTestDirectory(t)
	ctx := context.Background()

	if _, err := d.Register(ctx, "alice", "correct horse", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("taken", func(t *testing.T) {
		_, err := d.Register(ctx, "alice", "another password", "")
		if !errors.Is(err, domain.ErrUsernameTaken) {
			t.Fatalf("want ErrUsernameTaken, got %v", err)
		}
	})

	t.Run("short password", func(t *testing.T) {
		_, err := d.Register(ctx, "bob", "short", "")
		var verr *domain.ValidationError
		if !errors.As(err, &verr) || verr.Field != "password" {
			t.Fatalf("want password validation error, got %v", err)
		}
	})

	t.Run("bad username", func(t *testing.T) {
		_, err := d.Register(ctx, "b o b", "long enough", "")
		var verr *domain.ValidationError
		if !errors.As(err, &verr) || verr.Field != "username" {
			t.Fatalf("want username validation error, got %v", err)
		}
	})
}

func TestDirectoryLookups(t *testing.T) {
	d := openTestDirectory(t)
	ctx := context.Background()

	alice, _ := d.Register(ctx, "alice", "correct horse", "https://img.example/alice.png")
	bob, _ := d.Register(ctx, "bob", "battery staple", "")

	authors, err := d.GetUserList(ctx, []string{alice.ID, bob.ID, alice.ID, "ghost"})
	if err != nil {
		t.Fatalf("get user list: %v", err)
	}
	if len(authors) != 2 {
		t.Fatalf("expected 2 authors, got %d", len(authors))
	}
	byID := map[string]domain.Author{}
	for _, a := range authors {
		byID[a.ID] = a
	}
	if byID[alice.ID].Username != "alice" || byID[alice.ID].ProfileImageURL != "https://img.example/alice.png" {
		t.Errorf("unexpected alice: %+v", byID[alice.ID])
	}

	a, err := d.GetUserByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if a.ID != bob.ID {
		t.Errorf("id = %s, want %s", a.ID, bob.ID)
	}

	if _, err := d.GetUserByUsername(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestGetUserListLimit(t *testing.T) {
	d := openTestDirectory(t)

	ids := make([]string, MaxUserList+1)
	for i := range ids {
		ids[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	if _, err := d.GetUserList(context.Background(), ids); err == nil {
		t.Fatal("expected error above the user list limit")
	}

	empty, err := d.GetUserList(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty list: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no authors, got %d", len(empty))
	}
}
