package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

func TestSetupSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chirp.db")

	db, err := Setup(DriverSQLite, path)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"users", "posts", "quota_hits"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1", table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	if err := Migrate(db, DriverSQLite); !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("second migrate: want ErrNoChange, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := Setup(DriverSQLite, filepath.Join(t.TempDir(), "chirp.db"))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer db.Close()

	insert := "INSERT INTO users (id, username, password, created_at, updated_at) VALUES ($1, $2, 'x', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)"
	if _, err := db.Exec(insert, "u1", "alice"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err = db.Exec(insert, "u2", "alice")
	if err == nil {
		t.Fatal("duplicate username inserted")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("want unique violation, got %v", err)
	}

	_, err = db.Exec("INSERT INTO missing_table VALUES (1)")
	if IsUniqueViolation(err) {
		t.Errorf("%v is not a unique violation", err)
	}
	if IsUniqueViolation(errors.New("boom")) {
		t.Error("plain error is not a unique violation")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "whatever"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenPostgresNeedsURL(t *testing.T) {
	if _, err := Open(DriverPostgres, ""); err == nil {
		t.Fatal("expected error for empty postgres url")
	}
}
