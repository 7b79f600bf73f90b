package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"chirp/db"
	"chirp/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Directory is a Provider backed by the users table of the datastore.
type Directory struct {
	db *sql.DB
}

func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) GetUserList(ctx context.Context, ids []string) ([]domain.Author, error) {
	ids, err := uniqueIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Author{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, username, profile_image_url FROM users WHERE id IN ("+strings.Join(placeholders, ", ")+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	authors := make([]domain.Author, 0, len(ids))
	for rows.Next() {
		a := domain.Author{}
		if err := rows.Scan(&a.ID, &a.Username, &a.ProfileImageURL); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

func (d *Directory) GetUserByUsername(ctx context.Context, username string) (domain.Author, error) {
	a := domain.Author{}
	err := d.db.QueryRowContext(ctx,
		"SELECT id, username, profile_image_url FROM users WHERE username = $1", username).
		Scan(&a.ID, &a.Username, &a.ProfileImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Author{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Author{}, fmt.Errorf("get user %s: %w", username, err)
	}
	return a, nil
}

// Register creates a user with a bcrypt hashed password.
func (d *Directory) Register(ctx context.Context, username, password, profileImageURL string) (domain.User, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:              uuid.NewString(),
		Username:        strings.TrimSpace(username),
		ProfileImageURL: strings.TrimSpace(profileImageURL),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := user.ValidateUsername(); err != nil {
		return domain.User{}, err
	}
	if len(password) < 8 {
		return domain.User{}, &domain.ValidationError{Field: "password", Message: "Password must be 8 or more characters long."}
	}

	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(username) FROM users WHERE username = $1", user.Username).Scan(&count)
	if err != nil {
		return domain.User{}, fmt.Errorf("count users: %w", err)
	}
	if count != 0 {
		return domain.User{}, domain.ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	result, err := d.db.ExecContext(ctx,
		"INSERT INTO users (id, username, password, profile_image_url, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)",
		user.ID, user.Username, string(hashedPassword), user.ProfileImageURL, user.CreatedAt, user.UpdatedAt)
	if db.IsUniqueViolation(err) {
		// lost a race with a concurrent signup for the same name
		return domain.User{}, domain.ErrUsernameTaken
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.User{}, err
	}
	if affected == 0 {
		return domain.User{}, errors.New("user not created")
	}
	return user, nil
}

// Authenticate returns domain.ErrInvalidCredentials for an unknown username
// or a password mismatch.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user := domain.User{}
	var storedPassword string
	err := d.db.QueryRowContext(ctx,
		"SELECT id, username, password, profile_image_url, created_at, updated_at FROM users WHERE username = $1", username).
		Scan(&user.ID, &user.Username, &storedPassword, &user.ProfileImageURL, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %s: %w", username, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedPassword), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}
