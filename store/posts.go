// Package store persists posts in the relational datastore.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chirp/domain"

	"github.com/google/uuid"
)

const DefaultLimit = 100

type PostStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db, now: time.Now}
}

// Create inserts a new post for authorID and returns the stored row.
func (s *PostStore) Create(ctx context.Context, authorID, content string) (domain.Post, error) {
	p := domain.Post{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Content:  content,
		// postgres keeps microseconds, keep both drivers comparable
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO posts (id, author_id, content, created_at) VALUES ($1, $2, $3, $4)",
		p.ID, p.AuthorID, p.Content, p.CreatedAt)
	if err != nil {
		return domain.Post{}, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

// Get returns domain.ErrNotFound when no post has the given id.
func (s *PostStore) Get(ctx context.Context, id string) (domain.Post, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, author_id, content, created_at FROM posts WHERE id = $1", id)

	p := domain.Post{}
	err := row.Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Post{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Post{}, fmt.Errorf("get post %s: %w", id, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// Recent lists the newest posts of every author.
func (s *PostStore) Recent(ctx context.Context, limit int) ([]domain.Post, error) {
	return s.list(ctx,
		"SELECT id, author_id, content, created_at FROM posts ORDER BY created_at DESC, id DESC LIMIT $1",
		normalizeLimit(limit))
}

// ByAuthor lists the newest posts written by authorID.
func (s *PostStore) ByAuthor(ctx context.Context, authorID string, limit int) ([]domain.Post, error) {
	return s.list(ctx,
		"SELECT id, author_id, content, created_at FROM posts WHERE author_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2",
		authorID, normalizeLimit(limit))
}

// ByIDs loads the given posts, newest first. Unknown ids are skipped.
func (s *PostStore) ByIDs(ctx context.Context, ids []string) ([]domain.Post, error) {
	if len(ids) == 0 {
		return []domain.Post{}, nil
	}
	query := "SELECT id, author_id, content, created_at FROM posts WHERE id IN ("
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query += ") ORDER BY created_at DESC, id DESC"
	return s.list(ctx, query, args...)
}

// All calls fn for every stored post, oldest first, stopping at the first error.
func (s *PostStore) All(ctx context.Context, fn func(domain.Post) error) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, author_id, content, created_at FROM posts ORDER BY created_at, id")
	if err != nil {
		return fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := domain.Post{}
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt); err != nil {
			return fmt.Errorf("scan post: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		if err := fn(p); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *PostStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&count)
	return count, err
}

func (s *PostStore) list(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		p := domain.Post{}
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultLimit {
		return DefaultLimit
	}
	return limit
}
