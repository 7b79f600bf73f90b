// Package feed assembles posts with their authors and guards the write path.
package feed

import (
	"context"
	"fmt"
	"strings"

	"chirp/domain"
	"chirp/identity"
	"chirp/ratelimit"

	"github.com/labstack/gommon/log"
)

const DefaultFeedLimit = 100

// PostStore is the datastore as seen by the feed.
type PostStore interface {
	Create(ctx context.Context, authorID, content string) (domain.Post, error)
	Get(ctx context.Context, id string) (domain.Post, error)
	Recent(ctx context.Context, limit int) ([]domain.Post, error)
	ByAuthor(ctx context.Context, authorID string, limit int) ([]domain.Post, error)
	ByIDs(ctx context.Context, ids []string) ([]domain.Post, error)
}

// Indexer is the optional full-text index.
type Indexer interface {
	Index(p domain.Post) error
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

type Options struct {
	FeedLimit int
	MinLength int
	MaxLength int
}

type Service struct {
	posts   PostStore
	users   identity.Provider
	limiter ratelimit.Limiter
	index   Indexer
	opts    Options
}

// NewService wires the feed. index may be nil, which disables Search.
func NewService(posts PostStore, users identity.Provider, limiter ratelimit.Limiter, index Indexer, opts Options) *Service {
	if opts.FeedLimit <= 0 {
		opts.FeedLimit = DefaultFeedLimit
	}
	if opts.MinLength <= 0 {
		opts.MinLength = domain.MinContentLength
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = domain.MaxContentLength
	}
	return &Service{posts: posts, users: users, limiter: limiter, index: index, opts: opts}
}

// GetAll returns the global feed.
func (s *Service) GetAll(ctx context.Context) ([]domain.PostWithAuthor, error) {
	posts, err := s.posts.Recent(ctx, s.opts.FeedLimit)
	if err != nil {
		return nil, err
	}
	return s.attachAuthors(ctx, posts)
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.PostWithAuthor, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return domain.PostWithAuthor{}, err
	}
	joined, err := s.attachAuthors(ctx, []domain.Post{post})
	if err != nil {
		return domain.PostWithAuthor{}, err
	}
	return joined[0], nil
}

// GetByAuthor returns the feed of a single user.
func (s *Service) GetByAuthor(ctx context.Context, authorID string) ([]domain.PostWithAuthor, error) {
	posts, err := s.posts.ByAuthor(ctx, authorID, s.opts.FeedLimit)
	if err != nil {
		return nil, err
	}
	return s.attachAuthors(ctx, posts)
}

func (s *Service) GetProfile(ctx context.Context, username string) (domain.Author, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return domain.Author{}, domain.ErrNotFound
	}
	return s.users.GetUserByUsername(ctx, username)
}

// GetByUsername resolves a profile and returns it with its feed.
func (s *Service) GetByUsername(ctx context.Context, username string) (domain.Author, []domain.PostWithAuthor, error) {
	author, err := s.GetProfile(ctx, username)
	if err != nil {
		return domain.Author{}, nil, err
	}
	posts, err := s.posts.ByAuthor(ctx, author.ID, s.opts.FeedLimit)
	if err != nil {
		return domain.Author{}, nil, err
	}
	joined, err := join(posts, map[string]domain.Author{author.ID: author})
	if err != nil {
		return domain.Author{}, nil, err
	}
	return author, joined, nil
}

// Create validates content, consumes one unit of the caller's quota and
// stores the post. Invalid content consumes no quota and a denied quota
// check writes nothing.
func (s *Service) Create(ctx context.Context, authorID, content string) (domain.Post, ratelimit.Result, error) {
	if authorID == "" {
		return domain.Post{}, ratelimit.Result{}, domain.ErrUnauthorized
	}
	if err := domain.ValidateContent(content, s.opts.MinLength, s.opts.MaxLength); err != nil {
		return domain.Post{}, ratelimit.Result{}, err
	}

	quota, err := s.limiter.Limit(ctx, authorID)
	if err != nil {
		return domain.Post{}, quota, fmt.Errorf("check quota: %w", err)
	}
	if !quota.Success {
		return domain.Post{}, quota, domain.ErrTooManyRequests
	}

	post, err := s.posts.Create(ctx, authorID, content)
	if err != nil {
		return domain.Post{}, quota, err
	}

	if s.index != nil {
		if err := s.index.Index(post); err != nil {
			// the post is stored; `chirp reindex` repairs the index
			log.Warnf("index post %s: %v", post.ID, err)
		}
	}
	return post, quota, nil
}

// Search returns matching posts, newest first.
func (s *Service) Search(ctx context.Context, query string) ([]domain.PostWithAuthor, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.ValidationError{Field: "q", Message: "Search query is required."}
	}
	if s.index == nil {
		return []domain.PostWithAuthor{}, nil
	}
	ids, err := s.index.Search(ctx, query, s.opts.FeedLimit)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.attachAuthors(ctx, posts)
}

// attachAuthors looks up every distinct author in batches of at most
// identity.MaxUserList and joins them to posts, keeping the post order.
func (s *Service) attachAuthors(ctx context.Context, posts []domain.Post) ([]domain.PostWithAuthor, error) {
	if len(posts) == 0 {
		return []domain.PostWithAuthor{}, nil
	}

	seen := map[string]struct{}{}
	ids := []string{}
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		ids = append(ids, p.AuthorID)
	}

	authors := make(map[string]domain.Author, len(ids))
	for start := 0; start < len(ids); start += identity.MaxUserList {
		end := min(start+identity.MaxUserList, len(ids))
		users, err := s.users.GetUserList(ctx, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("get authors: %w", err)
		}
		for _, u := range users {
			authors[u.ID] = u
		}
	}
	return join(posts, authors)
}

func join(posts []domain.Post, authors map[string]domain.Author) ([]domain.PostWithAuthor, error) {
	out := make([]domain.PostWithAuthor, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.AuthorID]
		if !ok || author.Username == "" {
			return nil, fmt.Errorf("post %s: %w", p.ID, domain.ErrAuthorNotFound)
		}
		out = append(out, domain.PostWithAuthor{Post: p, Author: author})
	}
	return out, nil
}
