package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chirp/config"
	"chirp/db"
	"chirp/feed"
	"chirp/handler"
	"chirp/identity"
	"chirp/ratelimit"
	"chirp/search"
	"chirp/store"

	"github.com/golang-migrate/migrate/v4"
)

// app holds every collaborator the commands share.
type app struct {
	cfg          *config.Config
	db           *sql.DB
	posts        *store.PostStore
	directory    *identity.Directory
	users        identity.Provider
	tokens       *identity.Tokens
	limiter      ratelimit.Limiter
	index        *search.Index
	indexCreated bool
	feed         *feed.Service
}

func setupDB(cfg *config.Config) (*sql.DB, error) {
	fmt.Println("Running database schema migrations...")
	conn, err := db.Open(cfg.DB.Driver, cfg.DB.URL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn, cfg.DB.Driver); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			_ = conn.Close()
			return nil, fmt.Errorf("database schema migration: %w", err)
		}
		fmt.Println("No database schema migration ran. Database schema already in latest version")
	}
	return conn, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	conn, err := setupDB(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: conn, posts: store.NewPostStore(conn)}

	a.tokens, err = identity.NewTokens(cfg.Auth.JWTSecret)
	if err != nil {
		a.Close()
		return nil, err
	}

	switch cfg.Auth.Provider {
	case "remote":
		a.users = identity.NewClient(cfg.Auth.RemoteURL, cfg.Auth.RemoteSecretKey)
	default:
		a.directory = identity.NewDirectory(conn)
		a.users = a.directory
	}

	switch cfg.Quota.Store {
	case "database":
		a.limiter, err = ratelimit.NewSQL(conn, cfg.DB.Driver, cfg.Quota.Requests, cfg.Quota.Window.Duration)
	default:
		a.limiter, err = ratelimit.NewMemory(cfg.Quota.Requests, cfg.Quota.Window.Duration, cfg.Quota.MaxKeys)
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("quota: %w", err)
	}

	// a nil *search.Index must not end up inside the feed.Indexer interface
	var indexer feed.Indexer
	if cfg.Search.Enabled {
		a.index, a.indexCreated, err = search.Open(cfg.Search.IndexPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		if a.indexCreated {
			n, err := a.index.Rebuild(ctx, a.posts.All)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("build search index: %w", err)
			}
			fmt.Printf("Indexed %d posts\n", n)
		}
		indexer = a.index
	}

	a.feed = feed.NewService(a.posts, a.users, a.limiter, indexer, feed.Options{
		FeedLimit: cfg.Feed.Limit,
		MinLength: cfg.Feed.MinLength,
		MaxLength: cfg.Feed.MaxLength,
	})
	return a, nil
}

func (a *app) httpHandler() *handler.Handler {
	return &handler.Handler{
		Feed:         a.feed,
		Tokens:       a.tokens,
		Directory:    a.directory,
		Posts:        a.posts,
		Index:        a.index,
		EnableSignup: a.cfg.Auth.EnableSignup,
		Environment:  a.cfg.Env,
	}
}

func (a *app) Close() {
	if a.index != nil {
		_ = a.index.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
