package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chirp/db"
)

// SQL keeps the sliding-window log in the quota_hits table so that every
// instance sharing the datastore shares the quota.
//
// Calls for one key are serialized: on postgres by a transaction scoped
// advisory lock on the key, on sqlite by its single connection.
type SQL struct {
	db        *sql.DB
	lockQuery string
	requests  int
	window    time.Duration
	now       func() time.Time
}

func NewSQL(conn *sql.DB, driverName string, requests int, window time.Duration) (*SQL, error) {
	if err := validate(requests, window); err != nil {
		return nil, err
	}
	s := &SQL{db: conn, requests: requests, window: window, now: time.Now}
	if driverName == db.DriverPostgres {
		s.lockQuery = "SELECT pg_advisory_xact_lock(hashtext($1))"
	}
	return s, nil
}

func (s *SQL) Limit(ctx context.Context, key string) (res Result, err error) {
	res = Result{Limit: s.requests}
	now := s.now().UTC().Truncate(time.Microsecond)
	cutoff := now.Add(-s.window)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if s.lockQuery != "" {
		if _, err = tx.ExecContext(ctx, s.lockQuery, key); err != nil {
			return res, fmt.Errorf("lock quota key: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM quota_hits WHERE quota_key = $1 AND hit_at <= $2", key, cutoff); err != nil {
		return res, fmt.Errorf("expire quota hits: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT hit_at FROM quota_hits WHERE quota_key = $1 ORDER BY hit_at", key)
	if err != nil {
		return res, fmt.Errorf("query quota hits: %w", err)
	}
	var hits []time.Time
	for rows.Next() {
		var hit time.Time
		if err = rows.Scan(&hit); err != nil {
			rows.Close()
			return res, fmt.Errorf("scan quota hit: %w", err)
		}
		hits = append(hits, hit.UTC())
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return res, fmt.Errorf("query quota hits: %w", err)
	}

	if len(hits) >= s.requests {
		res.Reset = hits[0].Add(s.window)
		if err = tx.Commit(); err != nil {
			return res, fmt.Errorf("commit transaction: %w", err)
		}
		return res, nil
	}

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO quota_hits (quota_key, hit_at) VALUES ($1, $2)", key, now); err != nil {
		return res, fmt.Errorf("insert quota hit: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return res, fmt.Errorf("commit transaction: %w", err)
	}

	hits = append(hits, now)
	res.Success = true
	res.Remaining = s.requests - len(hits)
	res.Reset = hits[0].Add(s.window)
	return res, nil
}
