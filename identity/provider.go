// Package identity resolves callers and author profiles.
package identity

import (
	"context"
	"fmt"

	"chirp/domain"
)

// MaxUserList is the largest number of ids a single GetUserList call accepts.
const MaxUserList = 100

// Provider is the read side of an identity provider.
type Provider interface {
	// GetUserList returns the profiles of the given ids. Unknown ids are
	// absent from the result; the order of the result is unspecified.
	GetUserList(ctx context.Context, ids []string) ([]domain.Author, error)
	// GetUserByUsername returns domain.ErrNotFound for unknown usernames.
	GetUserByUsername(ctx context.Context, username string) (domain.Author, error)
}

// uniqueIDs drops empty and repeated ids and enforces MaxUserList.
func uniqueIDs(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) > MaxUserList {
		return nil, fmt.Errorf("user list of %d ids exceeds limit of %d", len(out), MaxUserList)
	}
	return out, nil
}
