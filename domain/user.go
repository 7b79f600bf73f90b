package domain

import (
	"errors"
	"time"
)

// Author is the public profile of a user as returned by the identity provider.
type Author struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	ProfileImageURL  string `json:"profile_image_url"`
	ExternalUsername string `json:"external_username,omitempty"`
}

// User is a row of the local user directory.
type User struct {
	ID              string
	Username        string
	ProfileImageURL string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u User) Author() Author {
	return Author{
		ID:              u.ID,
		Username:        u.Username,
		ProfileImageURL: u.ProfileImageURL,
	}
}

func (u User) ValidateUsername() error {
	if len(u.Username) < 3 || len(u.Username) > 32 {
		return &ValidationError{Field: "username", Message: "Username must be between 3 and 32 characters long."}
	}
	for _, r := range u.Username {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return &ValidationError{Field: "username", Message: "Username may only contain letters, digits, '-' and '_'."}
		}
	}
	return nil
}

var ErrUsernameTaken = errors.New("username already taken")
