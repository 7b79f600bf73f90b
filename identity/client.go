package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chirp/domain"
)

// Client is a Provider talking to a remote identity provider's user API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// remoteUser is the subset of the provider's user object we read.
type remoteUser struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	ProfileImageURL  string `json:"profile_image_url"`
	ImageURL         string `json:"image_url"`
	ExternalAccounts []struct {
		Provider string `json:"provider"`
		Username string `json:"username"`
	} `json:"external_accounts"`
}

func (u remoteUser) author() domain.Author {
	a := domain.Author{
		ID:              u.ID,
		Username:        u.Username,
		ProfileImageURL: u.ProfileImageURL,
	}
	if a.ProfileImageURL == "" {
		a.ProfileImageURL = u.ImageURL
	}
	for _, ext := range u.ExternalAccounts {
		if ext.Username != "" {
			a.ExternalUsername = ext.Username
			break
		}
	}
	return a
}

func (c *Client) GetUserList(ctx context.Context, ids []string) ([]domain.Author, error) {
	ids, err := uniqueIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Author{}, nil
	}

	q := url.Values{}
	for _, id := range ids {
		q.Add("user_id", id)
	}
	q.Set("limit", strconv.Itoa(MaxUserList))

	users, err := c.listUsers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get user list: %w", err)
	}
	authors := make([]domain.Author, 0, len(users))
	for _, u := range users {
		authors = append(authors, u.author())
	}
	return authors, nil
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (domain.Author, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("limit", "1")

	users, err := c.listUsers(ctx, q)
	if err != nil {
		return domain.Author{}, fmt.Errorf("get user by username: %w", err)
	}
	if len(users) == 0 {
		return domain.Author{}, domain.ErrNotFound
	}
	return users[0].author(), nil
}

func (c *Client) listUsers(ctx context.Context, q url.Values) ([]remoteUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/users?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.secretKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var users []remoteUser
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("unmarshal users: %w", err)
	}
	return users, nil
}
