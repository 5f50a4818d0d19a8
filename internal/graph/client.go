package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BlackMission/graphprofile/internal/domain"
)

const (
	// DefaultBaseURL is the Microsoft Graph v1.0 root.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	mePath      = "/me/"
	mePhotoPath = "/me/photo/$value"

	defaultTimeout = 10 * time.Second
	// maxPhotoBytes caps photo downloads; Graph serves at most 648x648 JPEGs.
	maxPhotoBytes = 4 << 20
)

// Config holds Graph client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls Microsoft Graph on behalf of the signed-in user.
type Client struct {
	httpClient *http.Client
	meURL      string
	photoURL   string
}

// New creates a Graph client.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		meURL:      base + mePath,
		photoURL:   base + mePhotoPath,
	}
}

// Me fetches the signed-in user's profile record.
func (c *Client) Me(ctx context.Context, accessToken string) (*domain.ProfileRecord, error) {
	resp, err := c.get(ctx, c.meURL, accessToken)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrGraphRequest, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrGraphStatus, resp.StatusCode, body)
	}

	var profile domain.ProfileRecord
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", domain.ErrGraphDecode, err)
	}
	return &profile, nil
}

// Photo fetches the signed-in user's photo. A non-OK response means the user has
// no photo and yields a nil Photo with no error.
func (c *Client) Photo(ctx context.Context, accessToken string) (*domain.Photo, error) {
	resp, err := c.get(ctx, c.photoURL, accessToken)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxPhotoBytes))
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading photo: %v", domain.ErrGraphRequest, err)
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("%w: photo exceeds %d bytes", domain.ErrGraphRequest, maxPhotoBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &domain.Photo{ContentType: contentType, Data: data}, nil
}

func (c *Client) get(ctx context.Context, url, accessToken string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating graph request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGraphRequest, err)
	}
	return resp, nil
}
