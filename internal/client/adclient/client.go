// Package adclient is a thin HTTP client for the ad store REST API.
package adclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"classifieds/internal/domain"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:3000"

// APIError is a non-2xx answer from the store.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ad store returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("ad store returned status %d: %s", e.StatusCode, e.Message)
}

// OwnerAds mirrors the body of GET /items/user/{userId}.
type OwnerAds struct {
	Ads     []*domain.Ad `json:"ads"`
	Message string       `json:"message,omitempty"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) List(ctx context.Context) ([]*domain.Ad, error) {
	var ads []*domain.Ad
	if err := c.do(ctx, http.MethodGet, "/items", "", nil, &ads); err != nil {
		return nil, err
	}
	return ads, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*domain.Ad, error) {
	var ad domain.Ad
	if err := c.do(ctx, http.MethodGet, "/items/"+strconv.FormatInt(id, 10), "", nil, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

func (c *Client) Create(ctx context.Context, ad *domain.Ad) (*domain.Ad, error) {
	var created domain.Ad
	if err := c.do(ctx, http.MethodPost, "/items", "", ad, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update sends patch on behalf of userID. Only the keys present in patch
// are changed; a nil value clears the field.
func (c *Client) Update(ctx context.Context, id int64, userID string, patch map[string]any) (*domain.Ad, error) {
	body := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		body[k] = v
	}
	body["userId"] = userID

	var updated domain.Ad
	if err := c.do(ctx, http.MethodPut, "/items/"+strconv.FormatInt(id, 10), userID, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) Delete(ctx context.Context, id int64, userID string) error {
	body := map[string]string{"userId": userID}
	return c.do(ctx, http.MethodDelete, "/items/"+strconv.FormatInt(id, 10), userID, body, nil)
}

func (c *Client) ListByOwner(ctx context.Context, userID string) (*OwnerAds, error) {
	var owned OwnerAds
	if err := c.do(ctx, http.MethodGet, "/items/user/"+url.PathEscape(userID), "", nil, &owned); err != nil {
		return nil, err
	}
	if owned.Ads == nil {
		owned.Ads = []*domain.Ad{}
	}
	return &owned, nil
}

// CheckUser reports whether userID is registered.
func (c *Client) CheckUser(ctx context.Context, userID string) (bool, error) {
	err := c.do(ctx, http.MethodGet, "/users/check-user", userID, nil, nil)
	if err == nil {
		return true, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

func (c *Client) do(ctx context.Context, method, path, userID string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("User-Id", userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
