// Package jellyfin is a client for the Jellyfin media server REST API.
package jellyfin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	clientName     = "shelfsync"
	clientVersion  = "1.0.0"
	defaultDevice  = "shelfsync"
	defaultTimeout = 30 * time.Second

	// MinDateLayout is the UTC format the server expects for MinDateLastSaved.
	MinDateLayout = "2006-01-02T15:04:05Z"

	maxErrorBody = 512
)

// API is the remote surface the sync engine and session layer depend on.
//
//go:generate mockgen -destination=../syncer/mocks/api.go -package=mocks github.com/vmunix/shelfsync/internal/jellyfin API
type API interface {
	Ping(ctx context.Context) error
	Authenticate(ctx context.Context, username, password string) (*AuthResult, error)
	ListItems(ctx context.Context, q ItemQuery) ([]Item, error)
	GetItem(ctx context.Context, userID, itemID, fields string) (*Item, error)
	ListSeasons(ctx context.Context, seriesID, userID, fields string) ([]Item, error)
	ListEpisodes(ctx context.Context, seriesID, userID, fields string) ([]Item, error)
}

// Client is a Jellyfin HTTP client.
type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	deviceName  string
	deviceID    string
	httpClient  *http.Client
	limiter     *rate.Limiter
	log         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey authenticates every request with a server API key.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithAccessToken authenticates with a user session token. An API key takes precedence.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = token
	}
}

// WithDevice sets the device name and id reported in the authorization header.
func WithDevice(name, id string) Option {
	return func(c *Client) {
		if name != "" {
			c.deviceName = name
		}
		c.deviceID = id
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		deviceName: defaultDevice,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.log = c.log.With("component", "jellyfin")
	return c
}

// BaseURL returns the server URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "System/Ping", nil, nil, nil)
}

// Authenticate logs in with a username and password.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	var resp authenticateResponse
	body := authenticateRequest{Username: username, Pw: password}
	if err := c.do(ctx, http.MethodPost, "Users/AuthenticateByName", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.User.ID == "" {
		return nil, fmt.Errorf("authenticate: incomplete response")
	}
	return &AuthResult{
		AccessToken: resp.AccessToken,
		UserID:      resp.User.ID,
		UserName:    resp.User.Name,
	}, nil
}

// ListItems queries the user's library.
func (c *Client) ListItems(ctx context.Context, q ItemQuery) ([]Item, error) {
	params := url.Values{}
	if q.IncludeItemTypes != "" {
		params.Set("IncludeItemTypes", q.IncludeItemTypes)
	}
	params.Set("Recursive", strconv.FormatBool(q.Recursive))
	if q.Fields != "" {
		params.Set("Fields", q.Fields)
	}
	if q.MinDateLastSaved != nil {
		params.Set("MinDateLastSaved", q.MinDateLastSaved.UTC().Format(MinDateLayout))
	}
	if q.Limit > 0 {
		params.Set("StartIndex", strconv.Itoa(q.StartIndex))
		params.Set("Limit", strconv.Itoa(q.Limit))
	}
	if q.SeriesID != "" {
		params.Set("SeriesId", q.SeriesID)
	}
	if q.ParentID != "" {
		params.Set("ParentId", q.ParentID)
	}

	var resp itemsResponse
	path := "Users/" + url.PathEscape(q.UserID) + "/Items"
	if err := c.do(ctx, http.MethodGet, path, params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetItem fetches a single item with the requested fields.
func (c *Client) GetItem(ctx context.Context, userID, itemID, fields string) (*Item, error) {
	params := url.Values{}
	if fields != "" {
		params.Set("Fields", fields)
	}
	var item Item
	path := "Users/" + url.PathEscape(userID) + "/Items/" + url.PathEscape(itemID)
	if err := c.do(ctx, http.MethodGet, path, params, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListSeasons lists a series' seasons through the shows endpoint.
func (c *Client) ListSeasons(ctx context.Context, seriesID, userID, fields string) ([]Item, error) {
	return c.showChildren(ctx, seriesID, "Seasons", userID, fields)
}

// ListEpisodes lists a series' episodes through the shows endpoint.
func (c *Client) ListEpisodes(ctx context.Context, seriesID, userID, fields string) ([]Item, error) {
	return c.showChildren(ctx, seriesID, "Episodes", userID, fields)
}

func (c *Client) showChildren(ctx context.Context, seriesID, kind, userID, fields string) ([]Item, error) {
	params := url.Values{}
	params.Set("userId", userID)
	if fields != "" {
		params.Set("Fields", fields)
	}
	var resp itemsResponse
	path := "Shows/" + url.PathEscape(seriesID) + "/" + kind
	if err := c.do(ctx, http.MethodGet, path, params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// AuthorizationHeader builds the X-Emby-Authorization value.
func (c *Client) AuthorizationHeader() string {
	return authorizationHeader(c.deviceName, c.deviceID)
}

func (c *Client) token() string {
	return pickToken(c.apiKey, c.accessToken)
}

func authorizationHeader(deviceName, deviceID string) string {
	if deviceName == "" {
		deviceName = defaultDevice
	}
	return fmt.Sprintf(`MediaBrowser Client=%q, Device=%q, DeviceId=%q, Version=%q`,
		clientName, deviceName, deviceID, clientVersion)
}

func pickToken(apiKey, accessToken string) string {
	if apiKey != "" {
		return apiKey
	}
	return accessToken
}

func setAuthHeaders(h http.Header, deviceName, deviceID, token string) {
	h.Set("X-Emby-Authorization", authorizationHeader(deviceName, deviceID))
	if token != "" {
		h.Set("X-Emby-Token", token)
	}
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	endpoint := c.baseURL + "/" + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	setAuthHeaders(req.Header, c.deviceName, c.deviceID, c.token())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
