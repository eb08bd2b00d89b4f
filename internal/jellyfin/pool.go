package jellyfin

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// Credentials identify a server connection. Two equal Credentials share a client.
type Credentials struct {
	BaseURL     string
	APIKey      string
	AccessToken string
	DeviceName  string
	DeviceID    string
}

// Fingerprint hashes the credentials so tokens never appear as map keys or in logs.
func (c Credentials) Fingerprint() string {
	h := sha256.New()
	for _, part := range []string{strings.TrimRight(c.BaseURL, "/"), c.APIKey, c.AccessToken, c.DeviceName, c.DeviceID} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Authorize sets the client identity and token headers on req.
func (c Credentials) Authorize(req *http.Request) {
	setAuthHeaders(req.Header, c.DeviceName, c.DeviceID, pickToken(c.APIKey, c.AccessToken))
}

// Pool caches one breaker-guarded client per credential set. Only the most
// recent credentials are retained.
type Pool struct {
	mu         sync.Mutex
	clients    map[string]API
	httpClient *http.Client
	rps        float64
	breaker    BreakerSettings
	log        *slog.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolHTTPClient shares one HTTP client across pooled clients.
func WithPoolHTTPClient(hc *http.Client) PoolOption {
	return func(p *Pool) {
		p.httpClient = hc
	}
}

// WithPoolRateLimit applies a request rate limit to pooled clients.
func WithPoolRateLimit(rps float64) PoolOption {
	return func(p *Pool) {
		p.rps = rps
	}
}

// WithPoolBreaker overrides the breaker settings.
func WithPoolBreaker(s BreakerSettings) PoolOption {
	return func(p *Pool) {
		p.breaker = s
	}
}

// WithPoolLogger sets the logger handed to clients.
func WithPoolLogger(log *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.log = log
	}
}

// NewPool creates an empty pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		clients: make(map[string]API),
		breaker: DefaultBreakerSettings,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get returns the client for creds, building it on first use.
func (p *Pool) Get(creds Credentials) API {
	key := creds.Fingerprint()

	p.mu.Lock()
	defer p.mu.Unlock()

	if api, ok := p.clients[key]; ok {
		return api
	}

	opts := []Option{
		WithAPIKey(creds.APIKey),
		WithAccessToken(creds.AccessToken),
		WithDevice(creds.DeviceName, creds.DeviceID),
		WithRateLimit(p.rps),
		WithLogger(p.log),
	}
	if p.httpClient != nil {
		opts = append(opts, WithHTTPClient(p.httpClient))
	}
	api := NewBreakerClient(New(creds.BaseURL, opts...), key, p.breaker, p.log)

	clear(p.clients)
	p.clients[key] = api
	p.log.Debug("jellyfin client created", "fingerprint", key)
	return api
}

// Reset drops every cached client.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.clients)
}

// Len reports the number of cached clients.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}
