// Package session validates the stored server connection and keeps the
// remote session token current.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vmunix/shelfsync/internal/jellyfin"
	"github.com/vmunix/shelfsync/internal/settings"
)

// Kind tags a ConnectionResult.
type Kind int

const (
	Success Kind = iota
	AuthFailure
	NetworkError
	UnknownError
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case AuthFailure:
		return "auth_failure"
	case NetworkError:
		return "network_error"
	case UnknownError:
		return "unknown_error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ConnectionResult is the outcome of a connection check.
type ConnectionResult struct {
	Kind    Kind
	Message string
}

// OK reports whether the result is a success.
func (r ConnectionResult) OK() bool { return r.Kind == Success }

func (r ConnectionResult) String() string {
	if r.Message == "" {
		return r.Kind.String()
	}
	return r.Kind.String() + ": " + r.Message
}

const (
	msgIncompleteConfig = "incomplete server configuration"
	msgUsernameRequired = "username required"
	msgBadCredentials   = "Auth 401: wrong username or password"
)

// Clients hands out a client for a set of credentials.
type Clients interface {
	Get(creds jellyfin.Credentials) jellyfin.API
}

// Service authenticates against and probes the configured server.
type Service struct {
	settings *settings.Store
	clients  Clients
	log      *slog.Logger
}

// New creates a session service.
func New(store *settings.Store, clients Clients, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		settings: store,
		clients:  clients,
		log:      logger.With("component", "session"),
	}
}

// Client returns a client for the stored server configuration together
// with that configuration.
func (s *Service) Client() (jellyfin.API, *settings.ServerConfig, error) {
	cfg, err := s.settings.ServerConfig()
	if err != nil {
		return nil, nil, err
	}
	return s.clients.Get(cfg.Credentials()), cfg, nil
}

// Authenticate validates the stored credentials. An API key is accepted as
// is; otherwise the username and password are exchanged for a session token
// which is persisted with the user id.
func (s *Service) Authenticate(ctx context.Context) ConnectionResult {
	api, cfg, err := s.Client()
	if err != nil {
		return s.configFailure(err)
	}
	if strings.TrimSpace(cfg.APIKey) != "" {
		return ConnectionResult{Kind: Success}
	}
	if strings.TrimSpace(cfg.Username) == "" {
		return ConnectionResult{Kind: AuthFailure, Message: msgUsernameRequired}
	}

	s.log.Debug("authenticating", "base_url", cfg.BaseURL, "username", cfg.Username)
	auth, err := api.Authenticate(ctx, cfg.Username, cfg.Password)
	if err != nil {
		if errors.Is(err, jellyfin.ErrUnauthorized) {
			return ConnectionResult{Kind: AuthFailure, Message: msgBadCredentials}
		}
		return fromFailure(jellyfin.Diagnose(err))
	}

	if err := s.settings.UpdateAuth(auth.AccessToken, auth.UserID); err != nil {
		return ConnectionResult{Kind: UnknownError, Message: err.Error()}
	}
	s.log.Info("authenticated", "username", cfg.Username, "user_id", auth.UserID)
	return ConnectionResult{Kind: Success}
}

// CheckServerStatus pings the server. Any HTTP response counts as reachable.
func (s *Service) CheckServerStatus(ctx context.Context) ConnectionResult {
	api, _, err := s.Client()
	if err != nil {
		return s.configFailure(err)
	}

	err = api.Ping(ctx)
	if err == nil {
		return ConnectionResult{Kind: Success}
	}
	if _, ok := jellyfin.IsStatus(err); ok {
		return ConnectionResult{Kind: Success}
	}
	return fromFailure(jellyfin.Diagnose(err))
}

func (s *Service) configFailure(err error) ConnectionResult {
	if errors.Is(err, settings.ErrNotConfigured) {
		return ConnectionResult{Kind: AuthFailure, Message: msgIncompleteConfig}
	}
	s.log.Error("load server config failed", "error", err)
	return ConnectionResult{Kind: UnknownError, Message: err.Error()}
}

func fromFailure(f jellyfin.Failure) ConnectionResult {
	switch f.Class {
	case jellyfin.ClassNetwork:
		return ConnectionResult{Kind: NetworkError, Message: f.Message}
	default:
		return ConnectionResult{Kind: UnknownError, Message: f.Message}
	}
}
