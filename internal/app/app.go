// Package app wires the stores, remote client and sync engine shared by the
// CLI and the daemon.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vmunix/shelfsync/internal/config"
	"github.com/vmunix/shelfsync/internal/events"
	"github.com/vmunix/shelfsync/internal/jellyfin"
	"github.com/vmunix/shelfsync/internal/library"
	"github.com/vmunix/shelfsync/internal/migrations"
	"github.com/vmunix/shelfsync/internal/poster"
	"github.com/vmunix/shelfsync/internal/session"
	"github.com/vmunix/shelfsync/internal/settings"
	"github.com/vmunix/shelfsync/internal/syncer"
)

const httpTimeout = 60 * time.Second

// App holds the wired components.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Library  *library.Store
	Settings *settings.Store
	Events   *events.EventLog
	Bus      *events.Bus
	Clients  *jellyfin.Pool
	Posters  *poster.Resolver
	Session  *session.Service
	Engine   *syncer.Engine
	Runner   *syncer.Runner
	History  *syncer.History

	logger *slog.Logger
}

// Open opens the database, applies migrations, seeds server settings from
// cfg and builds every component.
func Open(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := OpenDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	a, err := build(cfg, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// OpenDB opens the SQLite cache at path and applies migrations.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; SQLite serializes anyway and a single connection keeps
	// :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := migrations.Apply(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func build(cfg *config.Config, db *sql.DB, logger *slog.Logger) (*App, error) {
	st := settings.NewStore(db)
	if err := SeedServer(st, cfg.Server); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: httpTimeout}
	pool := jellyfin.NewPool(
		jellyfin.WithPoolHTTPClient(httpClient),
		jellyfin.WithPoolRateLimit(cfg.Sync.RequestsPerSecond),
		jellyfin.WithPoolLogger(logger),
	)

	posters := poster.New(cfg.Posters.Dir,
		poster.WithHTTPClient(httpClient),
		poster.WithAuthorizer(func(req *http.Request) {
			if sc, err := st.ServerConfig(); err == nil {
				sc.Credentials().Authorize(req)
			}
		}),
		poster.WithLogger(logger),
	)

	lib := library.NewStore(db)
	sess := session.New(st, pool, logger)
	engine := syncer.NewEngine(sess, lib, st, posters, logger)

	eventLog := events.NewEventLog(db)
	bus := events.NewBus(eventLog, logger.With("component", "bus"))

	lastRun, err := eventLog.LastRunID()
	if err != nil {
		return nil, err
	}
	runner := syncer.NewRunner(engine, sess, bus, st, logger, syncer.WithFirstRunID(lastRun+1))

	return &App{
		Config:   cfg,
		DB:       db,
		Library:  lib,
		Settings: st,
		Events:   eventLog,
		Bus:      bus,
		Clients:  pool,
		Posters:  posters,
		Session:  sess,
		Engine:   engine,
		Runner:   runner,
		History:  syncer.NewHistory(eventLog),
		logger:   logger,
	}, nil
}

// SeedServer copies the server section of the config file into the settings
// store. An empty section leaves the stored connection untouched.
func SeedServer(st *settings.Store, sc config.ServerConfig) error {
	if strings.TrimSpace(sc.Address) == "" {
		return nil
	}
	if err := st.SaveServer(sc.BaseURL(), sc.Username, sc.Password, sc.APIKey); err != nil {
		return fmt.Errorf("seed server settings: %w", err)
	}
	if sc.DeviceName != "" {
		if err := st.SetDeviceName(sc.DeviceName); err != nil {
			return fmt.Errorf("seed device name: %w", err)
		}
	}
	return nil
}

// ClearCatalog removes cached entities and posters for scope and resets the
// incremental watermark so the next sync is a full one.
func (a *App) ClearCatalog(ctx context.Context, scope library.Scope) error {
	if err := a.Library.Clear(scope); err != nil {
		return err
	}

	var kinds []poster.Kind
	if scope.IncludesMovies() {
		kinds = append(kinds, poster.KindMovies)
	}
	if scope.IncludesSeries() {
		kinds = append(kinds, poster.KindSeries)
	}
	if err := a.Posters.Clear(kinds...); err != nil {
		return err
	}

	if err := a.Settings.SetLastSync(time.Time{}); err != nil {
		return err
	}

	return a.Bus.Publish(ctx, &events.CatalogCleared{
		BaseEvent: events.NewBaseEvent(events.EventCatalogCleared, events.EntityCatalog, 0),
		Scope:     string(scope),
	})
}

// Close cancels any running sync and releases the database.
func (a *App) Close() error {
	a.Runner.Cancel()
	a.Runner.Wait()
	_ = a.Bus.Close()
	return a.DB.Close()
}
