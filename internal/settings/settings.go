// Package settings persists user preferences and server credentials in the
// local database as typed key/value pairs.
package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/shelfsync/internal/jellyfin"
	"github.com/vmunix/shelfsync/internal/library"
)

// ErrNotConfigured is returned when no server base URL has been stored.
var ErrNotConfigured = errors.New("server not configured")

// ErrUnknownKey is returned for keys outside the known set.
var ErrUnknownKey = errors.New("unknown setting")

// Keys.
const (
	KeyBaseURL          = "base_url"
	KeyUsername         = "username"
	KeyPassword         = "password"
	KeyAPIKey           = "api_key"
	KeyAccessToken      = "access_token"
	KeyUserID           = "user_id"
	KeyDeviceID         = "device_id"
	KeyDeviceName       = "device_name"
	KeyLastSync         = "last_sync_millis"
	KeyAutoSyncMode     = "auto_sync_mode"
	KeyMovieDetailsMode = "movie_details_sync_mode"
	KeyListDisplayMode  = "list_display_mode"
	KeyOfflinePosters   = "offline_posters_enabled"
	KeyMovieSortMode    = "movie_sort_mode"
	KeySeriesSortMode   = "series_sort_mode"
	KeyLibraryLastSeen  = "library_last_seen_millis"
)

// AutoSyncMode controls when the daemon triggers a sync on its own.
type AutoSyncMode string

const (
	AutoSyncOnStart AutoSyncMode = "OnStart"
	AutoSyncOnClose AutoSyncMode = "OnClose"
	AutoSyncManual  AutoSyncMode = "Manual"
)

// MovieDetailsMode bounds the movie detail pass.
type MovieDetailsMode string

const (
	DetailsAll        MovieDetailsMode = "All"
	DetailsRecentOnly MovieDetailsMode = "RecentOnly"
)

// ListDisplayMode is how list output is paginated.
type ListDisplayMode string

const (
	DisplayInfinite ListDisplayMode = "Infinite"
	DisplayPaged50  ListDisplayMode = "Paged50"
)

// definition describes a known key. A nil allowed list accepts any value.
type definition struct {
	def     string
	allowed []string
	secret  bool
}

var definitions = map[string]definition{
	KeyBaseURL:          {},
	KeyUsername:         {},
	KeyPassword:         {secret: true},
	KeyAPIKey:           {secret: true},
	KeyAccessToken:      {secret: true},
	KeyUserID:           {},
	KeyDeviceID:         {},
	KeyDeviceName:       {def: "shelfsync"},
	KeyLastSync:         {def: "0"},
	KeyAutoSyncMode:     {def: string(AutoSyncOnStart), allowed: []string{"OnStart", "OnClose", "Manual"}},
	KeyMovieDetailsMode: {def: string(DetailsAll), allowed: []string{"All", "RecentOnly"}},
	KeyListDisplayMode:  {def: string(DisplayInfinite), allowed: []string{"Infinite", "Paged50"}},
	KeyOfflinePosters:   {def: "false", allowed: []string{"true", "false"}},
	KeyMovieSortMode:    {def: string(library.SortAlphabetical), allowed: []string{"Alphabetical", "RecentlyAdded"}},
	KeySeriesSortMode:   {def: string(library.SortAlphabetical), allowed: []string{"Alphabetical", "RecentlyAdded"}},
	KeyLibraryLastSeen:  {def: "0"},
}

// Keys lists every known key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(definitions))
	for k := range definitions {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IsSecret reports whether a key holds a credential that should not be printed.
func IsSecret(key string) bool {
	return definitions[key].secret
}

// Store reads and writes settings.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a settings store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Get returns the stored value for key. ok is false when the key is unset.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

// Value returns the stored value, or the key's default when unset or when an
// enumerated value is not recognized.
func (s *Store) Value(key string) (string, error) {
	d, known := definitions[key]
	if !known {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	v, ok, err := s.Get(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return d.def, nil
	}
	if d.allowed != nil && !slices.Contains(d.allowed, v) {
		return d.def, nil
	}
	return v, nil
}

// Set stores a value. Known enumerated keys reject values outside their set.
func (s *Store) Set(key, value string) error {
	d, known := definitions[key]
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if d.allowed != nil && !slices.Contains(d.allowed, value) {
		return fmt.Errorf("invalid value %q for %s (want %s)", value, key, strings.Join(d.allowed, "|"))
	}
	return s.set(s.db, key, value)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) set(q execer, key, value string) error {
	_, err := q.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an unset key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) millis(key string) (time.Time, error) {
	v, err := s.Value(key)
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (s *Store) setMillis(key string, t time.Time) error {
	var ms int64
	if !t.IsZero() {
		ms = t.UnixMilli()
	}
	return s.set(s.db, key, strconv.FormatInt(ms, 10))
}

// LastSync returns the incremental watermark, zero when never synced.
func (s *Store) LastSync() (time.Time, error) {
	return s.millis(KeyLastSync)
}

// SetLastSync stores the watermark. A zero time resets it.
func (s *Store) SetLastSync(t time.Time) error {
	return s.setMillis(KeyLastSync, t)
}

// LibraryLastSeen returns when the user last acknowledged novelties.
func (s *Store) LibraryLastSeen() (time.Time, error) {
	return s.millis(KeyLibraryLastSeen)
}

// SetLibraryLastSeen stores the novelties watermark.
func (s *Store) SetLibraryLastSeen(t time.Time) error {
	return s.setMillis(KeyLibraryLastSeen, t)
}

// AutoSyncMode returns the auto-sync mode.
func (s *Store) AutoSyncMode() (AutoSyncMode, error) {
	v, err := s.Value(KeyAutoSyncMode)
	return AutoSyncMode(v), err
}

// MovieDetailsMode returns the movie detail pass mode.
func (s *Store) MovieDetailsMode() (MovieDetailsMode, error) {
	v, err := s.Value(KeyMovieDetailsMode)
	return MovieDetailsMode(v), err
}

// ListDisplayMode returns the list pagination mode.
func (s *Store) ListDisplayMode() (ListDisplayMode, error) {
	v, err := s.Value(KeyListDisplayMode)
	return ListDisplayMode(v), err
}

// OfflinePosters reports whether posters are downloaded for offline use.
func (s *Store) OfflinePosters() (bool, error) {
	v, err := s.Value(KeyOfflinePosters)
	return v == "true", err
}

// SetOfflinePosters toggles offline posters.
func (s *Store) SetOfflinePosters(enabled bool) error {
	return s.Set(KeyOfflinePosters, strconv.FormatBool(enabled))
}

// MovieSortMode returns the movie list order.
func (s *Store) MovieSortMode() (library.SortMode, error) {
	v, err := s.Value(KeyMovieSortMode)
	return library.SortMode(v), err
}

// SeriesSortMode returns the series list order.
func (s *Store) SeriesSortMode() (library.SortMode, error) {
	v, err := s.Value(KeySeriesSortMode)
	return library.SortMode(v), err
}

// DeviceID returns the persistent device id, generating one on first use.
func (s *Store) DeviceID() (string, error) {
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO settings (key, value, updated_at) VALUES (?, ?, ?)`,
		KeyDeviceID, uuid.NewString(), s.now().UnixMilli()); err != nil {
		return "", fmt.Errorf("init device id: %w", err)
	}
	v, _, err := s.Get(KeyDeviceID)
	return v, err
}

// ServerConfig is the stored connection to the remote server.
type ServerConfig struct {
	BaseURL     string
	Username    string
	Password    string
	APIKey      string
	AccessToken string
	UserID      string
	DeviceID    string
	DeviceName  string
}

// Credentials converts the config into the client pool key.
func (c *ServerConfig) Credentials() jellyfin.Credentials {
	return jellyfin.Credentials{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		AccessToken: c.AccessToken,
		DeviceName:  c.DeviceName,
		DeviceID:    c.DeviceID,
	}
}

// Authenticated reports whether the config can make user-scoped requests.
func (c *ServerConfig) Authenticated() bool {
	return c.UserID != "" || c.APIKey != ""
}

// ServerConfig loads the server connection, or ErrNotConfigured when no base
// URL is stored.
func (s *Store) ServerConfig() (*ServerConfig, error) {
	values := make(map[string]string)
	rows, err := s.db.Query(`SELECT key, value FROM settings WHERE key IN (?, ?, ?, ?, ?, ?, ?)`,
		KeyBaseURL, KeyUsername, KeyPassword, KeyAPIKey, KeyAccessToken, KeyUserID, KeyDeviceName)
	if err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if strings.TrimSpace(values[KeyBaseURL]) == "" {
		return nil, ErrNotConfigured
	}

	deviceID, err := s.DeviceID()
	if err != nil {
		return nil, err
	}
	deviceName := values[KeyDeviceName]
	if deviceName == "" {
		deviceName = definitions[KeyDeviceName].def
	}

	return &ServerConfig{
		BaseURL:     values[KeyBaseURL],
		Username:    values[KeyUsername],
		Password:    values[KeyPassword],
		APIKey:      values[KeyAPIKey],
		AccessToken: values[KeyAccessToken],
		UserID:      values[KeyUserID],
		DeviceID:    deviceID,
		DeviceName:  deviceName,
	}, nil
}

// SaveServer stores connection settings. A changed base URL or username
// invalidates the stored session.
func (s *Store) SaveServer(baseURL, username, password, apiKey string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prev := map[string]string{}
	for _, key := range []string{KeyBaseURL, KeyUsername} {
		var v string
		err := tx.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("get setting %s: %w", key, err)
		}
		prev[key] = v
	}

	for key, value := range map[string]string{
		KeyBaseURL:  baseURL,
		KeyUsername: username,
		KeyPassword: password,
		KeyAPIKey:   apiKey,
	} {
		if err := s.set(tx, key, value); err != nil {
			return err
		}
	}

	if prev[KeyBaseURL] != baseURL || prev[KeyUsername] != username {
		if _, err := tx.Exec(`DELETE FROM settings WHERE key IN (?, ?)`, KeyAccessToken, KeyUserID); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpdateAuth stores a session token and user id.
func (s *Store) UpdateAuth(accessToken, userID string) error {
	if err := s.set(s.db, KeyAccessToken, accessToken); err != nil {
		return err
	}
	return s.set(s.db, KeyUserID, userID)
}

// SetDeviceName stores the device name reported to the server.
func (s *Store) SetDeviceName(name string) error {
	return s.set(s.db, KeyDeviceName, name)
}
