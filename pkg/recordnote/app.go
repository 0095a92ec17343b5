// Package recordnote is the RecordNote service application: configuration,
// command dispatch, the HTTP API, and the operational commands (migrate,
// sync, export) built on the same store layer the clients embed.
package recordnote

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ReliveRS/RecordNote/pkg/models"
	"github.com/ReliveRS/RecordNote/pkg/store"
	"github.com/ReliveRS/RecordNote/pkg/store/gormstore"
)

// Driver names accepted by Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration, assembled from flags, the
// environment, and an optional YAML file (see config.go).
type Config struct {
	// Storage
	Driver      string
	SQLitePath  string
	PostgresDSN string

	// Server
	ServerPort string
	ReadOnly   bool

	// RemoteURL is the service the sync command pushes to.
	RemoteURL string
}

// App holds the application state.
type App struct {
	store    store.Store
	config   *Config
	log      zerolog.Logger
	readOnly bool

	sessionMu sync.RWMutex
	sessions  map[string]*session
}

// session is an in-memory authentication session. Sessions do not survive a
// restart; clients re-authenticate and continue.
type session struct {
	user      *models.User
	expiresAt time.Time
}

// New creates the application and connects its store.
func New(config *Config) (*App, error) {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "recordnote").Logger()

	var appStore store.Store
	var err error
	switch config.Driver {
	case DriverPostgres:
		appStore, err = gormstore.OpenPostgres(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		logger.Info().Msg("connected to PostgreSQL")
	case DriverSQLite, "":
		appStore, err = gormstore.OpenSQLite(config.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite store: %w", err)
		}
		logger.Info().Str("path", config.SQLitePath).Msg("opened SQLite store")
	default:
		return nil, fmt.Errorf("unknown driver: %q", config.Driver)
	}

	app := &App{
		config:   config,
		log:      logger,
		readOnly: config.ReadOnly,
		sessions: make(map[string]*session),
	}
	app.store = store.NewReadOnlyStore(appStore, app.IsReadOnly)
	return app, nil
}

// Close closes the application and its resources.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store returns the store, still behind the read-only gate. Useful for
// tests and for commands that operate on storage directly.
func (a *App) Store() store.Store {
	return a.store
}

// SetReadOnly toggles the runtime read-only mode. While set, every write
// through the store is rejected; reads and watches keep working. Used for
// maintenance windows.
func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly = readOnly
	a.log.Info().Bool("readOnly", readOnly).Msg("read-only mode changed")
}

// IsReadOnly reports the current read-only mode. Checked by the store
// wrapper on every write, so it stays a plain field read.
func (a *App) IsReadOnly() bool {
	return a.readOnly
}

// getEnv returns the environment variable value, or the default when the
// variable is unset or empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
