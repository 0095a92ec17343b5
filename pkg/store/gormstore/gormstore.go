// Package gormstore implements the store contract over GORM.
//
// Two engines are supported through the same implementation: SQLite for the
// embedded client-side store (the file lives next to the app data) and
// PostgreSQL for the deployed service. Schema is managed with AutoMigrate;
// the notes table carries indices on category id, user id, the favorite
// flag, and the creation date.
//
// Live subscriptions are backed by an in-process notification hub: every
// successful write to the notes table signals all active watchers, and each
// watcher re-runs its query and emits a fresh snapshot. Notifications do not
// cross process boundaries; the service exposes the same semantics over a
// WebSocket instead.
package gormstore

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ReliveRS/RecordNote/pkg/models"
	"github.com/ReliveRS/RecordNote/pkg/store"
)

// GormStore implements store.Store over a gorm.DB handle.
type GormStore struct {
	db         *gorm.DB
	noteEvents *notifier
}

// New wraps an existing GORM handle. Most callers want OpenSQLite or
// OpenPostgres instead.
func New(db *gorm.DB) *GormStore {
	return &GormStore{
		db:         db,
		noteEvents: newNotifier(),
	}
}

// OpenSQLite opens the embedded store at path, creating the file if needed.
// Foreign key enforcement is switched on; SQLite ships with it off.
func OpenSQLite(path string) (*GormStore, error) {
	dsn := fmt.Sprintf("file:%s?_fk=1", path)
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared&_fk=1"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store at %s: %w", path, err)
	}
	return New(db), nil
}

// OpenPostgres connects to the service database.
func OpenPostgres(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return New(db), nil
}

// Migrate creates or updates the schema for all three record types.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Note{},
	)
}

// Close releases the underlying database handle.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the underlying handle for tests.
func (s *GormStore) DB() *gorm.DB { return s.db }

// WatchNotes emits the query result immediately and again after every
// notes-table write until ctx ends. Rapid successive writes may coalesce
// into one re-query; every watcher always converges on the latest state.
func (s *GormStore) WatchNotes(ctx context.Context, q store.NoteQuery) (<-chan []*models.Note, error) {
	out := make(chan []*models.Note, 1)
	id, signal := s.noteEvents.subscribe()

	go func() {
		defer close(out)
		defer s.noteEvents.unsubscribe(id)
		for {
			notes, err := s.ListNotes(ctx, q)
			if err == nil {
				select {
				case out <- notes:
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-signal:
			}
		}
	}()

	return out, nil
}

// notifier fans a "something changed" signal out to subscribers. Each
// subscriber gets a buffered channel of one; signals sent while the
// subscriber is busy coalesce.
type notifier struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]chan struct{})}
}

func (n *notifier) subscribe() (int, <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch
	return id, ch
}

func (n *notifier) unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

func (n *notifier) broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
