// Package store defines the storage contract shared by the embedded client
// database and the service's backing database.
//
// The [Store] interface is implemented by
// [github.com/ReliveRS/RecordNote/pkg/store/gormstore] over SQLite (the
// embedded local store) and PostgreSQL (the deployed service store). Both
// sides of the sync wire therefore speak the same contract, and the
// offline-first repository composes two Stores without caring which engine
// backs them.
//
// Conventions:
//   - Point lookups return (nil, nil) when the record does not exist.
//     Callers distinguish "missing" from "failed" without sentinel errors.
//   - List operations return an empty slice, never nil.
//   - Field-update operations (favorite, transcript, category, audio,
//     color, tags) stamp ModifiedAt and clear Synced in the same statement.
//     MarkNoteSynced is the one write that touches neither.
//   - WatchNotes re-runs its query on every notes-table mutation and emits
//     the full snapshot, with no debouncing. The channel closes when the
//     context ends.
package store

import (
	"context"
	"time"

	"github.com/ReliveRS/RecordNote/pkg/models"
)

// NoteOrder selects the ordering of note list results.
type NoteOrder int

const (
	// OrderModifiedDesc is the default: most recently modified first.
	OrderModifiedDesc NoteOrder = iota
	OrderCreatedDesc
	OrderTitleAsc
)

// NoteQuery describes a note list read. The zero value selects every note
// ordered by modification time descending. Pointer fields are tri-state:
// nil means "don't filter on this".
type NoteQuery struct {
	UserID     *models.UserID
	CategoryID *models.CategoryID
	// Uncategorized selects notes with no category reference. Ignored when
	// CategoryID is set.
	Uncategorized bool
	Favorite      *bool
	HasAudio      *bool
	Transcribed   *bool
	// Unsynced selects only notes waiting for a remote write.
	Unsynced bool
	// Tag matches notes whose tag list contains the exact tag.
	Tag string
	// Search is a case-insensitive substring match across title, content,
	// and transcript.
	Search        string
	ModifiedSince *time.Time
	Order         NoteOrder
	// Limit caps the result size; zero means no limit.
	Limit int
}

// Store is the persistence contract for notes, categories, and users.
type Store interface {
	// Notes

	CreateNote(ctx context.Context, note *models.Note) error
	GetNote(ctx context.Context, id models.NoteID) (*models.Note, error)
	// UpdateNote replaces the mutable fields of an existing note, stamps
	// ModifiedAt, and clears Synced.
	UpdateNote(ctx context.Context, note *models.Note) error
	// UpsertNote writes the note exactly as given, creating or replacing the
	// row without touching timestamps or the synced flag. Used when caching
	// remote results and when applying sync batches.
	UpsertNote(ctx context.Context, note *models.Note) error
	DeleteNote(ctx context.Context, id models.NoteID) error
	ListNotes(ctx context.Context, q NoteQuery) ([]*models.Note, error)
	CountNotes(ctx context.Context, q NoteQuery) (int64, error)

	// Single-field updates. Each stamps ModifiedAt and clears Synced.

	SetNoteFavorite(ctx context.Context, id models.NoteID, favorite bool) error
	SetNoteTranscript(ctx context.Context, id models.NoteID, transcript string) error
	SetNoteCategory(ctx context.Context, id models.NoteID, categoryID *models.CategoryID) error
	SetNoteAudio(ctx context.Context, id models.NoteID, path string, duration int64) error
	ClearNoteAudio(ctx context.Context, id models.NoteID) error
	SetNoteColor(ctx context.Context, id models.NoteID, color string) error
	SetNoteTags(ctx context.Context, id models.NoteID, tags models.StringList) error

	// MarkNoteSynced records the outcome of a remote write. It does not
	// stamp ModifiedAt.
	MarkNoteSynced(ctx context.Context, id models.NoteID, synced bool) error

	// Bulk deletes.

	DeleteNotes(ctx context.Context, ids []models.NoteID) error
	DeleteNotesOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteUnsyncedNotes(ctx context.Context) (int64, error)

	// ListModifiedNoteIDs returns the IDs of notes created or modified in
	// the window [since, until], inclusive on both ends. Feeds the
	// changes-since endpoint and catch-up synchronization.
	ListModifiedNoteIDs(ctx context.Context, since, until time.Time) ([]models.NoteID, error)

	// TotalAudioDuration sums the recorded seconds across a user's notes.
	TotalAudioDuration(ctx context.Context, userID models.UserID) (int64, error)

	// WatchNotes emits the query result immediately and again after every
	// notes-table mutation until ctx ends.
	WatchNotes(ctx context.Context, q NoteQuery) (<-chan []*models.Note, error)

	// Categories

	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id models.CategoryID) (*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	// DeleteCategory removes the category and nulls the category reference
	// on dependent notes. Notes are never deleted with their category.
	DeleteCategory(ctx context.Context, id models.CategoryID) error
	ListCategories(ctx context.Context) ([]*models.Category, error)
	// RefreshCategoryNoteCounts recomputes every category's denormalized
	// note count from the notes table.
	RefreshCategoryNoteCounts(ctx context.Context) error

	// Users

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	// DeleteUser removes the user and cascades to every note they own.
	DeleteUser(ctx context.Context, id models.UserID) error
	ListUsers(ctx context.Context) ([]*models.User, error)
	// SetActiveUser atomically deactivates all users and activates the
	// given one. After it returns, exactly one user row is active.
	SetActiveUser(ctx context.Context, id models.UserID) error
	GetActiveUser(ctx context.Context) (*models.User, error)
	// TouchUserAccess stamps the user's last-access time.
	TouchUserAccess(ctx context.Context, id models.UserID) error
	UpdateUserPreferences(ctx context.Context, id models.UserID, prefs models.Preferences) error

	// Lifecycle

	// Migrate creates or updates the schema.
	Migrate(ctx context.Context) error
	Close() error
}
