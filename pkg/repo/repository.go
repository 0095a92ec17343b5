// Package repo implements the offline-first repository that sits between
// the use-case layer and the two data sources: the embedded local store and
// the remote RecordNote service.
//
// The policy is deliberately simple and matches what the app promises the
// user:
//
//   - Reads try the remote first. On success the remote rows overwrite the
//     matching local rows (marked synced) and the remote result is
//     returned. On ANY remote error — unreachable, timeout, or a 404 —
//     the repository logs a warning and serves the local store instead.
//     The caller cannot tell which source answered.
//   - Writes hit the local store first, so live subscriptions show the
//     change immediately, then push to the remote best-effort. A remote
//     failure is logged and swallowed; the note stays unsynced and the
//     caller still sees success. A confirmed remote write flips the
//     synced flag.
//   - SyncPending sweeps unsynced notes one at a time with no batching, no
//     parallelism, and no rollback; one failure does not stop the sweep.
//
// A nil remote puts the repository in permanent offline mode; every
// operation then reads and writes the local store only.
package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ReliveRS/RecordNote/pkg/models"
	"github.com/ReliveRS/RecordNote/pkg/store"
)

// Remote is the slice of the service client the repository depends on.
// *client.Client satisfies it.
type Remote interface {
	ListNotes(ctx context.Context, userID models.UserID) ([]*models.WireNote, error)
	GetNote(ctx context.Context, id models.NoteID) (*models.WireNote, error)
	CreateNote(ctx context.Context, note *models.WireNote) (*models.WireNote, error)
	DeleteNote(ctx context.Context, id models.NoteID) error
	SearchNotes(ctx context.Context, userID models.UserID, query string) ([]*models.WireNote, error)
	NotesByTag(ctx context.Context, userID models.UserID, tag string) ([]*models.WireNote, error)
	FavoriteNotes(ctx context.Context, userID models.UserID) ([]*models.WireNote, error)
	Changes(ctx context.Context, userID models.UserID, since time.Time) ([]*models.WireNote, error)
}

// Repository orchestrates remote-first reads and local-first writes.
type Repository struct {
	local  store.Store
	remote Remote
	log    zerolog.Logger
}

// New builds a repository over the local store and an optional remote.
// Pass a nil remote to run fully offline.
func New(local store.Store, remote Remote, logger zerolog.Logger) *Repository {
	return &Repository{
		local:  local,
		remote: remote,
		log:    logger.With().Str("component", "repo").Logger(),
	}
}

// Local exposes the local store for operations with no remote counterpart
// (watches, counts, category and user management).
func (r *Repository) Local() store.Store { return r.local }

// Online reports whether a remote is configured at all. It says nothing
// about reachability.
func (r *Repository) Online() bool { return r.remote != nil }

// Notes returns all of the user's notes: from the remote when it answers,
// from the local store otherwise.
func (r *Repository) Notes(ctx context.Context, userID models.UserID) ([]*models.Note, error) {
	if r.remote != nil {
		wires, err := r.remote.ListNotes(ctx, userID)
		if err == nil {
			return r.cacheWires(ctx, wires), nil
		}
		r.log.Warn().Err(err).Msg("remote list failed, serving local store")
	}
	return r.local.ListNotes(ctx, store.NoteQuery{UserID: &userID})
}

// Note returns one note, remote-first. A miss on both sides is (nil, nil).
func (r *Repository) Note(ctx context.Context, id models.NoteID) (*models.Note, error) {
	if r.remote != nil {
		wire, err := r.remote.GetNote(ctx, id)
		if err == nil {
			note := wire.Note()
			note.Synced = true
			if err := r.local.UpsertNote(ctx, note); err != nil {
				r.log.Warn().Err(err).Str("note", id.String()).Msg("failed to cache remote note")
			}
			return note, nil
		}
		r.log.Warn().Err(err).Str("note", id.String()).Msg("remote get failed, serving local store")
	}
	return r.local.GetNote(ctx, id)
}

// SearchNotes runs a substring search, remote-first.
func (r *Repository) SearchNotes(ctx context.Context, userID models.UserID, query string) ([]*models.Note, error) {
	if r.remote != nil {
		wires, err := r.remote.SearchNotes(ctx, userID, query)
		if err == nil {
			return r.cacheWires(ctx, wires), nil
		}
		r.log.Warn().Err(err).Msg("remote search failed, serving local store")
	}
	return r.local.ListNotes(ctx, store.NoteQuery{UserID: &userID, Search: query})
}

// NotesByTag filters by tag, remote-first.
func (r *Repository) NotesByTag(ctx context.Context, userID models.UserID, tag string) ([]*models.Note, error) {
	if r.remote != nil {
		wires, err := r.remote.NotesByTag(ctx, userID, tag)
		if err == nil {
			return r.cacheWires(ctx, wires), nil
		}
		r.log.Warn().Err(err).Msg("remote tag filter failed, serving local store")
	}
	return r.local.ListNotes(ctx, store.NoteQuery{UserID: &userID, Tag: tag})
}

// FavoriteNotes filters favorites, remote-first.
func (r *Repository) FavoriteNotes(ctx context.Context, userID models.UserID) ([]*models.Note, error) {
	if r.remote != nil {
		wires, err := r.remote.FavoriteNotes(ctx, userID)
		if err == nil {
			return r.cacheWires(ctx, wires), nil
		}
		r.log.Warn().Err(err).Msg("remote favorites failed, serving local store")
	}
	fav := true
	return r.local.ListNotes(ctx, store.NoteQuery{UserID: &userID, Favorite: &fav})
}

// CreateNote stores the note locally, then pushes it best-effort. The note
// always comes back with its assigned ID; Synced reflects whether the push
// was confirmed.
func (r *Repository) CreateNote(ctx context.Context, note *models.Note) (*models.Note, error) {
	if err := r.local.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to store note: %w", err)
	}
	r.pushNote(ctx, note.ID)
	return r.local.GetNote(ctx, note.ID)
}

// UpdateNote rewrites the note locally, then pushes it best-effort.
func (r *Repository) UpdateNote(ctx context.Context, note *models.Note) (*models.Note, error) {
	if err := r.local.UpdateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	r.pushNote(ctx, note.ID)
	return r.local.GetNote(ctx, note.ID)
}

// DeleteNote removes the note locally, then tells the remote best-effort.
// An unreachable remote leaves a dangling remote row; the source behaves
// the same way.
func (r *Repository) DeleteNote(ctx context.Context, id models.NoteID) error {
	if err := r.local.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if r.remote != nil {
		if err := r.remote.DeleteNote(ctx, id); err != nil {
			r.log.Warn().Err(err).Str("note", id.String()).Msg("remote delete failed")
		}
	}
	return nil
}

// SetFavorite toggles the favorite flag locally, then pushes best-effort.
func (r *Repository) SetFavorite(ctx context.Context, id models.NoteID, favorite bool) error {
	return r.mutate(ctx, id, func() error {
		return r.local.SetNoteFavorite(ctx, id, favorite)
	})
}

// SetTranscript records a transcript locally, then pushes best-effort.
func (r *Repository) SetTranscript(ctx context.Context, id models.NoteID, transcript string) error {
	return r.mutate(ctx, id, func() error {
		return r.local.SetNoteTranscript(ctx, id, transcript)
	})
}

// SetCategory moves the note between categories locally, then pushes
// best-effort. The category reference itself never travels over the wire.
func (r *Repository) SetCategory(ctx context.Context, id models.NoteID, categoryID *models.CategoryID) error {
	return r.mutate(ctx, id, func() error {
		return r.local.SetNoteCategory(ctx, id, categoryID)
	})
}

// SetTags replaces the tag list locally, then pushes best-effort.
func (r *Repository) SetTags(ctx context.Context, id models.NoteID, tags models.StringList) error {
	return r.mutate(ctx, id, func() error {
		return r.local.SetNoteTags(ctx, id, tags)
	})
}

// SetColor changes the background color locally, then pushes best-effort.
func (r *Repository) SetColor(ctx context.Context, id models.NoteID, color string) error {
	return r.mutate(ctx, id, func() error {
		return r.local.SetNoteColor(ctx, id, color)
	})
}

// AttachAudio records an audio reference locally, then pushes best-effort.
func (r *Repository) AttachAudio(ctx context.Context, id models.NoteID, path string, duration int64) error {
	return r.mutate(ctx, id, func() error {
		return r.local.SetNoteAudio(ctx, id, path, duration)
	})
}

// ClearAudio drops the audio reference locally, then pushes best-effort.
func (r *Repository) ClearAudio(ctx context.Context, id models.NoteID) error {
	return r.mutate(ctx, id, func() error {
		return r.local.ClearNoteAudio(ctx, id)
	})
}

// mutate applies a local field update and then pushes the updated note.
// The local error is the only one the caller ever sees.
func (r *Repository) mutate(ctx context.Context, id models.NoteID, op func() error) error {
	if err := op(); err != nil {
		return err
	}
	r.pushNote(ctx, id)
	return nil
}

// pushNote sends the note's current local state to the remote and flips the
// synced flag on confirmation. All failures are logged and swallowed.
func (r *Repository) pushNote(ctx context.Context, id models.NoteID) {
	if r.remote == nil {
		return
	}
	note, err := r.local.GetNote(ctx, id)
	if err != nil || note == nil {
		return
	}
	if _, err := r.remote.CreateNote(ctx, models.WireFromNote(note)); err != nil {
		r.log.Warn().Err(err).Str("note", id.String()).Msg("remote push failed, note left unsynced")
		return
	}
	if err := r.local.MarkNoteSynced(ctx, id, true); err != nil {
		r.log.Warn().Err(err).Str("note", id.String()).Msg("failed to mark note synced")
	}
}

// cacheWires overwrites local rows with the remote result and returns the
// mapped notes. Caching failures are logged per note and do not affect the
// returned result.
func (r *Repository) cacheWires(ctx context.Context, wires []*models.WireNote) []*models.Note {
	notes := make([]*models.Note, 0, len(wires))
	for _, w := range wires {
		note := w.Note()
		note.Synced = true
		if err := r.local.UpsertNote(ctx, note); err != nil {
			r.log.Warn().Err(err).Str("note", note.ID.String()).Msg("failed to cache remote note")
		}
		notes = append(notes, note)
	}
	return notes
}
