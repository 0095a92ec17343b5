package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/ReliveRS/RecordNote/pkg/models"
	"github.com/ReliveRS/RecordNote/pkg/store"
)

// SyncPending pushes every unsynced note to the remote, one at a time.
// There is no batching, no parallelism, and no rollback: a note that fails
// is logged and left unsynced for the next sweep, and the sweep moves on.
// Returns the number of notes confirmed by the remote.
func (r *Repository) SyncPending(ctx context.Context) (int, error) {
	if r.remote == nil {
		return 0, nil
	}
	pending, err := r.local.ListNotes(ctx, store.NoteQuery{Unsynced: true})
	if err != nil {
		return 0, fmt.Errorf("failed to list unsynced notes: %w", err)
	}

	synced := 0
	for _, note := range pending {
		if _, err := r.remote.CreateNote(ctx, models.WireFromNote(note)); err != nil {
			r.log.Warn().Err(err).Str("note", note.ID.String()).Msg("sync push failed, will retry next sweep")
			continue
		}
		if err := r.local.MarkNoteSynced(ctx, note.ID, true); err != nil {
			r.log.Warn().Err(err).Str("note", note.ID.String()).Msg("failed to mark note synced")
			continue
		}
		synced++
	}
	if len(pending) > 0 {
		r.log.Info().Int("pending", len(pending)).Int("synced", synced).Msg("sync sweep finished")
	}
	return synced, nil
}

// PullChanges fetches the user's notes created or modified on the remote
// since the given instant and overwrites the matching local rows, marked
// synced. Returns the number of rows applied.
func (r *Repository) PullChanges(ctx context.Context, userID models.UserID, since time.Time) (int, error) {
	if r.remote == nil {
		return 0, nil
	}
	wires, err := r.remote.Changes(ctx, userID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch remote changes: %w", err)
	}

	applied := 0
	for _, w := range wires {
		note := w.Note()
		note.Synced = true
		if err := r.local.UpsertNote(ctx, note); err != nil {
			r.log.Warn().Err(err).Str("note", note.ID.String()).Msg("failed to apply remote change")
			continue
		}
		applied++
	}
	return applied, nil
}

// StartAutoSync runs SyncPending on a fixed interval until ctx ends. Sweep
// failures are logged; the ticker keeps going.
func (r *Repository) StartAutoSync(ctx context.Context, interval time.Duration) {
	if r.remote == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.SyncPending(ctx); err != nil {
					r.log.Warn().Err(err).Msg("auto-sync sweep failed")
				}
			}
		}
	}()
}
