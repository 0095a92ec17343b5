package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ReliveRS/RecordNote/pkg/models"
)

// ReadOnlyStore wraps a Store and rejects every write while the isReadOnly
// callback reports true. Reads and watches pass through untouched. The
// callback is evaluated per call, so the mode can be toggled at runtime for
// maintenance windows without reconstructing the store.
type ReadOnlyStore struct {
	store      Store
	isReadOnly func() bool
}

// NewReadOnlyStore wraps store with a runtime read-only gate.
func NewReadOnlyStore(store Store, isReadOnly func() bool) *ReadOnlyStore {
	return &ReadOnlyStore{store: store, isReadOnly: isReadOnly}
}

// Unwrap returns the wrapped store.
func (s *ReadOnlyStore) Unwrap() Store { return s.store }

func (s *ReadOnlyStore) checkWrite(op string) error {
	if s.isReadOnly() {
		return fmt.Errorf("store is read-only: %s rejected", op)
	}
	return nil
}

func (s *ReadOnlyStore) CreateNote(ctx context.Context, note *models.Note) error {
	if err := s.checkWrite("CreateNote"); err != nil {
		return err
	}
	return s.store.CreateNote(ctx, note)
}

func (s *ReadOnlyStore) GetNote(ctx context.Context, id models.NoteID) (*models.Note, error) {
	return s.store.GetNote(ctx, id)
}

func (s *ReadOnlyStore) UpdateNote(ctx context.Context, note *models.Note) error {
	if err := s.checkWrite("UpdateNote"); err != nil {
		return err
	}
	return s.store.UpdateNote(ctx, note)
}

func (s *ReadOnlyStore) UpsertNote(ctx context.Context, note *models.Note) error {
	if err := s.checkWrite("UpsertNote"); err != nil {
		return err
	}
	return s.store.UpsertNote(ctx, note)
}

func (s *ReadOnlyStore) DeleteNote(ctx context.Context, id models.NoteID) error {
	if err := s.checkWrite("DeleteNote"); err != nil {
		return err
	}
	return s.store.DeleteNote(ctx, id)
}

func (s *ReadOnlyStore) ListNotes(ctx context.Context, q NoteQuery) ([]*models.Note, error) {
	return s.store.ListNotes(ctx, q)
}

func (s *ReadOnlyStore) CountNotes(ctx context.Context, q NoteQuery) (int64, error) {
	return s.store.CountNotes(ctx, q)
}

func (s *ReadOnlyStore) SetNoteFavorite(ctx context.Context, id models.NoteID, favorite bool) error {
	if err := s.checkWrite("SetNoteFavorite"); err != nil {
		return err
	}
	return s.store.SetNoteFavorite(ctx, id, favorite)
}

func (s *ReadOnlyStore) SetNoteTranscript(ctx context.Context, id models.NoteID, transcript string) error {
	if err := s.checkWrite("SetNoteTranscript"); err != nil {
		return err
	}
	return s.store.SetNoteTranscript(ctx, id, transcript)
}

func (s *ReadOnlyStore) SetNoteCategory(ctx context.Context, id models.NoteID, categoryID *models.CategoryID) error {
	if err := s.checkWrite("SetNoteCategory"); err != nil {
		return err
	}
	return s.store.SetNoteCategory(ctx, id, categoryID)
}

func (s *ReadOnlyStore) SetNoteAudio(ctx context.Context, id models.NoteID, path string, duration int64) error {
	if err := s.checkWrite("SetNoteAudio"); err != nil {
		return err
	}
	return s.store.SetNoteAudio(ctx, id, path, duration)
}

func (s *ReadOnlyStore) ClearNoteAudio(ctx context.Context, id models.NoteID) error {
	if err := s.checkWrite("ClearNoteAudio"); err != nil {
		return err
	}
	return s.store.ClearNoteAudio(ctx, id)
}

func (s *ReadOnlyStore) SetNoteColor(ctx context.Context, id models.NoteID, color string) error {
	if err := s.checkWrite("SetNoteColor"); err != nil {
		return err
	}
	return s.store.SetNoteColor(ctx, id, color)
}

func (s *ReadOnlyStore) SetNoteTags(ctx context.Context, id models.NoteID, tags models.StringList) error {
	if err := s.checkWrite("SetNoteTags"); err != nil {
		return err
	}
	return s.store.SetNoteTags(ctx, id, tags)
}

func (s *ReadOnlyStore) MarkNoteSynced(ctx context.Context, id models.NoteID, synced bool) error {
	if err := s.checkWrite("MarkNoteSynced"); err != nil {
		return err
	}
	return s.store.MarkNoteSynced(ctx, id, synced)
}

func (s *ReadOnlyStore) DeleteNotes(ctx context.Context, ids []models.NoteID) error {
	if err := s.checkWrite("DeleteNotes"); err != nil {
		return err
	}
	return s.store.DeleteNotes(ctx, ids)
}

func (s *ReadOnlyStore) DeleteNotesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := s.checkWrite("DeleteNotesOlderThan"); err != nil {
		return 0, err
	}
	return s.store.DeleteNotesOlderThan(ctx, cutoff)
}

func (s *ReadOnlyStore) DeleteUnsyncedNotes(ctx context.Context) (int64, error) {
	if err := s.checkWrite("DeleteUnsyncedNotes"); err != nil {
		return 0, err
	}
	return s.store.DeleteUnsyncedNotes(ctx)
}

func (s *ReadOnlyStore) ListModifiedNoteIDs(ctx context.Context, since, until time.Time) ([]models.NoteID, error) {
	return s.store.ListModifiedNoteIDs(ctx, since, until)
}

func (s *ReadOnlyStore) TotalAudioDuration(ctx context.Context, userID models.UserID) (int64, error) {
	return s.store.TotalAudioDuration(ctx, userID)
}

func (s *ReadOnlyStore) WatchNotes(ctx context.Context, q NoteQuery) (<-chan []*models.Note, error) {
	return s.store.WatchNotes(ctx, q)
}

func (s *ReadOnlyStore) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := s.checkWrite("CreateCategory"); err != nil {
		return err
	}
	return s.store.CreateCategory(ctx, category)
}

func (s *ReadOnlyStore) GetCategory(ctx context.Context, id models.CategoryID) (*models.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *ReadOnlyStore) UpdateCategory(ctx context.Context, category *models.Category) error {
	if err := s.checkWrite("UpdateCategory"); err != nil {
		return err
	}
	return s.store.UpdateCategory(ctx, category)
}

func (s *ReadOnlyStore) DeleteCategory(ctx context.Context, id models.CategoryID) error {
	if err := s.checkWrite("DeleteCategory"); err != nil {
		return err
	}
	return s.store.DeleteCategory(ctx, id)
}

func (s *ReadOnlyStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *ReadOnlyStore) RefreshCategoryNoteCounts(ctx context.Context) error {
	if err := s.checkWrite("RefreshCategoryNoteCounts"); err != nil {
		return err
	}
	return s.store.RefreshCategoryNoteCounts(ctx)
}

func (s *ReadOnlyStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.checkWrite("CreateUser"); err != nil {
		return err
	}
	return s.store.CreateUser(ctx, user)
}

func (s *ReadOnlyStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *ReadOnlyStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

func (s *ReadOnlyStore) UpdateUser(ctx context.Context, user *models.User) error {
	if err := s.checkWrite("UpdateUser"); err != nil {
		return err
	}
	return s.store.UpdateUser(ctx, user)
}

func (s *ReadOnlyStore) DeleteUser(ctx context.Context, id models.UserID) error {
	if err := s.checkWrite("DeleteUser"); err != nil {
		return err
	}
	return s.store.DeleteUser(ctx, id)
}

func (s *ReadOnlyStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *ReadOnlyStore) SetActiveUser(ctx context.Context, id models.UserID) error {
	if err := s.checkWrite("SetActiveUser"); err != nil {
		return err
	}
	return s.store.SetActiveUser(ctx, id)
}

func (s *ReadOnlyStore) GetActiveUser(ctx context.Context) (*models.User, error) {
	return s.store.GetActiveUser(ctx)
}

func (s *ReadOnlyStore) TouchUserAccess(ctx context.Context, id models.UserID) error {
	if err := s.checkWrite("TouchUserAccess"); err != nil {
		return err
	}
	return s.store.TouchUserAccess(ctx, id)
}

func (s *ReadOnlyStore) UpdateUserPreferences(ctx context.Context, id models.UserID, prefs models.Preferences) error {
	if err := s.checkWrite("UpdateUserPreferences"); err != nil {
		return err
	}
	return s.store.UpdateUserPreferences(ctx, id, prefs)
}

func (s *ReadOnlyStore) Migrate(ctx context.Context) error {
	if err := s.checkWrite("Migrate"); err != nil {
		return err
	}
	return s.store.Migrate(ctx)
}

func (s *ReadOnlyStore) Close() error {
	return s.store.Close()
}
