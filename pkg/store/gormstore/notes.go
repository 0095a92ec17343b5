package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ReliveRS/RecordNote/pkg/models"
	"github.com/ReliveRS/RecordNote/pkg/store"
)

// likeEscaper neutralizes LIKE wildcards in user-supplied values. Both
// SQLite and PostgreSQL accept ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *GormStore) CreateNote(ctx context.Context, note *models.Note) error {
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	s.noteEvents.broadcast()
	return nil
}

func (s *GormStore) GetNote(ctx context.Context, id models.NoteID) (*models.Note, error) {
	var note models.Note
	err := s.db.WithContext(ctx).First(&note, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &note, nil
}

// UpdateNote replaces the mutable fields of the row, stamps ModifiedAt, and
// clears Synced. A map is used so that zero values (cleared content, removed
// audio, favorite switched off) are written rather than skipped.
func (s *GormStore) UpdateNote(ctx context.Context, note *models.Note) error {
	res := s.db.WithContext(ctx).Model(&models.Note{}).Where("id = ?", note.ID).Updates(map[string]any{
		"title":          note.Title,
		"content":        note.Content,
		"audio_path":     note.AudioPath,
		"audio_duration": note.AudioDuration,
		"transcribed":    note.Transcribed,
		"transcript":     note.Transcript,
		"category_id":    note.CategoryID,
		"color":          note.Color,
		"favorite":       note.Favorite,
		"tags":           note.Tags,
		"modified_at":    time.Now(),
		"synced":         false,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("note %s not found", note.ID)
	}
	s.noteEvents.broadcast()
	return nil
}

// UpsertNote writes the note exactly as given, creating or replacing the
// row. Timestamps and the synced flag pass through untouched; this is how
// remote results are cached locally.
func (s *GormStore) UpsertNote(ctx context.Context, note *models.Note) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(note).Error
	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	s.noteEvents.broadcast()
	return nil
}

func (s *GormStore) DeleteNote(ctx context.Context, id models.NoteID) error {
	if err := s.db.WithContext(ctx).Delete(&models.Note{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	s.noteEvents.broadcast()
	return nil
}

func (s *GormStore) ListNotes(ctx context.Context, q store.NoteQuery) ([]*models.Note, error) {
	notes := []*models.Note{}
	db := s.applyNoteQuery(ctx, q).Order(orderClause(q.Order))
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if err := db.Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

func (s *GormStore) CountNotes(ctx context.Context, q store.NoteQuery) (int64, error) {
	var count int64
	if err := s.applyNoteQuery(ctx, q).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

func (s *GormStore) SetNoteFavorite(ctx context.Context, id models.NoteID, favorite bool) error {
	return s.updateNoteFields(ctx, id, map[string]any{"favorite": favorite})
}

func (s *GormStore) SetNoteTranscript(ctx context.Context, id models.NoteID, transcript string) error {
	return s.updateNoteFields(ctx, id, map[string]any{
		"transcript":  transcript,
		"transcribed": true,
	})
}

func (s *GormStore) SetNoteCategory(ctx context.Context, id models.NoteID, categoryID *models.CategoryID) error {
	return s.updateNoteFields(ctx, id, map[string]any{"category_id": categoryID})
}

func (s *GormStore) SetNoteAudio(ctx context.Context, id models.NoteID, path string, duration int64) error {
	return s.updateNoteFields(ctx, id, map[string]any{
		"audio_path":     path,
		"audio_duration": duration,
	})
}

func (s *GormStore) ClearNoteAudio(ctx context.Context, id models.NoteID) error {
	return s.updateNoteFields(ctx, id, map[string]any{
		"audio_path":     nil,
		"audio_duration": int64(0),
	})
}

func (s *GormStore) SetNoteColor(ctx context.Context, id models.NoteID, color string) error {
	return s.updateNoteFields(ctx, id, map[string]any{"color": color})
}

func (s *GormStore) SetNoteTags(ctx context.Context, id models.NoteID, tags models.StringList) error {
	return s.updateNoteFields(ctx, id, map[string]any{"tags": tags})
}

// updateNoteFields runs a single-row field update. Every such update stamps
// ModifiedAt and clears Synced in the same statement.
func (s *GormStore) updateNoteFields(ctx context.Context, id models.NoteID, fields map[string]any) error {
	fields["modified_at"] = time.Now()
	fields["synced"] = false
	res := s.db.WithContext(ctx).Model(&models.Note{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update note %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("note %s not found", id)
	}
	s.noteEvents.broadcast()
	return nil
}

// MarkNoteSynced records the outcome of a remote write without counting as
// a local mutation: neither ModifiedAt nor any content field changes.
func (s *GormStore) MarkNoteSynced(ctx context.Context, id models.NoteID, synced bool) error {
	res := s.db.WithContext(ctx).Model(&models.Note{}).Where("id = ?", id).Update("synced", synced)
	if res.Error != nil {
		return fmt.Errorf("failed to mark note %s synced: %w", id, res.Error)
	}
	s.noteEvents.broadcast()
	return nil
}

func (s *GormStore) DeleteNotes(ctx context.Context, ids []models.NoteID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Delete(&models.Note{}, "id IN ?", ids).Error; err != nil {
		return fmt.Errorf("failed to delete notes: %w", err)
	}
	s.noteEvents.broadcast()
	return nil
}

func (s *GormStore) DeleteNotesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&models.Note{}, "created_at < ?", cutoff)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete old notes: %w", res.Error)
	}
	s.noteEvents.broadcast()
	return res.RowsAffected, nil
}

func (s *GormStore) DeleteUnsyncedNotes(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&models.Note{}, "synced = ?", false)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete unsynced notes: %w", res.Error)
	}
	s.noteEvents.broadcast()
	return res.RowsAffected, nil
}

func (s *GormStore) ListModifiedNoteIDs(ctx context.Context, since, until time.Time) ([]models.NoteID, error) {
	ids := []models.NoteID{}
	err := s.db.WithContext(ctx).Model(&models.Note{}).
		Where("(created_at >= ? AND created_at <= ?) OR (modified_at >= ? AND modified_at <= ?)",
			since, until, since, until).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list modified note IDs: %w", err)
	}
	return ids, nil
}

func (s *GormStore) TotalAudioDuration(ctx context.Context, userID models.UserID) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Note{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(audio_duration), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum audio duration: %w", err)
	}
	return total, nil
}

func (s *GormStore) applyNoteQuery(ctx context.Context, q store.NoteQuery) *gorm.DB {
	db := s.db.WithContext(ctx).Model(&models.Note{})
	if q.UserID != nil {
		db = db.Where("user_id = ?", *q.UserID)
	}
	if q.CategoryID != nil {
		db = db.Where("category_id = ?", *q.CategoryID)
	} else if q.Uncategorized {
		db = db.Where("category_id IS NULL")
	}
	if q.Favorite != nil {
		db = db.Where("favorite = ?", *q.Favorite)
	}
	if q.HasAudio != nil {
		if *q.HasAudio {
			db = db.Where("audio_path IS NOT NULL AND audio_path <> ''")
		} else {
			db = db.Where("audio_path IS NULL OR audio_path = ''")
		}
	}
	if q.Transcribed != nil {
		db = db.Where("transcribed = ?", *q.Transcribed)
	}
	if q.Unsynced {
		db = db.Where("synced = ?", false)
	}
	if q.Tag != "" {
		// Tags are a JSON array in a text column; an exact element match is
		// a quoted substring match. The tag itself may contain LIKE
		// wildcards, so those are escaped.
		tag := likeEscaper.Replace(q.Tag)
		db = db.Where(`tags LIKE ? ESCAPE '\'`, `%"`+tag+`"%`)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where(
			"LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(COALESCE(transcript, '')) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if q.ModifiedSince != nil {
		db = db.Where("modified_at >= ?", *q.ModifiedSince)
	}
	return db
}

func orderClause(order store.NoteOrder) string {
	switch order {
	case store.OrderCreatedDesc:
		return "created_at DESC"
	case store.OrderTitleAsc:
		return "title ASC"
	default:
		return "modified_at DESC"
	}
}
