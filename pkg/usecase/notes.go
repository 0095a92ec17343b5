package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/ReliveRS/RecordNote/pkg/models"
)

// NoteRepository is the slice of the repository the note use cases need.
// *repo.Repository satisfies it.
type NoteRepository interface {
	CreateNote(ctx context.Context, note *models.Note) (*models.Note, error)
	UpdateNote(ctx context.Context, note *models.Note) (*models.Note, error)
	DeleteNote(ctx context.Context, id models.NoteID) error
	Notes(ctx context.Context, userID models.UserID) ([]*models.Note, error)
}

// Notes bundles the note-writing use cases.
type Notes struct {
	repo NoteRepository
}

// NewNotes builds the note use cases over a repository.
func NewNotes(repo NoteRepository) *Notes {
	return &Notes{repo: repo}
}

// CreateNoteInput is the raw input of the creation use case. Title and
// content are trimmed before validation.
type CreateNoteInput struct {
	Title      string
	Content    string
	UserID     models.UserID
	CategoryID *models.CategoryID
	Tags       []string
	Color      string
	AudioPath  string
	AudioDur   int64
}

func validateNoteFields(title, content string, tags []string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "must not be blank")
	}
	if len([]rune(title)) > MaxTitleLength {
		return invalid("title", "too long")
	}
	if len([]rune(content)) > MaxContentLength {
		return invalid("content", "too long")
	}
	if len(tags) > MaxTagsPerNote {
		return invalid("tags", "too many tags")
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return invalid("tags", "blank tag")
		}
		if len([]rune(tag)) > MaxTagLength {
			return invalid("tags", "tag too long")
		}
	}
	return nil
}

// Create validates the input and stores a new note through the repository.
func (n *Notes) Create(ctx context.Context, in CreateNoteInput) (*models.Note, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if err := validateNoteFields(title, content, in.Tags); err != nil {
		return nil, err
	}
	if in.UserID.IsZero() {
		return nil, invalid("userId", "owner is required")
	}

	note := &models.Note{
		Title:      title,
		Content:    content,
		UserID:     in.UserID,
		CategoryID: in.CategoryID,
		Tags:       models.StringList(in.Tags),
	}
	if in.Color != "" {
		note.Color = in.Color
	}
	if in.AudioPath != "" {
		note.AudioPath = &in.AudioPath
		note.AudioDuration = in.AudioDur
	}
	return n.repo.CreateNote(ctx, note)
}

// Update validates the mutable fields and rewrites the note.
func (n *Notes) Update(ctx context.Context, note *models.Note) (*models.Note, error) {
	note.Title = strings.TrimSpace(note.Title)
	note.Content = strings.TrimSpace(note.Content)
	if err := validateNoteFields(note.Title, note.Content, note.Tags); err != nil {
		return nil, err
	}
	if note.ID.IsZero() {
		return nil, invalid("id", "missing note id")
	}
	return n.repo.UpdateNote(ctx, note)
}

// DeleteBatch removes up to MaxBatchNotes notes, one delete at a time.
func (n *Notes) DeleteBatch(ctx context.Context, ids []models.NoteID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) > MaxBatchNotes {
		return 0, invalid("ids", "too many notes in one batch")
	}
	deleted := 0
	for _, id := range ids {
		if err := n.repo.DeleteNote(ctx, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// DeleteOlderThan removes the user's notes created more than the given
// number of days ago, looping over single deletes.
func (n *Notes) DeleteOlderThan(ctx context.Context, userID models.UserID, days int) (int, error) {
	if days <= 0 {
		return 0, invalid("days", "must be positive")
	}
	notes, err := n.repo.Notes(ctx, userID)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	deleted := 0
	for _, note := range notes {
		if note.CreatedAt.After(cutoff) {
			continue
		}
		if err := n.repo.DeleteNote(ctx, note.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
