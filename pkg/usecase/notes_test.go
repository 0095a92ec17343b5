package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ReliveRS/RecordNote/pkg/models"
)

// fakeNoteRepo records what reaches the repository. Validation failures must
// never reach it at all.
type fakeNoteRepo struct {
	created []*models.Note
	updated []*models.Note
	deleted []models.NoteID
	notes   []*models.Note
}

func (f *fakeNoteRepo) CreateNote(ctx context.Context, note *models.Note) (*models.Note, error) {
	if note.ID.IsZero() {
		note.ID = models.NewNoteID()
	}
	f.created = append(f.created, note)
	return note, nil
}

func (f *fakeNoteRepo) UpdateNote(ctx context.Context, note *models.Note) (*models.Note, error) {
	f.updated = append(f.updated, note)
	return note, nil
}

func (f *fakeNoteRepo) DeleteNote(ctx context.Context, id models.NoteID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeNoteRepo) Notes(ctx context.Context, userID models.UserID) ([]*models.Note, error) {
	return f.notes, nil
}

func TestCreateNoteValidation(t *testing.T) {
	ctx := context.Background()
	userID := models.NewUserID()

	cases := []struct {
		name  string
		in    CreateNoteInput
		field string
	}{
		{"blank title", CreateNoteInput{Title: "   ", UserID: userID}, "title"},
		{"title too long", CreateNoteInput{Title: strings.Repeat("x", MaxTitleLength+1), UserID: userID}, "title"},
		{"content too long", CreateNoteInput{Title: "t", Content: strings.Repeat("x", MaxContentLength+1), UserID: userID}, "content"},
		{"too many tags", CreateNoteInput{Title: "t", UserID: userID, Tags: make([]string, MaxTagsPerNote+1)}, "tags"},
		{"blank tag", CreateNoteInput{Title: "t", UserID: userID, Tags: []string{" "}}, "tags"},
		{"tag too long", CreateNoteInput{Title: "t", UserID: userID, Tags: []string{strings.Repeat("x", MaxTagLength+1)}}, "tags"},
		{"missing owner", CreateNoteInput{Title: "t"}, "userId"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeNoteRepo{}
			_, err := NewNotes(repo).Create(ctx, tc.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tc.field, verr.Field)
			require.Empty(t, repo.created, "rejected input must not reach the repository")
		})
	}
}

func TestCreateNoteTrimsAndDefaults(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNoteRepo{}
	notes := NewNotes(repo)

	created, err := notes.Create(ctx, CreateNoteInput{
		Title:     "  Standup  ",
		Content:   "\tnotes\n",
		UserID:    models.NewUserID(),
		Tags:      []string{"work"},
		AudioPath: "/rec/standup.m4a",
		AudioDur:  120,
	})
	require.NoError(t, err)
	require.Equal(t, "Standup", created.Title)
	require.Equal(t, "notes", created.Content)
	require.Equal(t, models.StringList{"work"}, created.Tags)
	require.True(t, created.HasAudio())
	require.EqualValues(t, 120, created.AudioDuration)
	require.Empty(t, created.Color, "color defaults at the store layer, not here")
}

func TestUpdateNoteValidation(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNoteRepo{}
	notes := NewNotes(repo)

	_, err := notes.Update(ctx, &models.Note{Title: " ", UserID: models.NewUserID()})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "title", verr.Field)

	_, err = notes.Update(ctx, &models.Note{Title: "no id", UserID: models.NewUserID()})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "id", verr.Field)
	require.Empty(t, repo.updated)

	updated, err := notes.Update(ctx, &models.Note{
		ID:     models.NewNoteID(),
		Title:  "  trimmed  ",
		UserID: models.NewUserID(),
	})
	require.NoError(t, err)
	require.Equal(t, "trimmed", updated.Title)
	require.Len(t, repo.updated, 1)
}

func TestDeleteBatch(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNoteRepo{}
	notes := NewNotes(repo)

	deleted, err := notes.DeleteBatch(ctx, nil)
	require.NoError(t, err)
	require.Zero(t, deleted)

	ids := make([]models.NoteID, MaxBatchNotes+1)
	for i := range ids {
		ids[i] = models.NewNoteID()
	}
	_, err = notes.DeleteBatch(ctx, ids)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Empty(t, repo.deleted)

	deleted, err = notes.DeleteBatch(ctx, ids[:3])
	require.NoError(t, err)
	require.Equal(t, 3, deleted)
	require.Len(t, repo.deleted, 3)
}

func TestDeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	userID := models.NewUserID()
	repo := &fakeNoteRepo{
		notes: []*models.Note{
			{ID: models.NewNoteID(), Title: "ancient", CreatedAt: time.Now().AddDate(0, 0, -40)},
			{ID: models.NewNoteID(), Title: "recent", CreatedAt: time.Now().AddDate(0, 0, -2)},
		},
	}
	notes := NewNotes(repo)

	_, err := notes.DeleteOlderThan(ctx, userID, 0)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "days", verr.Field)

	deleted, err := notes.DeleteOlderThan(ctx, userID, 30)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
	require.Equal(t, repo.notes[0].ID, repo.deleted[0])
}
