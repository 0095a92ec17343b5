package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWireFromNoteRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	modified := created.Add(2 * time.Hour)
	note := &Note{
		ID:            NewNoteID(),
		Title:         "Standup notes",
		Content:       "Discussed the release.",
		AudioPath:     strPtr("https://cdn.example.com/a.m4a"),
		AudioDuration: 95,
		Transcribed:   true,
		Transcript:    strPtr("discussed the release"),
		Color:         "#FFEE58",
		Favorite:      true,
		Tags:          StringList{"work", "meetings"},
		CreatedAt:     created,
		ModifiedAt:    modified,
		UserID:        NewUserID(),
		Synced:        true,
	}

	back := WireFromNote(note).Note()

	// Everything the wire carries survives the round trip.
	require.Equal(t, note.ID, back.ID)
	require.Equal(t, note.Title, back.Title)
	require.Equal(t, note.Content, back.Content)
	require.Equal(t, note.AudioPath, back.AudioPath)
	require.Equal(t, note.AudioDuration, back.AudioDuration)
	require.Equal(t, note.Transcribed, back.Transcribed)
	require.Equal(t, note.Color, back.Color)
	require.Equal(t, note.Favorite, back.Favorite)
	require.Equal(t, note.Tags, back.Tags)
	require.Equal(t, note.UserID, back.UserID)
	require.True(t, note.CreatedAt.Equal(back.CreatedAt))
	require.True(t, note.ModifiedAt.Equal(back.ModifiedAt))

	// Local-only fields never travel and come back zero.
	require.Nil(t, back.Transcript)
	require.Nil(t, back.CategoryID)
	require.False(t, back.Synced)
}

func TestWireNoteZeroTimestamps(t *testing.T) {
	// A zero epoch means "not set", not 1970: creation hooks must still be
	// able to stamp the record.
	w := &WireNote{ID: NewNoteID(), Title: "fresh", UserID: NewUserID()}
	note := w.Note()
	require.True(t, note.CreatedAt.IsZero())
	require.True(t, note.ModifiedAt.IsZero())
}

func TestWireNoteJSONFieldNames(t *testing.T) {
	note := &Note{
		ID:            NewNoteID(),
		Title:         "Field check",
		AudioPath:     strPtr("x.m4a"),
		AudioDuration: 3,
		Transcribed:   true,
		Color:         "#FFFFFF",
		Favorite:      true,
		CreatedAt:     time.UnixMilli(1700000000000).UTC(),
		ModifiedAt:    time.UnixMilli(1700000001000).UTC(),
		UserID:        NewUserID(),
	}

	data, err := json.Marshal(WireFromNote(note))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{
		"id", "title", "content", "audio_url", "audio_duration",
		"is_transcribed", "background_color", "is_favorite", "tags",
		"created_at", "modified_at", "user_id",
	} {
		require.Contains(t, raw, key)
	}
	require.EqualValues(t, 1700000000000, raw["created_at"])
	require.NotContains(t, raw, "transcript")
	require.NotContains(t, raw, "synced")
	require.NotContains(t, raw, "category_id")
}

func TestWiresFromNotesNeverNil(t *testing.T) {
	require.NotNil(t, WiresFromNotes(nil))
	require.Empty(t, WiresFromNotes(nil))

	notes := NotesFromWires([]*WireNote{{ID: NewNoteID(), Title: "a"}, {ID: NewNoteID(), Title: "b"}})
	require.Len(t, notes, 2)
	require.Equal(t, "a", notes[0].Title)
	require.Equal(t, "b", notes[1].Title)
}
