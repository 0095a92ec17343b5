package models

import "time"

// WireNote is the JSON shape exchanged with the remote service. Field names
// are snake_case and timestamps are epoch milliseconds, matching the
// service's contract rather than the in-memory representation.
//
// The wire shape deliberately carries no transcript, no category reference,
// and no synced flag: those are local-only. Converting wire to storage
// leaves them at their zero values.
type WireNote struct {
	ID            NoteID     `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	AudioURL      *string    `json:"audio_url,omitempty"`
	AudioDuration int64      `json:"audio_duration"`
	Transcribed   bool       `json:"is_transcribed"`
	Color         string     `json:"background_color"`
	Favorite      bool       `json:"is_favorite"`
	Tags          StringList `json:"tags"`
	CreatedAt     int64      `json:"created_at"`
	ModifiedAt    int64      `json:"modified_at"`
	UserID        UserID     `json:"user_id"`
}

// WireFromNote converts a storage/domain note to its wire shape. The
// conversion is pure and total; local-only fields are simply not carried.
func WireFromNote(n *Note) *WireNote {
	return &WireNote{
		ID:            n.ID,
		Title:         n.Title,
		Content:       n.Content,
		AudioURL:      n.AudioPath,
		AudioDuration: n.AudioDuration,
		Transcribed:   n.Transcribed,
		Color:         n.Color,
		Favorite:      n.Favorite,
		Tags:          n.Tags,
		CreatedAt:     n.CreatedAt.UnixMilli(),
		ModifiedAt:    n.ModifiedAt.UnixMilli(),
		UserID:        n.UserID,
	}
}

// Note converts a wire note to the storage/domain shape. Transcript,
// category, and synced are absent on the wire and come back as zero values;
// the caller decides whether the row counts as synced. A zero epoch value
// maps to the zero time so that creation hooks can stamp fresh records.
func (w *WireNote) Note() *Note {
	note := &Note{
		ID:            w.ID,
		Title:         w.Title,
		Content:       w.Content,
		AudioPath:     w.AudioURL,
		AudioDuration: w.AudioDuration,
		Transcribed:   w.Transcribed,
		Color:         w.Color,
		Favorite:      w.Favorite,
		Tags:          w.Tags,
		UserID:        w.UserID,
	}
	if w.CreatedAt != 0 {
		note.CreatedAt = time.UnixMilli(w.CreatedAt).UTC()
	}
	if w.ModifiedAt != 0 {
		note.ModifiedAt = time.UnixMilli(w.ModifiedAt).UTC()
	}
	return note
}

// WiresFromNotes maps a note list to its wire shape, preserving order.
// The result is never nil.
func WiresFromNotes(notes []*Note) []*WireNote {
	wires := make([]*WireNote, 0, len(notes))
	for _, n := range notes {
		wires = append(wires, WireFromNote(n))
	}
	return wires
}

// NotesFromWires maps a wire list to storage notes, preserving order.
func NotesFromWires(wires []*WireNote) []*Note {
	notes := make([]*Note, 0, len(wires))
	for _, w := range wires {
		notes = append(notes, w.Note())
	}
	return notes
}
