// Package models defines the records shared by every layer of RecordNote:
// the local store, the REST service and its client, the offline-first
// repository, and the exporters.
//
// Three record types exist: [Note], [Category], and [User]. All of them use
// typed UUID identifiers ([NoteID], [CategoryID], [UserID]) that serialize
// as plain strings in JSON and as uuid columns in SQL, so an ID can never be
// passed where an ID of another type is expected.
//
// The same structs serve as storage records (GORM tags) and in-memory domain
// records (camelCase JSON tags). The representation exchanged with the
// remote service is different: see [WireNote] and the mapping functions in
// wire.go, which translate between the two shapes.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StringList is an ordered list of strings stored as a JSON text column.
// Used for note tags.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringList) Scan(value any) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported StringList scan type %T", value)
	}
	if len(data) == 0 {
		*s = StringList{}
		return nil
	}
	return json.Unmarshal(data, s)
}

func (StringList) GormDataType() string { return "text" }

// Audio quality levels selectable in user preferences.
const (
	AudioQualityLow    = "low"
	AudioQualityMedium = "medium"
	AudioQualityHigh   = "high"
)

// Preferences is the flat per-user settings bag. It is embedded into the
// users table with a pref_ column prefix rather than normalized into its
// own table.
type Preferences struct {
	Theme               string `gorm:"default:system" json:"theme"`
	Language            string `gorm:"default:en" json:"language"`
	AudioQuality        string `gorm:"default:medium" json:"audioQuality"`
	AutoTranscribe      bool   `json:"autoTranscribe"`
	AutoSync            bool   `json:"autoSync"`
	Notifications       bool   `json:"notifications"`
	AutoBackup          bool   `json:"autoBackup"`
	BackupFrequencyDays int    `gorm:"default:7" json:"backupFrequencyDays"`
}

// DefaultPreferences returns the settings assigned to a freshly registered
// user.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:               "system",
		Language:            "en",
		AudioQuality:        AudioQualityMedium,
		AutoTranscribe:      false,
		AutoSync:            true,
		Notifications:       true,
		AutoBackup:          false,
		BackupFrequencyDays: 7,
	}
}

// AudioBitrate maps the selected audio quality to a recording bitrate in
// kbps. Unknown values fall back to the medium bitrate.
func (p Preferences) AudioBitrate() int {
	switch p.AudioQuality {
	case AudioQualityLow:
		return 64
	case AudioQualityHigh:
		return 256
	default:
		return 128
	}
}

// BackupDue reports whether an automatic backup should run, given the time
// of the last completed backup.
func (p Preferences) BackupDue(lastBackup, now time.Time) bool {
	if !p.AutoBackup {
		return false
	}
	if lastBackup.IsZero() {
		return true
	}
	return now.Sub(lastBackup) >= time.Duration(p.BackupFrequencyDays)*24*time.Hour
}

// Note is a recorded note: free text, an optional audio attachment, an
// optional transcript, and organizational metadata.
//
// Synced tracks whether the last local mutation has been confirmed written
// to the remote service. Every mutating store operation clears it; only a
// confirmed remote write sets it.
type Note struct {
	ID            NoteID      `gorm:"type:uuid;primary_key" json:"id"`
	Title         string      `gorm:"not null" json:"title"`
	Content       string      `json:"content"`
	AudioPath     *string     `json:"audioPath,omitempty"`
	AudioDuration int64       `json:"audioDuration"`
	Transcribed   bool        `json:"transcribed"`
	Transcript    *string     `json:"transcript,omitempty"`
	CategoryID    *CategoryID `gorm:"type:uuid;index" json:"categoryId,omitempty"`
	UserID        UserID      `gorm:"type:uuid;index;not null" json:"userId"`
	Color         string      `gorm:"default:#FFFFFF" json:"color"`
	Favorite      bool        `gorm:"index" json:"favorite"`
	Tags          StringList  `gorm:"type:text" json:"tags"`
	CreatedAt     time.Time   `gorm:"index" json:"createdAt"`
	ModifiedAt    time.Time   `json:"modifiedAt"`
	Synced        bool        `json:"synced"`
}

// BeforeCreate assigns an ID and stamps both timestamps with the same
// instant. New notes always start unsynced.
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID.IsZero() {
		n.ID = NewNoteID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.ModifiedAt.IsZero() {
		n.ModifiedAt = n.CreatedAt
	}
	return nil
}

// HasAudio reports whether the note carries an audio attachment.
func (n *Note) HasAudio() bool {
	return n.AudioPath != nil && *n.AudioPath != ""
}

// IsEmpty reports whether the note has neither text content nor audio.
func (n *Note) IsEmpty() bool {
	return strings.TrimSpace(n.Title) == "" &&
		strings.TrimSpace(n.Content) == "" &&
		!n.HasAudio()
}

// NeedsSync reports whether the note is waiting for a remote write.
func (n *Note) NeedsSync() bool {
	return !n.Synced
}

// FormattedDuration renders the audio duration as MM:SS.
func (n *Note) FormattedDuration() string {
	return fmt.Sprintf("%02d:%02d", n.AudioDuration/60, n.AudioDuration%60)
}

// Summary returns the first 100 runes of the content for list displays.
func (n *Note) Summary() string {
	runes := []rune(n.Content)
	if len(runes) <= 100 {
		return n.Content
	}
	return string(runes[:100])
}

// Category groups notes. NoteCount is denormalized and only accurate after
// a RefreshCategoryNoteCounts pass; it is never maintained transactionally.
type Category struct {
	ID        CategoryID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string     `gorm:"unique;not null" json:"name"`
	Color     string     `gorm:"default:#9E9E9E" json:"color"`
	Icon      string     `gorm:"default:label" json:"icon"`
	SortOrder int        `gorm:"column:sort_order" json:"sortOrder"`
	NoteCount int64      `json:"noteCount"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID.IsZero() {
		c.ID = NewCategoryID()
	}
	if c.Icon == "" {
		c.Icon = "label"
	}
	return nil
}

// User owns notes. At most one user row has Active set; the store enforces
// the switch atomically.
type User struct {
	ID           UserID      `gorm:"type:uuid;primary_key" json:"id"`
	Name         string      `gorm:"not null" json:"name"`
	Email        string      `gorm:"unique;not null" json:"email"`
	AvatarURL    *string     `json:"avatarUrl,omitempty"`
	Phone        *string     `json:"phone,omitempty"`
	PasswordHash string      `json:"-"`
	RegisteredAt time.Time   `json:"registeredAt"`
	LastAccessAt time.Time   `json:"lastAccessAt"`
	Active       bool        `json:"active"`
	Preferences  Preferences `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID.IsZero() {
		u.ID = NewUserID()
	}
	now := time.Now()
	if u.RegisteredAt.IsZero() {
		u.RegisteredAt = now
	}
	if u.LastAccessAt.IsZero() {
		u.LastAccessAt = now
	}
	return nil
}
