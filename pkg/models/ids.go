package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NoteID is a typed ID for notes
type NoteID struct {
	uuid uuid.UUID
}

func NewNoteID() NoteID {
	return NoteID{uuid: uuid.New()}
}

func NewNoteIDFromUUID(id uuid.UUID) NoteID {
	return NoteID{uuid: id}
}

func ParseNoteID(s string) (NoteID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NoteID{}, fmt.Errorf("invalid note ID: %w", err)
	}
	return NoteID{uuid: id}, nil
}

func (n NoteID) UUID() uuid.UUID { return n.uuid }
func (n NoteID) String() string  { return n.uuid.String() }
func (n NoteID) IsZero() bool    { return n.uuid == uuid.Nil }

func (n NoteID) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.uuid.String())
}

func (n *NoteID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	n.uuid = id
	return nil
}

func (n NoteID) Value() (driver.Value, error) {
	if n.IsZero() {
		return nil, nil
	}
	return n.uuid.String(), nil
}

func (n *NoteID) Scan(value any) error {
	return scanUUID(value, &n.uuid)
}

func (NoteID) GormDataType() string { return "uuid" }

// CategoryID is a typed ID for categories
type CategoryID struct {
	uuid uuid.UUID
}

func NewCategoryID() CategoryID {
	return CategoryID{uuid: uuid.New()}
}

func NewCategoryIDFromUUID(id uuid.UUID) CategoryID {
	return CategoryID{uuid: id}
}

func ParseCategoryID(s string) (CategoryID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CategoryID{}, fmt.Errorf("invalid category ID: %w", err)
	}
	return CategoryID{uuid: id}, nil
}

func (c CategoryID) UUID() uuid.UUID { return c.uuid }
func (c CategoryID) String() string  { return c.uuid.String() }
func (c CategoryID) IsZero() bool    { return c.uuid == uuid.Nil }

func (c CategoryID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.uuid.String())
}

func (c *CategoryID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	c.uuid = id
	return nil
}

func (c CategoryID) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return c.uuid.String(), nil
}

func (c *CategoryID) Scan(value any) error {
	return scanUUID(value, &c.uuid)
}

func (CategoryID) GormDataType() string { return "uuid" }

// UserID is a typed ID for users
type UserID struct {
	uuid uuid.UUID
}

func NewUserID() UserID {
	return UserID{uuid: uuid.New()}
}

func NewUserIDFromUUID(id uuid.UUID) UserID {
	return UserID{uuid: id}
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user ID: %w", err)
	}
	return UserID{uuid: id}, nil
}

func (u UserID) UUID() uuid.UUID { return u.uuid }
func (u UserID) String() string  { return u.uuid.String() }
func (u UserID) IsZero() bool    { return u.uuid == uuid.Nil }

func (u UserID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.uuid.String())
}

func (u *UserID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	u.uuid = id
	return nil
}

func (u UserID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.uuid.String(), nil
}

func (u *UserID) Scan(value any) error {
	return scanUUID(value, &u.uuid)
}

func (UserID) GormDataType() string { return "uuid" }

// scanUUID handles the driver value representations produced by the SQL
// drivers in use: text (sqlite, postgres uuid as string), byte slices, and
// NULL, which maps to the zero ID.
func scanUUID(value any, target *uuid.UUID) error {
	if value == nil {
		*target = uuid.Nil
		return nil
	}
	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return fmt.Errorf("failed to parse UUID %q: %w", v, err)
		}
		*target = id
	case []byte:
		id, err := uuid.Parse(string(v))
		if err != nil {
			return fmt.Errorf("failed to parse UUID %q: %w", string(v), err)
		}
		*target = id
	default:
		return fmt.Errorf("unsupported UUID scan type %T", value)
	}
	return nil
}
