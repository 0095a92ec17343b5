package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ReliveRS/RecordNote/pkg/models"
)

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, user *models.User) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"name":          user.Name,
		"email":         user.Email,
		"avatar_url":    user.AvatarURL,
		"phone":         user.Phone,
		"password_hash": user.PasswordHash,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s not found", user.ID)
	}
	return nil
}

// DeleteUser removes the user and every note they own in one transaction.
func (s *GormStore) DeleteUser(ctx context.Context, id models.UserID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Note{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.noteEvents.broadcast()
	return nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	err := s.db.WithContext(ctx).Order("registered_at ASC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SetActiveUser deactivates all users and activates the given one in a
// single transaction, so the store can never be observed with zero or two
// active users after a switch.
func (s *GormStore) SetActiveUser(ctx context.Context, id models.UserID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("active = ?", true).
			Update("active", false).Error; err != nil {
			return err
		}
		res := tx.Model(&models.User{}).Where("id = ?", id).Update("active", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %s not found", id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set active user: %w", err)
	}
	return nil
}

func (s *GormStore) GetActiveUser(ctx context.Context) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "active = ?", true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) TouchUserAccess(ctx context.Context, id models.UserID) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("last_access_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("failed to touch user access: %w", res.Error)
	}
	return nil
}

func (s *GormStore) UpdateUserPreferences(ctx context.Context, id models.UserID, prefs models.Preferences) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"pref_theme":                 prefs.Theme,
		"pref_language":              prefs.Language,
		"pref_audio_quality":         prefs.AudioQuality,
		"pref_auto_transcribe":       prefs.AutoTranscribe,
		"pref_auto_sync":             prefs.AutoSync,
		"pref_notifications":         prefs.Notifications,
		"pref_auto_backup":           prefs.AutoBackup,
		"pref_backup_frequency_days": prefs.BackupFrequencyDays,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update preferences: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s not found", id)
	}
	return nil
}
