package recordnote

import (
	"context"
	"fmt"
	"time"

	"github.com/ReliveRS/RecordNote/pkg/client"
	"github.com/ReliveRS/RecordNote/pkg/models"
	"github.com/ReliveRS/RecordNote/pkg/repo"
)

// autoSyncInterval is how often the background sweep pushes unsynced notes
// while the server runs.
const autoSyncInterval = 5 * time.Minute

// startAutoSync launches the background push sweep. It runs only when a
// remote is configured and the active user has auto-sync switched on; the
// ticker stops with ctx.
func (a *App) startAutoSync(ctx context.Context) {
	if a.config.RemoteURL == "" {
		return
	}
	active, err := a.store.GetActiveUser(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to resolve active user for auto-sync")
		return
	}
	if active == nil || !active.Preferences.AutoSync {
		return
	}
	remote := client.NewClient(a.config.RemoteURL)
	repo.New(a.store, remote, a.log).StartAutoSync(ctx, autoSyncInterval)
	a.log.Info().Str("remote", a.config.RemoteURL).Dur("interval", autoSyncInterval).Msg("auto-sync started")
}

// ParseTime parses an RFC3339 string, returning the default when the string
// is empty. A malformed string is an error, not a silent default.
func ParseTime(timeStr string, defaultTime time.Time) (time.Time, error) {
	if timeStr == "" {
		return defaultTime, nil
	}
	t, err := time.Parse(time.RFC3339, timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want RFC3339): %w", timeStr, err)
	}
	return t, nil
}

// Sync runs one client-side synchronization pass: push every unsynced note
// in the local store to the configured remote, then pull remote changes for
// the requested user (or the active user when none is given) since the
// requested instant.
func (a *App) Sync(ctx context.Context, cmd *SyncCommand) error {
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	remote := client.NewClient(a.config.RemoteURL)
	repository := repo.New(a.store, remote, a.log)

	pushed, err := repository.SyncPending(ctx)
	if err != nil {
		return err
	}
	a.log.Info().Int("pushed", pushed).Msg("push sweep complete")

	userID, err := a.syncUser(ctx, cmd.User)
	if err != nil {
		return err
	}
	if userID.IsZero() {
		a.log.Info().Msg("no user for pull, skipping")
		return nil
	}

	since, err := ParseTime(cmd.Since, time.Now().Add(-24*time.Hour))
	if err != nil {
		return err
	}
	pulled, err := repository.PullChanges(ctx, userID, since)
	if err != nil {
		return err
	}
	a.log.Info().Int("pulled", pulled).Time("since", since).Msg("pull complete")
	return nil
}

// syncUser resolves the pull target: an explicit ID when given, otherwise
// the store's active user, otherwise zero (skip the pull).
func (a *App) syncUser(ctx context.Context, explicit string) (models.UserID, error) {
	if explicit != "" {
		return models.ParseUserID(explicit)
	}
	active, err := a.store.GetActiveUser(ctx)
	if err != nil {
		return models.UserID{}, err
	}
	if active == nil {
		return models.UserID{}, nil
	}
	return active.ID, nil
}
