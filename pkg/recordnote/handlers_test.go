package recordnote

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ReliveRS/RecordNote/pkg/client"
	"github.com/ReliveRS/RecordNote/pkg/models"
)

// newTestApp stands up a full application on a temp SQLite store and mounts
// it on an httptest server. Tests drive it through the real API client, so
// both sides of the wire contract are exercised together.
func newTestApp(t *testing.T) (*App, *client.Client) {
	t.Helper()
	app, err := New(&Config{
		Driver:     DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "app.db"),
		ServerPort: "0",
	})
	require.NoError(t, err)
	require.NoError(t, app.Store().Migrate(context.Background()))

	srv := httptest.NewServer(app.Router())
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})
	return app, client.NewClient(srv.URL)
}

func signUpTestUser(t *testing.T, c *client.Client, email string) *client.AuthResponse {
	t.Helper()
	auth, err := c.SignUp(context.Background(), "Test User", email, "secret1")
	require.NoError(t, err)
	require.NotNil(t, auth.User)
	return auth
}

func wireNote(userID models.UserID, title string) *models.WireNote {
	return &models.WireNote{Title: title, Content: "content of " + title, UserID: userID}
}

func TestHealthEndpoint(t *testing.T) {
	_, c := newTestApp(t)
	health, err := c.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", health["status"])
	require.Equal(t, DriverSQLite, health["driver"])
}

func TestAuthFlow(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t)

	auth := signUpTestUser(t, c, "ada@example.com")
	require.NotEmpty(t, auth.Token)
	require.Equal(t, auth.Token, c.AuthToken(), "sign-up stores the token on the client")
	require.True(t, auth.ExpiresAt.After(time.Now()))
	require.Equal(t, "ada@example.com", auth.User.Email)
	require.Equal(t, models.DefaultPreferences(), auth.User.Preferences)

	_, err := c.SignUp(ctx, "Imposter", "ada@example.com", "other-pass")
	require.Error(t, err)
	require.Contains(t, err.Error(), "409")

	me, err := c.GetCurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, auth.User.ID, me.ID)

	// Refresh invalidates the old token and issues a new one.
	oldToken := c.AuthToken()
	refreshed, err := c.RefreshToken(ctx)
	require.NoError(t, err)
	require.NotEqual(t, oldToken, refreshed.Token)

	stale := client.NewClient(c.BaseURL())
	stale.SetAuthToken(oldToken)
	_, err = stale.GetCurrentUser(ctx)
	require.Error(t, err, "the replaced token is dead")

	require.NoError(t, c.SignOut(ctx))
	require.Empty(t, c.AuthToken())
	_, err = c.GetCurrentUser(ctx)
	require.Error(t, err)

	_, err = c.SignIn(ctx, "ada@example.com", "wrong")
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")

	signedIn, err := c.SignIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, auth.User.ID, signedIn.User.ID)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t)
	signUpTestUser(t, c, "change@example.com")

	require.Error(t, c.ChangePassword(ctx, "wrong-old", "newsecret"))
	require.NoError(t, c.ChangePassword(ctx, "secret1", "newsecret"))

	_, err := c.SignIn(ctx, "change@example.com", "secret1")
	require.Error(t, err, "the old password is gone")
	_, err = c.SignIn(ctx, "change@example.com", "newsecret")
	require.NoError(t, err)
}

func TestChangePasswordKeepsSessionConsistent(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t)
	signUpTestUser(t, c, "racer@example.com")

	// Readers hammer the session while the password changes under it. The
	// session hands out snapshots, so the readers never observe a torn user
	// and the race detector stays quiet.
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := c.GetCurrentUser(ctx); err != nil {
					return
				}
			}
		}()
	}

	require.NoError(t, c.ChangePassword(ctx, "secret1", "newsecret"))
	close(stop)
	wg.Wait()

	// The same token sees the new credentials straight away.
	require.Error(t, c.ChangePassword(ctx, "secret1", "again"),
		"the session snapshot must not keep the old hash")
	require.NoError(t, c.ChangePassword(ctx, "newsecret", "again"))
}

func TestPasswordResetNeverRevealsAccounts(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t)
	signUpTestUser(t, c, "reset@example.com")

	require.NoError(t, c.RequestPasswordReset(ctx, "reset@example.com"))
	require.NoError(t, c.RequestPasswordReset(ctx, "nobody@example.com"),
		"unknown accounts get the same answer")
}

func TestNoteLifecycle(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t)
	auth := signUpTestUser(t, c, "notes@example.com")
	userID := auth.User.ID

	created, err := c.CreateNote(ctx, wireNote(userID, "First"))
	require.NoError(t, err)
	require.False(t, created.ID.IsZero(), "the service assigns missing ids")
	require.NotZero(t, created.CreatedAt, "the service stamps missing timestamps")
	require.Equal(t, created.CreatedAt, created.ModifiedAt)

	got, err := c.GetNote(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "First", got.Title)

	// A repeated POST with the same id replaces the note; that is how
	// clients push local modifications.
	created.Title = "First, revised"
	replaced, err := c.CreateNote(ctx, created)
	require.NoError(t, err)
	require.Equal(t, created.ID, replaced.ID)
	require.Equal(t, "First, revised", replaced.Title)

	notes, err := c.ListNotes(ctx, userID)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	got.Title = "Renamed"
	updated, err := c.UpdateNote(ctx, got)
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)

	require.NoError(t, c.DeleteNote(ctx, created.ID))
	_, err = c.GetNote(ctx, created.ID)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestCreateNoteRequiresOwner(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t)
	_, err := c.CreateNote(ctx, &models.WireNote{Title: "orphan"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "user_id")
}

func TestSyncBatchAndChanges(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t)
	auth := signUpTestUser(t, c, "sync@example.com")
	userID := auth.User.ID

	before := time.Now().Add(-time.Minute)
	batch := []*models.WireNote{
		wireNote(userID, "uploaded one"),
		wireNote(userID, "uploaded two"),
		{Title: "no owner"},
	}
	synced, err := c.UploadNotes(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 2, synced, "notes without an owner are skipped, not fatal")

	notes, err := c.ListNotes(ctx, userID)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	changes, err := c.Changes(ctx, userID, before)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	changes, err = c.Changes(ctx, userID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Empty(t, changes)
}

func TestSearchTagFavoritesStats(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t)
	auth := signUpTestUser(t, c, "filters@example.com")
	userID := auth.User.ID

	groceries := wireNote(userID, "Grocery list")
	groceries.Tags = models.StringList{"errands"}
	_, err := c.CreateNote(ctx, groceries)
	require.NoError(t, err)

	meeting := wireNote(userID, "Meeting recap")
	meeting.Favorite = true
	created, err := c.CreateNote(ctx, meeting)
	require.NoError(t, err)
	require.NoError(t, c.AttachAudio(ctx, created.ID, "https://cdn.example.com/m.m4a", 240))

	found, err := c.SearchNotes(ctx, userID, "grocery")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Grocery list", found[0].Title)

	tagged, err := c.NotesByTag(ctx, userID, "errands")
	require.NoError(t, err)
	require.Len(t, tagged, 1)

	favs, err := c.FavoriteNotes(ctx, userID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	require.Equal(t, "Meeting recap", favs[0].Title)

	stats, err := c.GetNoteStats(ctx, userID)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Total)
	require.EqualValues(t, 1, stats.Favorites)
	require.EqualValues(t, 1, stats.WithAudio)
	require.EqualValues(t, 240, stats.AudioSeconds)
}

func TestAudioAttachDetach(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t)
	auth := signUpTestUser(t, c, "audio@example.com")

	created, err := c.CreateNote(ctx, wireNote(auth.User.ID, "voice memo"))
	require.NoError(t, err)

	require.Error(t, c.AttachAudio(ctx, created.ID, "", 0), "an empty reference is rejected")

	// Epoch-millisecond timestamps need the mutation to land in a later
	// millisecond than the create.
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, c.AttachAudio(ctx, created.ID, "https://cdn.example.com/v.m4a", 31))

	got, err := c.GetNote(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AudioURL)
	require.EqualValues(t, 31, got.AudioDuration)
	require.Greater(t, got.ModifiedAt, created.ModifiedAt)

	require.NoError(t, c.DetachAudio(ctx, created.ID))
	got, err = c.GetNote(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, got.AudioURL)
	require.Zero(t, got.AudioDuration)
}

func TestBatchDelete(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t)
	auth := signUpTestUser(t, c, "batch@example.com")
	userID := auth.User.ID

	var ids []models.NoteID
	for i := 0; i < 3; i++ {
		created, err := c.CreateNote(ctx, wireNote(userID, fmt.Sprintf("note %d", i)))
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	require.NoError(t, c.DeleteNotesBatch(ctx, ids[:2]))
	notes, err := c.ListNotes(ctx, userID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, ids[2], notes[0].ID)
}

func TestExportEndpoint(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t)
	auth := signUpTestUser(t, c, "export@example.com")

	_, err := c.CreateNote(ctx, wireNote(auth.User.ID, "Exported"))
	require.NoError(t, err)

	csvBytes, err := c.ExportNotes(ctx, auth.User.ID, "csv")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(csvBytes), "id,title,content"))
	require.Contains(t, string(csvBytes), "Exported")

	mdBytes, err := c.ExportNotes(ctx, auth.User.ID, "md")
	require.NoError(t, err)
	require.Contains(t, string(mdBytes), "## Exported")

	_, err = c.ExportNotes(ctx, auth.User.ID, "pdf")
	require.Error(t, err)
}

func TestCategoryEndpoints(t *testing.T) {
	ctx := context.Background()
	app, c := newTestApp(t)
	auth := signUpTestUser(t, c, "cats@example.com")

	created, err := c.CreateCategory(ctx, &models.Category{Name: "Work", Color: "#2196F3"})
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())

	_, err = c.CreateCategory(ctx, &models.Category{})
	require.Error(t, err, "a name is required")

	// Assigning a note to a category has no wire endpoint: the reference is
	// local-only, so the assignment goes straight to the store.
	stored, err := c.CreateNote(ctx, wireNote(auth.User.ID, "categorized"))
	require.NoError(t, err)
	require.NoError(t, app.Store().SetNoteCategory(ctx, stored.ID, &created.ID))

	// Listing recomputes the denormalized counts.
	cats, err := c.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.EqualValues(t, 1, cats[0].NoteCount)

	created.Name = "Office"
	updated, err := c.UpdateCategory(ctx, created)
	require.NoError(t, err)
	require.Equal(t, "Office", updated.Name)

	require.NoError(t, c.DeleteCategory(ctx, created.ID))
	cats, err = c.ListCategories(ctx)
	require.NoError(t, err)
	require.Empty(t, cats)
}

func TestUserEndpoints(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t)
	auth := signUpTestUser(t, c, "users@example.com")
	userID := auth.User.ID

	got, err := c.GetUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "Test User", got.Name)

	got.Name = "Renamed User"
	updated, err := c.UpdateUser(ctx, got)
	require.NoError(t, err)
	require.Equal(t, "Renamed User", updated.Name)

	// Profile updates must not clobber credentials: the JSON shape has no
	// password field, so the stored hash survives and sign-in still works.
	_, err = client.NewClient(c.BaseURL()).SignIn(ctx, "users@example.com", "secret1")
	require.NoError(t, err)

	prefs := models.DefaultPreferences()
	prefs.Theme = "dark"
	require.NoError(t, c.UpdatePreferences(ctx, userID, prefs))
	got, err = c.GetUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "dark", got.Preferences.Theme)

	require.NoError(t, c.ActivateUser(ctx, userID))
	got, err = c.GetUser(ctx, userID)
	require.NoError(t, err)
	require.True(t, got.Active)

	require.NoError(t, c.DeleteUser(ctx, userID))
	_, err = c.GetUser(ctx, userID)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestReadOnlyModeRejectsWrites(t *testing.T) {
	ctx := context.Background()
	app, c := newTestApp(t)
	auth := signUpTestUser(t, c, "ro@example.com")
	userID := auth.User.ID

	created, err := c.CreateNote(ctx, wireNote(userID, "before maintenance"))
	require.NoError(t, err)

	app.SetReadOnly(true)

	_, err = c.CreateNote(ctx, wireNote(userID, "during maintenance"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read-only")

	// Reads keep working.
	notes, err := c.ListNotes(ctx, userID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	got, err := c.GetNote(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "before maintenance", got.Title)

	app.SetReadOnly(false)
	_, err = c.CreateNote(ctx, wireNote(userID, "after maintenance"))
	require.NoError(t, err)
}

func TestWatchNotesOverWebSocket(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, c := newTestApp(t)
	auth := signUpTestUser(t, c, "watch@example.com")
	userID := auth.User.ID

	_, err := c.CreateNote(ctx, wireNote(userID, "already there"))
	require.NoError(t, err)

	ch, err := c.WatchNotes(ctx, userID)
	require.NoError(t, err)

	recv := func() []*models.WireNote {
		select {
		case notes, ok := <-ch:
			require.True(t, ok)
			return notes
		case <-time.After(3 * time.Second):
			t.Fatal("no snapshot received")
			return nil
		}
	}

	require.Len(t, recv(), 1)

	_, err = c.CreateNote(ctx, wireNote(userID, "live update"))
	require.NoError(t, err)

	// The next snapshot reflects the write. Rapid writes may coalesce, so
	// drain until the expected state shows up.
	deadline := time.After(3 * time.Second)
	for {
		select {
		case notes, ok := <-ch:
			require.True(t, ok)
			if len(notes) == 2 {
				return
			}
		case <-deadline:
			t.Fatal("watch never reflected the new note")
		}
	}
}

func TestWatchReleasesGoroutinesOnConnectionDrop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app, err := New(&Config{
		Driver:     DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "drop.db"),
		ServerPort: "0",
	})
	require.NoError(t, err)
	require.NoError(t, app.Store().Migrate(ctx))
	srv := httptest.NewServer(app.Router())
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})
	c := client.NewClient(srv.URL)
	auth := signUpTestUser(t, c, "drop@example.com")

	before := runtime.NumGoroutine()

	// Each drop ends one watch; a watcher whose helper goroutine waits on
	// ctx instead of the connection would pile one up per iteration.
	for i := 0; i < 5; i++ {
		ch, err := c.WatchNotes(ctx, auth.User.ID)
		require.NoError(t, err)

		select {
		case _, ok := <-ch:
			require.True(t, ok, "initial snapshot expected before the drop")
		case <-time.After(3 * time.Second):
			t.Fatal("no snapshot received")
		}

		srv.CloseClientConnections()
		deadline := time.After(3 * time.Second)
	drain:
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					break drain
				}
			case <-deadline:
				t.Fatal("watch channel never closed after the drop")
			}
		}
	}

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() < before+5
	}, 3*time.Second, 50*time.Millisecond, "watch goroutines must exit with their connection")
}
