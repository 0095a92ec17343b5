package recordnote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails.
//
// Two API bases exist. Auth and user endpoints predate API versioning and
// live under the bare /api prefix; everything note-shaped lives under
// /api/v1 and speaks wire records:
//
//	GET  /api/health                          - service health
//	GET  /health                              - same, for load balancers
//
//	POST /api/auth/signup                     - register, returns bearer token
//	POST /api/auth/signin                     - authenticate
//	POST /api/auth/signout                    - end session
//	GET  /api/auth/me                         - current user
//	POST /api/auth/refresh                    - exchange token
//	POST /api/auth/password                   - change password
//	POST /api/auth/password/reset             - request a reset
//
//	GET    /api/users/{id}                    - profile
//	PUT    /api/users/{id}                    - update profile
//	DELETE /api/users/{id}                    - delete account (cascades)
//	PUT    /api/users/{id}/preferences        - replace settings bag
//	POST   /api/users/{id}/activate           - make this the active profile
//
//	POST   /api/v1/notes                      - create or replace a note
//	GET    /api/v1/notes/user/{userId}        - all notes of a user
//	POST   /api/v1/notes/sync                 - batch upload
//	GET    /api/v1/notes/changes/{userId}     - changes since ?since= (epoch ms)
//	GET    /api/v1/notes/search/{userId}      - substring search ?q=
//	GET    /api/v1/notes/tag/{userId}         - filter by ?tag=
//	GET    /api/v1/notes/favorites/{userId}   - favorites
//	GET    /api/v1/notes/stats/{userId}       - per-user counters
//	GET    /api/v1/notes/export/{userId}      - render notes ?format=
//	GET    /api/v1/notes/watch/{userId}       - WebSocket live note list
//	DELETE /api/v1/notes/batch                - delete several notes
//	GET    /api/v1/notes/{id}                 - one note
//	PUT    /api/v1/notes/{id}                 - replace a note
//	DELETE /api/v1/notes/{id}                 - delete a note
//	POST   /api/v1/notes/{id}/audio           - attach audio reference
//	DELETE /api/v1/notes/{id}/audio           - detach audio reference
//
//	GET    /api/v1/categories                 - list
//	POST   /api/v1/categories                 - create
//	GET    /api/v1/categories/{id}            - one category
//	PUT    /api/v1/categories/{id}            - update
//	DELETE /api/v1/categories/{id}            - delete (nulls note refs)
//
// Shutdown is graceful: on context cancellation active requests get five
// seconds to drain.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	router := a.Router()
	a.startAutoSync(ctx)

	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.log.Info().Str("addr", addr).Str("driver", a.config.Driver).Msg("starting RecordNote server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// Router builds the handler tree Run serves. Exposed so tests can mount the
// app on an httptest server. Fixed note paths are registered before the
// {id} templates so that "batch", "sync", and friends never parse as note
// IDs.
func (a *App) Router() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", a.handleHealth).Methods("GET")
	api.HandleFunc("/auth/signup", a.handleSignUp).Methods("POST")
	api.HandleFunc("/auth/signin", a.handleSignIn).Methods("POST")
	api.HandleFunc("/auth/signout", a.handleSignOut).Methods("POST")
	api.HandleFunc("/auth/me", a.handleGetCurrentUser).Methods("GET")
	api.HandleFunc("/auth/refresh", a.handleRefreshToken).Methods("POST")
	api.HandleFunc("/auth/password", a.handleChangePassword).Methods("POST")
	api.HandleFunc("/auth/password/reset", a.handlePasswordReset).Methods("POST")
	api.HandleFunc("/users/{id}", a.handleGetUser).Methods("GET")
	api.HandleFunc("/users/{id}", a.handleUpdateUser).Methods("PUT")
	api.HandleFunc("/users/{id}", a.handleDeleteUser).Methods("DELETE")
	api.HandleFunc("/users/{id}/preferences", a.handleUpdatePreferences).Methods("PUT")
	api.HandleFunc("/users/{id}/activate", a.handleActivateUser).Methods("POST")

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/notes", a.handleCreateNote).Methods("POST")
	v1.HandleFunc("/notes/sync", a.handleSyncNotes).Methods("POST")
	v1.HandleFunc("/notes/batch", a.handleDeleteNotesBatch).Methods("DELETE")
	v1.HandleFunc("/notes/user/{userId}", a.handleListNotes).Methods("GET")
	v1.HandleFunc("/notes/changes/{userId}", a.handleNoteChanges).Methods("GET")
	v1.HandleFunc("/notes/search/{userId}", a.handleSearchNotes).Methods("GET")
	v1.HandleFunc("/notes/tag/{userId}", a.handleNotesByTag).Methods("GET")
	v1.HandleFunc("/notes/favorites/{userId}", a.handleFavoriteNotes).Methods("GET")
	v1.HandleFunc("/notes/stats/{userId}", a.handleNoteStats).Methods("GET")
	v1.HandleFunc("/notes/export/{userId}", a.handleExportNotes).Methods("GET")
	v1.HandleFunc("/notes/watch/{userId}", a.handleWatchNotes).Methods("GET")
	v1.HandleFunc("/notes/{id}", a.handleGetNote).Methods("GET")
	v1.HandleFunc("/notes/{id}", a.handleUpdateNote).Methods("PUT")
	v1.HandleFunc("/notes/{id}", a.handleDeleteNote).Methods("DELETE")
	v1.HandleFunc("/notes/{id}/audio", a.handleAttachAudio).Methods("POST")
	v1.HandleFunc("/notes/{id}/audio", a.handleDetachAudio).Methods("DELETE")
	v1.HandleFunc("/categories", a.handleListCategories).Methods("GET")
	v1.HandleFunc("/categories", a.handleCreateCategory).Methods("POST")
	v1.HandleFunc("/categories/{id}", a.handleGetCategory).Methods("GET")
	v1.HandleFunc("/categories/{id}", a.handleUpdateCategory).Methods("PUT")
	v1.HandleFunc("/categories/{id}", a.handleDeleteCategory).Methods("DELETE")

	router.HandleFunc("/health", a.handleHealth).Methods("GET")
	return router
}
