package recordnote

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ReliveRS/RecordNote/pkg/export"
	"github.com/ReliveRS/RecordNote/pkg/models"
	"github.com/ReliveRS/RecordNote/pkg/store"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"driver": a.config.Driver,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Notes

// handleCreateNote accepts a wire note and creates or replaces the row. A
// repeated POST with the same id is how clients push local modifications,
// so create-or-replace is the contract, not an accident.
func (a *App) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var wire models.WireNote
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if wire.UserID.IsZero() {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	note := wire.Note()
	if note.ID.IsZero() {
		note.ID = models.NewNoteID()
	}
	if err := a.store.UpsertNote(r.Context(), note); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored, err := a.store.GetNote(r.Context(), note.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.WireFromNote(stored))
}

func (a *App) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	note, err := a.store.GetNote(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if note == nil {
		respondError(w, http.StatusNotFound, "note not found")
		return
	}
	respondJSON(w, http.StatusOK, models.WireFromNote(note))
}

func (a *App) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var wire models.WireNote
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	note := wire.Note()
	note.ID = id
	if err := a.store.UpdateNote(r.Context(), note); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	updated, err := a.store.GetNote(r.Context(), id)
	if err != nil || updated == nil {
		respondError(w, http.StatusInternalServerError, "failed to load updated note")
		return
	}
	respondJSON(w, http.StatusOK, models.WireFromNote(updated))
}

func (a *App) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.store.DeleteNote(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *App) handleListNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := models.ParseUserID(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	notes, err := a.store.ListNotes(r.Context(), store.NoteQuery{UserID: &userID})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.WiresFromNotes(notes))
}

// handleSyncNotes applies a batch upload, one upsert per note. A malformed
// note fails the whole batch before anything is written; storage errors
// abort midway with the count applied so far, matching the sequential
// no-rollback contract.
func (a *App) handleSyncNotes(w http.ResponseWriter, r *http.Request) {
	var wires []*models.WireNote
	if err := json.NewDecoder(r.Body).Decode(&wires); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	synced := 0
	for _, wire := range wires {
		if wire.UserID.IsZero() {
			continue
		}
		note := wire.Note()
		if note.ID.IsZero() {
			note.ID = models.NewNoteID()
		}
		if err := a.store.UpsertNote(r.Context(), note); err != nil {
			a.log.Warn().Err(err).Str("note", note.ID.String()).Msg("sync upsert failed")
			continue
		}
		synced++
	}
	respondJSON(w, http.StatusOK, map[string]int{"synced": synced})
}

func (a *App) handleNoteChanges(w http.ResponseWriter, r *http.Request) {
	userID, err := models.ParseUserID(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sinceMillis, err := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "since must be epoch milliseconds")
		return
	}
	since := time.UnixMilli(sinceMillis).UTC()
	notes, err := a.store.ListNotes(r.Context(), store.NoteQuery{
		UserID:        &userID,
		ModifiedSince: &since,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.WiresFromNotes(notes))
}

func (a *App) handleSearchNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := models.ParseUserID(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	notes, err := a.store.ListNotes(r.Context(), store.NoteQuery{
		UserID: &userID,
		Search: r.URL.Query().Get("q"),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.WiresFromNotes(notes))
}

func (a *App) handleNotesByTag(w http.ResponseWriter, r *http.Request) {
	userID, err := models.ParseUserID(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	notes, err := a.store.ListNotes(r.Context(), store.NoteQuery{
		UserID: &userID,
		Tag:    r.URL.Query().Get("tag"),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.WiresFromNotes(notes))
}

func (a *App) handleFavoriteNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := models.ParseUserID(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	fav := true
	notes, err := a.store.ListNotes(r.Context(), store.NoteQuery{
		UserID:   &userID,
		Favorite: &fav,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.WiresFromNotes(notes))
}

func (a *App) handleAttachAudio(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		AudioURL      string `json:"audio_url"`
		AudioDuration int64  `json:"audio_duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AudioURL == "" {
		respondError(w, http.StatusBadRequest, "audio_url is required")
		return
	}
	if err := a.store.SetNoteAudio(r.Context(), id, req.AudioURL, req.AudioDuration); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleDetachAudio(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.store.ClearNoteAudio(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleDeleteNotesBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []models.NoteID `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.store.DeleteNotes(r.Context(), req.IDs); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "deleted", "count": len(req.IDs)})
}

func (a *App) handleExportNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := models.ParseUserID(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	formatName := r.URL.Query().Get("format")
	if formatName == "" {
		formatName = "json"
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	notes, err := a.store.ListNotes(r.Context(), store.NoteQuery{
		UserID: &userID,
		Order:  store.OrderCreatedDesc,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, format, notes); err != nil {
		a.log.Warn().Err(err).Msg("export write failed mid-stream")
	}
}

// handleNoteStats reports per-user counters for the library screen.
func (a *App) handleNoteStats(w http.ResponseWriter, r *http.Request) {
	userID, err := models.ParseUserID(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	total, err := a.store.CountNotes(r.Context(), store.NoteQuery{UserID: &userID})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	fav := true
	favorites, err := a.store.CountNotes(r.Context(), store.NoteQuery{UserID: &userID, Favorite: &fav})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	hasAudio := true
	withAudio, err := a.store.CountNotes(r.Context(), store.NoteQuery{UserID: &userID, HasAudio: &hasAudio})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	audioSeconds, err := a.store.TotalAudioDuration(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{
		"total":         total,
		"favorites":     favorites,
		"with_audio":    withAudio,
		"audio_seconds": audioSeconds,
	})
}

// Categories

func (a *App) handleListCategories(w http.ResponseWriter, r *http.Request) {
	// Note counts are denormalized; recompute on read so the listing is
	// accurate. Skipped in read-only mode, where stale counts are the deal.
	if !a.IsReadOnly() {
		if err := a.store.RefreshCategoryNoteCounts(r.Context()); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	categories, err := a.store.ListCategories(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (a *App) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if category.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := a.store.CreateCategory(r.Context(), &category); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, &category)
}

func (a *App) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseCategoryID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := a.store.GetCategory(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if category == nil {
		respondError(w, http.StatusNotFound, "category not found")
		return
	}
	respondJSON(w, http.StatusOK, category)
}

func (a *App) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseCategoryID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var category models.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	category.ID = id
	if err := a.store.UpdateCategory(r.Context(), &category); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	updated, err := a.store.GetCategory(r.Context(), id)
	if err != nil || updated == nil {
		respondError(w, http.StatusInternalServerError, "failed to load updated category")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (a *App) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseCategoryID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.store.DeleteCategory(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Users

func (a *App) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.store.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (a *App) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	existing, err := a.store.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user.ID = id
	// Credentials only change through the auth endpoints.
	user.PasswordHash = existing.PasswordHash
	if err := a.store.UpdateUser(r.Context(), &user); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	updated, err := a.store.GetUser(r.Context(), id)
	if err != nil || updated == nil {
		respondError(w, http.StatusInternalServerError, "failed to load updated user")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (a *App) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.store.DeleteUser(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleActivateUser marks the profile as the device's active one. The
// switch is atomic: afterwards exactly one user row is active.
func (a *App) handleActivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.store.SetActiveUser(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := a.store.TouchUserAccess(r.Context(), id); err != nil {
		a.log.Warn().Err(err).Str("user", id.String()).Msg("failed to stamp last access")
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var prefs models.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.store.UpdateUserPreferences(r.Context(), id, prefs); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
