package recordnote

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ReliveRS/RecordNote/pkg/models"
	"github.com/ReliveRS/RecordNote/pkg/store"
)

var upgrader = websocket.Upgrader{
	// The API is token-authenticated; origin checking adds nothing for
	// non-browser clients.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWatchNotes upgrades to a WebSocket and pushes the user's full note
// list on connect and after every change, mirroring the store's live
// subscription semantics over the network.
func (a *App) handleWatchNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := models.ParseUserID(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain the read side to notice the peer closing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snapshots, err := a.store.WatchNotes(ctx, store.NoteQuery{UserID: &userID})
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to start note watch")
		return
	}

	for notes := range snapshots {
		if err := conn.WriteJSON(models.WiresFromNotes(notes)); err != nil {
			return
		}
	}
}
