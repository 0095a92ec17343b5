package recordnote

import (
	"context"
	"fmt"
	"os"

	"github.com/ReliveRS/RecordNote/pkg/export"
	"github.com/ReliveRS/RecordNote/pkg/models"
	"github.com/ReliveRS/RecordNote/pkg/store"
)

// Export renders a user's notes from the local store into the requested
// format, writing to the output file or stdout.
func (a *App) Export(ctx context.Context, cmd *ExportCommand) error {
	format, err := export.ParseFormat(cmd.Format)
	if err != nil {
		return err
	}
	userID, err := models.ParseUserID(cmd.User)
	if err != nil {
		return err
	}

	notes, err := a.store.ListNotes(ctx, store.NoteQuery{
		UserID: &userID,
		Order:  store.OrderCreatedDesc,
	})
	if err != nil {
		return err
	}

	out := os.Stdout
	if cmd.Output != "" {
		f, err := os.Create(cmd.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := export.Write(out, format, notes); err != nil {
		return err
	}
	a.log.Info().Int("notes", len(notes)).Str("format", string(format)).Msg("export complete")
	return nil
}
