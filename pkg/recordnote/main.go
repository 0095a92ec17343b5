package recordnote

import (
	"context"
	"fmt"
)

// Main parses args, builds the application, and executes the requested
// command. It is the entry point used by cmd/recordnote and is callable
// from tests with a cancellable context.
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return err
	}

	app, err := New(config)
	if err != nil {
		return err
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *RunCommand:
		// Maintenance mode serves the existing schema; migration is a write
		// and would be rejected by the read-only gate.
		if !config.ReadOnly {
			if err := app.Store().Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
		}
		return app.Run(ctx, c)
	case *MigrateCommand:
		return app.Store().Migrate(ctx)
	case *SyncCommand:
		return app.Sync(ctx, c)
	case *ExportCommand:
		return app.Export(ctx, c)
	default:
		return fmt.Errorf("unknown command type %T", cmd)
	}
}
