package recordnote

// Command is a parsed subcommand with its options. Parse returns one of the
// concrete types below and Main dispatches on them.
type Command interface {
	Name() string
}

// RunCommand starts the HTTP server.
type RunCommand struct{}

func (*RunCommand) Name() string { return "run" }

// MigrateCommand creates or updates the database schema and exits.
type MigrateCommand struct{}

func (*MigrateCommand) Name() string { return "migrate" }

// SyncCommand runs one client-side synchronization pass against the remote
// service: push every unsynced local note, then pull remote changes since
// the given instant for the given user.
type SyncCommand struct {
	// Since is an RFC3339 instant; empty means the last 24 hours.
	Since string
	// User limits the pull to one user's notes. Empty falls back to the
	// store's active user; with no active user the pull is skipped.
	User string
}

func (*SyncCommand) Name() string { return "sync" }

// ExportCommand renders a user's notes from the local store into one of the
// export formats.
type ExportCommand struct {
	User   string
	Format string
	// Output is a file path; empty writes to stdout.
	Output string
}

func (*ExportCommand) Name() string { return "export" }
