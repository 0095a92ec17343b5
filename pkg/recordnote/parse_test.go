package recordnote

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RECORDNOTE_DRIVER", "RECORDNOTE_DB", "POSTGRES_DSN", "PORT", "RECORDNOTE_REMOTE"} {
		t.Setenv(key, "")
	}
}

func TestParseRequiresSubcommand(t *testing.T) {
	clearConfigEnv(t)
	_, _, err := Parse(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "subcommand required")

	_, _, err = Parse([]string{"destroy"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown command")
}

func TestParseRunDefaults(t *testing.T) {
	clearConfigEnv(t)
	cmd, config, err := Parse([]string{"run"})
	require.NoError(t, err)
	require.IsType(t, &RunCommand{}, cmd)
	require.Equal(t, DriverSQLite, config.Driver)
	require.Equal(t, "recordnote.db", config.SQLitePath)
	require.Equal(t, "8080", config.ServerPort)
	require.False(t, config.ReadOnly)
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("RECORDNOTE_DRIVER", "postgres")
	t.Setenv("PORT", "9999")

	cmd, config, err := Parse([]string{"-driver", "sqlite", "-db", "/tmp/x.db", "-read-only", "run"})
	require.NoError(t, err)
	require.IsType(t, &RunCommand{}, cmd)
	require.Equal(t, DriverSQLite, config.Driver, "an explicit flag beats the environment")
	require.Equal(t, "/tmp/x.db", config.SQLitePath)
	require.Equal(t, "9999", config.ServerPort, "untouched values still come from the environment")
	require.True(t, config.ReadOnly)
}

func TestParseConfigFilePrecedence(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "7000")

	path := filepath.Join(t.TempDir(), "recordnote.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"driver: postgres\nport: \"8090\"\nremote_url: http://sync.example.com\n"), 0o600))

	_, config, err := Parse([]string{"-config", path, "-port", "8100", "run"})
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, config.Driver, "the file beats the environment")
	require.Equal(t, "8100", config.ServerPort, "a flag beats the file")
	require.Equal(t, "http://sync.example.com", config.RemoteURL)
}

func TestParseConfigFileMissing(t *testing.T) {
	clearConfigEnv(t)
	_, _, err := Parse([]string{"-config", "/nonexistent/recordnote.yaml", "run"})
	require.Error(t, err)
}

func TestParseSyncRequiresRemote(t *testing.T) {
	clearConfigEnv(t)
	_, _, err := Parse([]string{"sync"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "remote")

	cmd, config, err := Parse([]string{"-remote", "http://localhost:8080", "-sync-user", "abc", "sync"})
	require.NoError(t, err)
	sync, ok := cmd.(*SyncCommand)
	require.True(t, ok)
	require.Equal(t, "abc", sync.User)
	require.Equal(t, "http://localhost:8080", config.RemoteURL)

	// The env variable also satisfies the requirement.
	t.Setenv("RECORDNOTE_REMOTE", "http://env.example.com")
	_, config, err = Parse([]string{"sync"})
	require.NoError(t, err)
	require.Equal(t, "http://env.example.com", config.RemoteURL)
}

func TestParseExportRequiresUser(t *testing.T) {
	clearConfigEnv(t)
	_, _, err := Parse([]string{"export"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "export-user")

	cmd, _, err := Parse([]string{"-export-user", "abc", "-export-format", "csv", "-export-output", "out.csv", "export"})
	require.NoError(t, err)
	exp, ok := cmd.(*ExportCommand)
	require.True(t, ok)
	require.Equal(t, "abc", exp.User)
	require.Equal(t, "csv", exp.Format)
	require.Equal(t, "out.csv", exp.Output)
}

func TestParseTime(t *testing.T) {
	def := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := ParseTime("", def)
	require.NoError(t, err)
	require.True(t, got.Equal(def))

	got, err = ParseTime("2024-06-01T12:00:00Z", def)
	require.NoError(t, err)
	require.True(t, got.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)))

	_, err = ParseTime("yesterday", def)
	require.Error(t, err, "a malformed time is an error, not a silent default")
}
