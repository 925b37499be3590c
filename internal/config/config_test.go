package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FIELDTRACE_DATABASE_URL", "")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 20, cfg.MaxOpenConns)
	assert.Error(t, cfg.RequireDatabase())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "fieldtrace.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database_url: sqlite://file.db\nlog_level: info\nmax_open_conns: 5\n"), 0o644))

	t.Setenv("FIELDTRACE_LOG_LEVEL", "error")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--db", "postgres://localhost/app"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/app", cfg.DatabaseURL, "flag beats config file")
	assert.Equal(t, "error", cfg.LogLevel, "env beats config file")
	assert.Equal(t, 5, cfg.MaxOpenConns)
	assert.NoError(t, cfg.RequireDatabase())
}

func TestLoadMissingConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
