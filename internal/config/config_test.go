package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with no FUZZKIT_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	for _, name := range []string{EnvLogLevel, EnvFormat, EnvDB, EnvHistoryLimit} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	return dir
}

// chdir changes the working directory to dir for the duration of the test,
// restoring the previous directory on cleanup (equivalent to t.Chdir).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "", cfg.DB)
	assert.Equal(t, 20, cfg.HistoryLimit)
}

func TestLoad_DefaultPathFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, DefaultPath), "log_level: debug\ndb: runs.db\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "runs.db", cfg.DB)
	assert.Equal(t, "text", cfg.Format)
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "format: json\nhistory_limit: 5\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 5, cfg.HistoryLimit)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "empty.yaml")
	writeFile(t, path, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownField(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "log_levle: debug\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_levle")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "c.yaml")
	writeFile(t, path, "db: file.db\nformat: text\n")
	t.Setenv(EnvDB, "env.db")
	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvLogLevel, "WARN")
	t.Setenv(EnvHistoryLimit, "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.DB)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 3, cfg.HistoryLimit)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), EnvDB+"=dotenv.db\n")
	t.Cleanup(func() { os.Unsetenv(EnvDB) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv.db", cfg.DB)
}

func TestLoad_DotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), EnvDB+"=dotenv.db\n")
	t.Setenv(EnvDB, "real.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "real.db", cfg.DB)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
		want string
	}{
		{name: "log level", yaml: "log_level: loud\n", want: "invalid log_level"},
		{name: "format", yaml: "format: xml\n", want: "invalid format"},
		{name: "history limit", yaml: "history_limit: -1\n", want: "history_limit must be non-negative"},
		{name: "env history limit", env: map[string]string{EnvHistoryLimit: "many"}, want: EnvHistoryLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "c.yaml")
			writeFile(t, path, tt.yaml)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_Level(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := Config{LogLevel: in}.Level()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
