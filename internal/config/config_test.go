package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logconsole.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	v := New()

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Server)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "ERROR", cfg.Level)
	assert.Empty(t, cfg.Nodes)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server: https://db.example.com:8080/
token: secret
timeout: 3s
level: WARNING
nodes: ["1", "2"]
`)
	v := New()
	v.Set("config", path)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "https://db.example.com:8080", cfg.Server)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "WARNING", cfg.Level)
	assert.Equal(t, []string{"1", "2"}, cfg.Nodes)
	assert.Equal(t, path, UsedFile(v))
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server: http://file:8080\n")
	t.Setenv("LOGCONSOLE_SERVER", "http://env:9090")
	t.Setenv("LOGCONSOLE_LOG_LEVEL", "debug")
	v := New()
	v.Set("config", path)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://env:9090", cfg.Server)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	v := New()
	v.Set("config", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load(v)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"ok", Config{Server: "http://a:1", Timeout: time.Second}, nil},
		{"no scheme", Config{Server: "localhost:8080", Timeout: time.Second}, ErrInvalidServer},
		{"ftp", Config{Server: "ftp://a", Timeout: time.Second}, ErrInvalidServer},
		{"no host", Config{Server: "http://", Timeout: time.Second}, ErrInvalidServer},
		{"zero timeout", Config{Server: "http://a", Timeout: 0}, ErrInvalidTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBindFlags(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	v := New()
	cmd := &cobra.Command{Use: "test"}
	require.NoError(t, BindFlags(cmd, v))
	require.NoError(t, cmd.PersistentFlags().Parse([]string{"--server", "http://flag:1", "--timeout", "2s"}))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://flag:1", cfg.Server)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}
