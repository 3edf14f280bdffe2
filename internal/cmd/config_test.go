package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trickstertwo/xlog"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)
	SetDefaults()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Console)
	assert.Equal(t, 0, cfg.Observer.Workers)
	assert.Equal(t, 1024, cfg.Observer.BufferSize)
	assert.Equal(t, 3, cfg.Demo.Emits)
	assert.False(t, cfg.Demo.Once)
}

func TestLoad_FromFile(t *testing.T) {
	resetViper(t)
	SetDefaults()

	path := filepath.Join(t.TempDir(), "xpubsub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
observer:
  workers: 4
demo:
  emits: 0
  once: true
`), 0o600))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Observer.Workers)
	assert.Equal(t, 1024, cfg.Observer.BufferSize)
	assert.Equal(t, 1, cfg.Demo.Emits, "emits is clamped to at least one")
	assert.True(t, cfg.Demo.Once)
}

func TestConfig_MinLevel(t *testing.T) {
	cases := map[string]xlog.Level{
		"debug":   xlog.LevelDebug,
		"DEBUG":   xlog.LevelDebug,
		"warn":    xlog.LevelWarn,
		"warning": xlog.LevelWarn,
		"error":   xlog.LevelError,
		"info":    xlog.LevelInfo,
		"":        xlog.LevelInfo,
		"bogus":   xlog.LevelInfo,
	}
	for in, want := range cases {
		var c Config
		c.Log.Level = in
		assert.Equal(t, want, c.minLevel(), "level %q", in)
	}
}

func TestDemoCommand_Runs(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())
	t.Setenv("XPUBSUB_LOG_LEVEL", "error")

	rootCmd.SetArgs([]string{"demo", "--emits", "2"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, Execute())
}
