package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":4444", cfg.Server.Addr())
	assert.Equal(t, time.Second, cfg.Refresh.Interval)
	assert.Empty(t, cfg.Fixtures.Scripts)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtured.yaml")
	doc := `
logging:
  level: debug
server:
  port: 5555
fixtures:
  scripts: [tables, plots]
  starlark_dir: ./scripts
refresh:
  interval: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5555, cfg.Server.Port)
	assert.Equal(t, []string{"tables", "plots"}, cfg.Fixtures.Scripts)
	assert.Equal(t, "./scripts", cfg.Fixtures.StarlarkDir)
	assert.Equal(t, 250*time.Millisecond, cfg.Refresh.Interval)
	// untouched sections keep their defaults
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, "export", cfg.Export.Dir)

	level, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown field": "server:\n  hostname: x\n",
		"bad port":      "server:\n  port: 70000\n",
		"zero interval": "refresh:\n  interval: 0s\n",
		"bad level":     "logging:\n  level: loud\n",
		"bad duration":  "refresh:\n  interval: soon\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, Parse([]byte(doc), Default()))
		})
	}
}

func TestEmptyDocument(t *testing.T) {
	cfg := Default()
	require.NoError(t, Parse(nil, cfg))
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
