package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFillsDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alarm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bind: 127.0.0.1:9000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Bind)
	require.Equal(t, Default().SensorDir, cfg.SensorDir)
	require.Equal(t, 200*time.Millisecond, cfg.Debounce)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
