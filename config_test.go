package eventhub

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenNoFeeders(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultHubConfig(), cfg)
}

func TestLoadConfigFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hub.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_response_timeout = "10s"
default_barrier = true
preprocessor_allow_list = ["a", "b"]
`), 0o644))

	cfg, err := LoadConfig(NewFileFeeder(path))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.DefaultResponseTimeout)
	assert.True(t, cfg.DefaultBarrier)
	assert.Equal(t, []string{"a", "b"}, cfg.PreprocessorAllowList)
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_response_timeout: 3s
default_barrier: false
`), 0o644))

	cfg, err := LoadConfig(NewFileFeeder(path))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.DefaultResponseTimeout)
	assert.False(t, cfg.DefaultBarrier)
}

func TestLoadConfigMissingFileFeederIsSkipped(t *testing.T) {
	cfg, err := LoadConfig(NewFileFeeder("/does/not/exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultHubConfig(), cfg)
}

func TestLoadConfigEnvFeederOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hub.toml")
	require.NoError(t, os.WriteFile(path, []byte(`default_response_timeout = "1s"`), 0o644))

	t.Setenv("HUB_DEFAULT_RESPONSE_TIMEOUT", "30s")

	cfg, err := LoadConfig(NewFileFeeder(path), NewEnvFeeder("HUB_"))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.DefaultResponseTimeout)
}

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hub.toml")
	require.NoError(t, os.WriteFile(path, []byte(`default_barrier = false`), 0o644))

	cw, err := WatchConfig(path, nil)
	require.NoError(t, err)
	defer cw.Close()

	assert.False(t, cw.Current().DefaultBarrier)

	require.NoError(t, os.WriteFile(path, []byte(`default_barrier = true`), 0o644))

	require.Eventually(t, func() bool {
		return cw.Current().DefaultBarrier
	}, time.Second, 10*time.Millisecond)
}
