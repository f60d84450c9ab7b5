package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netwalker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
seeds:
  - name: wtsp-edge-1
  - name: sw-remote
    address: 10.1.20.3
sweep:
  networks:
    - 10.1.20.0/24
walk:
  max_depth: 4
  concurrent_connections: 16
  discovery_timeout: 30m
  connect_timeout: 5s
  command_timeout: 20s
  retry_attempts: 1
  retry_backoff: 500ms
boundary:
  site_pattern: "*-CORE-*"
  collect_site: false
exclude:
  capabilities: [Phone]
  platforms: ["ip phone", "AIR-"]
database:
  path: /var/lib/netwalker/inventory.db
credentials:
  username: netops
  password: hunter2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Seeds, 2)
	assert.Equal(t, "10.1.20.3", cfg.Seeds[1].Address)
	assert.Equal(t, []string{"10.1.20.0/24"}, cfg.Sweep.Networks)
	require.NotNil(t, cfg.Walk.MaxDepth)
	assert.Equal(t, 4, *cfg.Walk.MaxDepth)
	assert.Equal(t, 16, cfg.Walk.ConcurrentConnections)
	assert.Equal(t, 30*time.Minute, cfg.Walk.DiscoveryTimeout.Duration())
	assert.Equal(t, 500*time.Millisecond, cfg.Walk.RetryBackoff.Duration())
	assert.Equal(t, "*-CORE-*", cfg.Boundary.SitePattern)
	assert.False(t, cfg.Boundary.CollectSite)
	assert.Equal(t, []string{"Phone"}, cfg.Exclude.Capabilities)
	assert.Equal(t, "/var/lib/netwalker/inventory.db", cfg.Database.Path)
	assert.Equal(t, "netops", cfg.Credentials.Username)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
seeds:
  - name: sw-1
credentials:
  username: netops
  password: hunter2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Walk.MaxDepth)
	assert.Equal(t, 8, *cfg.Walk.MaxDepth)
	assert.Equal(t, 8, cfg.Walk.ConcurrentConnections)
	assert.Equal(t, 15*time.Second, cfg.Walk.ConnectTimeout.Duration())
	assert.Equal(t, 30*time.Second, cfg.Walk.CommandTimeout.Duration())
	require.NotNil(t, cfg.Walk.RetryAttempts)
	assert.Equal(t, 2, *cfg.Walk.RetryAttempts)
	assert.Zero(t, cfg.Walk.DiscoveryTimeout.Duration(), "no run time limit by default")
	assert.Equal(t, "./netwalker.db", cfg.Database.Path)
}

func TestLoadKeepsExplicitZeroes(t *testing.T) {
	path := writeConfig(t, `
seeds:
  - name: sw-1
walk:
  max_depth: 0
  retry_attempts: 0
credentials:
  username: netops
  password: hunter2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Walk.MaxDepth)
	assert.Equal(t, 0, *cfg.Walk.MaxDepth, "max_depth 0 (seeds only) must not default to 8")
	require.NotNil(t, cfg.Walk.RetryAttempts)
	assert.Equal(t, 0, *cfg.Walk.RetryAttempts, "retry_attempts 0 (single try) must not default to 2")
}

func TestLoadRejectsNegativeMaxDepth(t *testing.T) {
	path := writeConfig(t, `
seeds:
  - name: sw-1
walk:
  max_depth: -1
credentials:
  username: netops
  password: hunter2
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_depth")
}

func TestLoadEnvOverridesPassword(t *testing.T) {
	t.Setenv(EnvSSHUsername, "oncall")
	t.Setenv(EnvSSHPassword, "from-env")

	path := writeConfig(t, `
seeds:
  - name: sw-1
credentials:
  username: netops
  password: from-file
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "oncall", cfg.Credentials.Username)
	assert.Equal(t, "from-env", cfg.Credentials.Password)
}

func TestLoadRejectsEmptySeedSet(t *testing.T) {
	path := writeConfig(t, `
credentials:
  username: netops
  password: hunter2
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrNoSeeds)
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	path := writeConfig(t, `
seeds:
  - name: sw-1
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
}

func TestLoadRejectsBadBoundaryGlob(t *testing.T) {
	path := writeConfig(t, `
seeds:
  - name: sw-1
boundary:
  site_pattern: "[oops"
credentials:
  username: netops
  password: hunter2
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site_pattern")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
seeds:
  - name: sw-1
walk:
  connect_timeout: soon
credentials:
  username: netops
  password: hunter2
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
