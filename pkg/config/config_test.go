package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests touch process environment and must not run in parallel.

func newViper(root string) *viper.Viper {
	v := viper.New()
	v.Set("project_root", root)
	return v
}

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(newViper(root), "")
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, "services.json"), cfg.RegistryFile)
	assert.Equal(t, filepath.Join(root, "services"), cfg.ServicesDir)
	assert.Equal(t, filepath.Join(root, "docker", "docker-compose.base.yml"), cfg.BaseTemplate)
	assert.Equal(t, filepath.Join(root, "docker", "docker-compose.generated.yml"), cfg.ManifestFile)
	assert.Equal(t, 30*time.Minute, cfg.Orchestrator.Timeout)
	assert.Empty(t, cfg.Orchestrator.Binary)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadConfigFile(t *testing.T) {
	root := t.TempDir()
	yaml := `registry_file: state/registry.json
manifest_file: /srv/compose/generated.yml
orchestrator:
  binary: podman-compose
  timeout: 5m
server:
  addr: ":9000"
  cors_origins:
    - https://ui.example.com
telemetry:
  enabled: true
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(yaml), 0644))

	cfg, err := Load(newViper(root), "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "state", "registry.json"), cfg.RegistryFile)
	assert.Equal(t, "/srv/compose/generated.yml", cfg.ManifestFile)
	assert.Equal(t, "podman-compose", cfg.Orchestrator.Binary)
	assert.Equal(t, 5*time.Minute, cfg.Orchestrator.Timeout)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://ui.example.com"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(t.TempDir(), "elsewhere.yaml")
	require.NoError(t, os.WriteFile(path, []byte("services_dir: apps\n"), 0644))

	cfg, err := Load(newViper(root), path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "apps"), cfg.ServicesDir)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("orchestrator:\n  timeout: 5m\n"), 0644))
	t.Setenv("MICRONS_ORCHESTRATOR_TIMEOUT", "90s")
	t.Setenv("MICRONS_SERVER_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(newViper(root), "")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Orchestrator.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "MICRONS_ORCHESTRATOR_BINARY"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DotEnvFile), []byte(key+"=docker compose\n"), 0644))

	cfg, err := Load(newViper(root), "")
	require.NoError(t, err)
	assert.Equal(t, "docker compose", cfg.Orchestrator.Binary)
}

func TestLoadInvalidConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("server: [\n"), 0644))

	_, err := Load(newViper(root), "")
	var ioErr *microns_err.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "parse", ioErr.Op)
}

func TestLoadRejectsNegativeTimeout(t *testing.T) {
	root := t.TempDir()
	v := newViper(root)
	v.Set("orchestrator.timeout", "-1s")

	_, err := Load(v, "")
	require.Error(t, err)
	assert.True(t, microns_err.IsValidation(err))
}
