// pkg/config/config.go
//
// Runtime configuration. Precedence, highest first: command-line flags,
// MICRONS_* environment variables (a .env file in the project root is loaded
// into the environment first), microns.yaml, built-in defaults.

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/shared"
	cerr "github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "MICRONS"
	ConfigFileName = "microns.yaml"
	DotEnvFile     = ".env"
)

// Config holds every tunable. Paths are absolute after Load.
type Config struct {
	ProjectRoot  string             `mapstructure:"project_root"`
	RegistryFile string             `mapstructure:"registry_file"`
	ServicesDir  string             `mapstructure:"services_dir"`
	BaseTemplate string             `mapstructure:"base_template"`
	ManifestFile string             `mapstructure:"manifest_file"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Server       ServerConfig       `mapstructure:"server"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

type OrchestratorConfig struct {
	Binary  string        `mapstructure:"binary"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Defaults returns the built-in configuration, with paths still relative.
func Defaults() Config {
	return Config{
		ProjectRoot:  ".",
		RegistryFile: shared.DefaultRegistryFile,
		ServicesDir:  shared.DefaultServicesDir,
		BaseTemplate: shared.DefaultBaseTemplate,
		ManifestFile: shared.DefaultManifestFile,
		Orchestrator: OrchestratorConfig{Timeout: 30 * time.Minute},
		Server:       ServerConfig{Addr: shared.DefaultListenAddr, CORSOrigins: []string{"*"}},
	}
}

// SetDefaults registers Defaults on v. Every key must have a default for
// environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("project_root", d.ProjectRoot)
	v.SetDefault("registry_file", d.RegistryFile)
	v.SetDefault("services_dir", d.ServicesDir)
	v.SetDefault("base_template", d.BaseTemplate)
	v.SetDefault("manifest_file", d.ManifestFile)
	v.SetDefault("orchestrator.binary", d.Orchestrator.Binary)
	v.SetDefault("orchestrator.timeout", d.Orchestrator.Timeout)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
}

// Load assembles the configuration. configFile may be empty, in which case
// <project_root>/microns.yaml is read when present.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	cli.SetViperEnvPrefix(v, EnvPrefix)

	root, err := filepath.Abs(v.GetString("project_root"))
	if err != nil {
		return nil, cerr.Wrap(err, "resolve project root")
	}

	if err := loadDotEnv(filepath.Join(root, DotEnvFile)); err != nil {
		return nil, err
	}
	// .env may have set MICRONS_PROJECT_ROOT.
	if root, err = filepath.Abs(v.GetString("project_root")); err != nil {
		return nil, cerr.Wrap(err, "resolve project root")
	}

	if configFile == "" {
		candidate := filepath.Join(root, ConfigFileName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			configFile = candidate
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, cerr.WithHint(microns_err.NewIOError("parse", configFile, err),
				"check the YAML syntax of the config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, cerr.Wrap(err, "decode configuration")
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return microns_err.NewIOError("parse", path, err)
}

// resolve makes every path absolute, relative paths being taken against the
// project root.
func (c *Config) resolve() error {
	root, err := filepath.Abs(c.ProjectRoot)
	if err != nil {
		return cerr.Wrap(err, "resolve project root")
	}
	c.ProjectRoot = root
	for _, p := range []*string{&c.RegistryFile, &c.ServicesDir, &c.BaseTemplate, &c.ManifestFile} {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
	if c.Orchestrator.Timeout < 0 {
		return microns_err.WrapValidationError(&microns_err.ValidationError{
			Field:   "orchestrator.timeout",
			Message: "must not be negative",
		})
	}
	return nil
}
