// pkg/microns_cli/project.go
//
// Process-wide configuration and composer for the command tree. Flags are
// bound into Viper() by the root command; the first call to Config loads it.

package microns_cli

import (
	"os"
	"sync"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/composer"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/config"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/lifecycle"
	"github.com/spf13/viper"
)

var (
	v          = viper.New()
	configFile string

	loadOnce sync.Once
	loaded   *config.Config
	loadErr  error

	composerOnce sync.Once
	shared       *composer.Composer
)

// Viper is the instance flags are bound to.
func Viper() *viper.Viper {
	return v
}

// SetConfigFile selects an explicit config file; empty means
// <project_root>/microns.yaml when present.
func SetConfigFile(path string) {
	configFile = path
}

// Config loads the configuration once per process.
func Config() (*config.Config, error) {
	loadOnce.Do(func() {
		loaded, loadErr = config.Load(v, configFile)
	})
	return loaded, loadErr
}

// Orchestrator is the compose controller for the loaded configuration. Its
// output is streamed to stderr so builds are visible as they run.
func Orchestrator() (*lifecycle.Controller, error) {
	cfg, err := Config()
	if err != nil {
		return nil, err
	}
	return lifecycle.New(lifecycle.Config{
		Binary:  cfg.Orchestrator.Binary,
		Timeout: cfg.Orchestrator.Timeout,
		Stream:  os.Stderr,
	}), nil
}

// Composer returns the process-wide composer.
func Composer() (*composer.Composer, error) {
	cfg, err := Config()
	if err != nil {
		return nil, err
	}
	ctl, err := Orchestrator()
	if err != nil {
		return nil, err
	}
	composerOnce.Do(func() {
		shared = composer.New(cfg, composer.WithOrchestrator(ctl))
	})
	return shared, nil
}
