/* cmd/root.go */

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	// Subcommands
	"github.com/CodeMonkeyCybersecurity/microns/cmd/compose"
	"github.com/CodeMonkeyCybersecurity/microns/cmd/create"
	"github.com/CodeMonkeyCybersecurity/microns/cmd/delete"
	"github.com/CodeMonkeyCybersecurity/microns/cmd/generate"
	"github.com/CodeMonkeyCybersecurity/microns/cmd/list"
	"github.com/CodeMonkeyCybersecurity/microns/cmd/serve"
)

var (
	configFile       string
	telemetryFlusher func(context.Context) error
)

// RootCmd is the base command for microns.
var RootCmd = &cobra.Command{
	Use:     "microns",
	Short:   "Service registry and docker-compose manifest generator",
	Version: shared.Version,
	Long: `microns keeps a registry of managed services (built from ./services/<name>)
and infrastructure services (pre-built images), compiles it together with a
base template into a docker-compose manifest, and drives docker compose
against that manifest.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if telemetryFlusher == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return telemetryFlusher(ctx)
	},
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		rc.Log.Info("No subcommand provided")
		return cmd.Help()
	}),
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default <project-root>/microns.yaml)")
	pf.String("project-root", ".", "directory holding the registry, services and docker folders")
	pf.String("registry-file", shared.DefaultRegistryFile, "service registry JSON file")
	pf.String("services-dir", shared.DefaultServicesDir, "directory scanned for service build contexts")
	pf.String("base-template", shared.DefaultBaseTemplate, "hand-authored compose base template")
	pf.String("manifest-file", shared.DefaultManifestFile, "generated compose manifest")
	pf.String("compose-binary", "", `compose command, e.g. "docker compose" (default: auto-detect)`)
	pf.Duration("compose-timeout", 30*time.Minute, "limit for a single compose invocation (0 disables)")
	pf.Bool("telemetry", false, "write OpenTelemetry spans next to the log file")

	cli.SetConfigKey(pf, "compose-binary", "orchestrator.binary")
	cli.SetConfigKey(pf, "compose-timeout", "orchestrator.timeout")
	cli.SetConfigKey(pf, "telemetry", "telemetry.enabled")

	for _, sub := range []*cobra.Command{
		list.ListCmd,
		create.CreateCmd,
		delete.DeleteCmd,
		generate.GenerateCmd,
		compose.ComposeCmd,
		serve.ServeCmd,
	} {
		RootCmd.AddCommand(sub)
	}
}

// setup binds flags, loads configuration and starts telemetry before any
// subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	v := microns_cli.Viper()
	if err := cli.BindFlagsToViper(cmd, v); err != nil {
		return err
	}
	microns_cli.SetConfigFile(configFile)

	cfg, err := microns_cli.Config()
	if err != nil {
		return err
	}

	dir := os.TempDir()
	if path, err := logger.FindWritableLogPath(); err == nil {
		dir = filepath.Dir(path)
	}
	flush, err := telemetry.Init("microns", dir, cfg.Telemetry.Enabled)
	if err != nil {
		logger.L().Warn("Telemetry disabled", zap.Error(err))
		return nil
	}
	telemetryFlusher = flush
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to flush logs: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := RootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if microns_err.IsExpectedUserError(err) {
		logger.L().Warn("microns completed with user error", zap.Error(err))
	} else {
		logger.L().Error("microns execution error", zap.Error(err))
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return microns_err.GetExitCode(err)
}
