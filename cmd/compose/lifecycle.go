// cmd/compose/lifecycle.go

package compose

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/execute"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/lifecycle"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Build and (re)create every service in the generated manifest",
	Long: `Run "<compose> -f <manifest> up --build --force-recreate --remove-orphans -d"
from the project root. With --generate the manifest is regenerated first.`,
	Args: cobra.NoArgs,
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		c, err := microns_cli.Composer()
		if err != nil {
			return err
		}
		if regen, _ := cmd.Flags().GetBool("generate"); regen {
			if _, err := c.GenerateManifest(rc.Ctx); err != nil {
				return err
			}
		}
		if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
			return dryRun(rc, cmd, lifecycle.UpArgs, (*lifecycle.Controller).Up)
		}
		if err := c.OrchestratorUp(rc.Ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Docker containers are up.")
		return nil
	}),
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove the containers of the generated manifest",
	Args:  cobra.NoArgs,
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
			return dryRun(rc, cmd, lifecycle.DownArgs, (*lifecycle.Controller).Down)
		}
		c, err := microns_cli.Composer()
		if err != nil {
			return err
		}
		if err := c.OrchestratorDown(rc.Ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Docker containers are down.")
		return nil
	}),
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "Show microns containers known to the Docker daemon",
	Args:  cobra.NoArgs,
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		if raw, _ := cmd.Flags().GetBool("orchestrator"); raw {
			cfg, err := microns_cli.Config()
			if err != nil {
				return err
			}
			ctl, err := quietController()
			if err != nil {
				return err
			}
			out, err := ctl.Ps(rc.Ctx, cfg.ManifestFile, cfg.ProjectRoot)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}

		c, err := microns_cli.Composer()
		if err != nil {
			return err
		}
		statuses, err := c.Status(rc.Ctx)
		if err != nil {
			return err
		}
		rc.Log.Debug("Containers listed", zap.Int("count", len(statuses)))

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSERVICE\tIMAGE\tSTATE\tSTATUS\tCREATED")
		for _, s := range statuses {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				s.Name, s.Service, s.Image, s.State, s.Status, s.Created.Format(time.DateTime))
		}
		return tw.Flush()
	}),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the compose binary in use and its version",
	Args:  cobra.NoArgs,
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		ctl, err := quietController()
		if err != nil {
			return err
		}
		bin, prefix, err := ctl.Resolve()
		if err != nil {
			return err
		}
		v, err := ctl.Version(rc.Ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", execute.CommandLine(bin, prefix...), v.String())
		return nil
	}),
}

// dryRun prints the orchestrator command line and passes it through a dry-run
// controller, which logs it without starting the orchestrator.
func dryRun(
	rc *microns_io.RuntimeContext,
	cmd *cobra.Command,
	argsFor func(manifestPath string) []string,
	action func(c *lifecycle.Controller, ctx context.Context, manifestPath, workDir string) error,
) error {
	cfg, err := microns_cli.Config()
	if err != nil {
		return err
	}
	ctl := lifecycle.New(lifecycle.Config{Binary: cfg.Orchestrator.Binary, DryRun: true})
	line, err := ctl.CommandLine(argsFor(cfg.ManifestFile))
	if err != nil {
		return err
	}
	if err := action(ctl, rc.Ctx, cfg.ManifestFile, cfg.ProjectRoot); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Would run in %s:\n  %s\n", cfg.ProjectRoot, line)
	return nil
}

// quietController does not stream: its output is the command's result.
func quietController() (*lifecycle.Controller, error) {
	cfg, err := microns_cli.Config()
	if err != nil {
		return nil, err
	}
	return lifecycle.New(lifecycle.Config{
		Binary:  cfg.Orchestrator.Binary,
		Timeout: cfg.Orchestrator.Timeout,
	}), nil
}

func init() {
	upCmd.Flags().Bool("generate", false, "regenerate the manifest before starting")
	upCmd.Flags().Bool("dry-run", false, "print the compose command instead of running it")
	downCmd.Flags().Bool("dry-run", false, "print the compose command instead of running it")
	psCmd.Flags().Bool("orchestrator", false, "ask the compose binary instead of the Docker API")
}
