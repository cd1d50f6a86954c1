// cmd/compose/compose.go

package compose

import (
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ComposeCmd drives docker compose against the generated manifest.
var ComposeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Bring the generated stack up or down with docker compose",
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		rc.Log.Info("No subcommand provided for <command>.", zap.String("command", cmd.Use))
		return cmd.Help()
	}),
}

func init() {
	ComposeCmd.AddCommand(upCmd, downCmd, psCmd, versionCmd)
}
