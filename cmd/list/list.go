// cmd/list/list.go

package list

import (
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ListCmd is the root command for list operations
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered and detected services",
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		rc.Log.Info("No subcommand provided for <command>.", zap.String("command", cmd.Use))
		return cmd.Help()
	}),
}

func init() {
	ListCmd.AddCommand(servicesCmd)
}
