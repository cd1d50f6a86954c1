// cmd/create/create.go

package create

import (
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CreateCmd is the root command for create operations
var CreateCmd = &cobra.Command{
	Use:     "create",
	Aliases: []string{"add"},
	Short:   "Register resources (e.g., services)",
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		rc.Log.Info("No subcommand provided for <command>.", zap.String("command", cmd.Use))
		return cmd.Help()
	}),
}

func init() {
	CreateCmd.AddCommand(serviceCmd)
}
