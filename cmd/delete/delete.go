// cmd/delete/delete.go

package delete

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// DeleteCmd is the root command for delete operations
var DeleteCmd = &cobra.Command{
	Use:     "delete",
	Aliases: []string{"remove", "rm"},
	Short:   "Remove resources (e.g., services)",
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		rc.Log.Info("No subcommand provided for <command>.", zap.String("command", cmd.Use))
		return cmd.Help()
	}),
}

var serviceCmd = &cobra.Command{
	Use:   "service <name>",
	Short: "Remove a service from the registry",
	Long: `Remove every registry entry named <name>. Removing a name that is not
registered is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		name := args[0]
		c, err := microns_cli.Composer()
		if err != nil {
			return err
		}
		found, err := c.DeleteService(rc.Ctx, name)
		if err != nil {
			return err
		}
		if !found {
			rc.Log.Warn("Service was not registered", zap.String("service", name))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Service '%s' deleted.\n", name)
		return nil
	}),
}

func init() {
	DeleteCmd.AddCommand(serviceCmd)
}
