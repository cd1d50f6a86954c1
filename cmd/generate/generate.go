// cmd/generate/generate.go

package generate

import (
	"context"
	"fmt"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/watch"
	"github.com/spf13/cobra"
)

// GenerateCmd compiles the registry and base template into the compose
// manifest.
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the docker-compose manifest from the registry and base template",
	Long: `Merge the registry into the base template and write the generated
docker-compose manifest. With --watch, keep running and regenerate whenever the
registry or the base template changes.`,
	Args: cobra.NoArgs,
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		watchMode, _ := cmd.Flags().GetBool("watch")
		printText, _ := cmd.Flags().GetBool("print")

		c, err := microns_cli.Composer()
		if err != nil {
			return err
		}

		gen, err := c.GenerateManifest(rc.Ctx)
		if err != nil {
			return err
		}
		if printText {
			fmt.Fprint(cmd.OutOrStdout(), gen.ManifestText)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Manifest written to %s\n", gen.WrittenPath)
		}
		if !watchMode {
			return nil
		}

		w, err := watch.Start(rc.Ctx, watch.Config{
			Paths: c.WatchPaths(),
			OnChange: func(ctx context.Context) error {
				_, err := c.GenerateManifest(ctx)
				return err
			},
		})
		if err != nil {
			return err
		}
		w.Wait()
		rc.Log.Info("Watch stopped")
		return nil
	}),
}

func init() {
	GenerateCmd.Flags().Bool("watch", false, "regenerate when the registry or base template changes")
	GenerateCmd.Flags().Bool("print", false, "print the manifest instead of its path")
}
