// cmd/create/service.go

package create

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var serviceCmd = &cobra.Command{
	Use:   "service <name>",
	Short: "Add a managed or infrastructure service to the registry",
	Long: `Add a service to the registry.

A managed service is built from ./services/<name>. An infrastructure service
(--infra) runs a pre-built image and may publish ports and set environment
variables.

Examples:
  microns create service api --volume ./data:/data
  microns create service redis --infra --image redis:7 --port 6379:6379
  microns create service db --infra --image postgres:16 --env POSTGRES_PASSWORD=secret --generate`,
	Args: cobra.ExactArgs(1),
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		def, err := definitionFromFlags(args[0], cmd.Flags())
		if err != nil {
			return err
		}
		replace, _ := cmd.Flags().GetBool("replace")
		generate, _ := cmd.Flags().GetBool("generate")

		c, err := microns_cli.Composer()
		if err != nil {
			return err
		}
		reg, err := c.AddService(rc.Ctx, def, replace)
		if err != nil {
			return err
		}
		rc.Log.Info("Service added",
			zap.String("service", def.Name),
			zap.String("kind", def.Kind()),
			zap.Int("registered", reg.Len()))
		fmt.Fprintf(cmd.OutOrStdout(), "Service %q added (%s).\n", def.Name, def.Kind())

		if !generate {
			return nil
		}
		gen, err := c.GenerateManifest(rc.Ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Manifest written to %s\n", gen.WrittenPath)
		return nil
	}),
}

func init() {
	addServiceFlags(serviceCmd.Flags())
}

func addServiceFlags(f *pflag.FlagSet) {
	f.Bool("infra", false, "register an infrastructure service running a pre-built image")
	f.String("image", "", "container image (required with --infra)")
	f.StringArray("port", nil, "published port, repeatable (infra only)")
	f.StringArray("env", nil, "environment entry KEY=VALUE, repeatable (infra only)")
	f.StringArray("volume", nil, "volume mount, repeatable")
	f.Bool("replace", false, "overwrite an existing service with the same name")
	f.Bool("generate", false, "regenerate the compose manifest afterwards")
}

// definitionFromFlags builds an add request. Optional fields are set only for
// flags given on the command line, so an explicit empty list is kept apart
// from an absent one.
func definitionFromFlags(name string, f *pflag.FlagSet) (registry.Definition, error) {
	def := registry.Definition{Name: name}

	var err error
	if def.Infra, err = f.GetBool("infra"); err != nil {
		return def, err
	}
	if def.Image, err = f.GetString("image"); err != nil {
		return def, err
	}

	if f.Changed("volume") {
		vals, err := f.GetStringArray("volume")
		if err != nil {
			return def, err
		}
		def.Volumes = registry.Some(vals)
	}
	if f.Changed("port") {
		vals, err := f.GetStringArray("port")
		if err != nil {
			return def, err
		}
		def.Ports = registry.Some(vals)
	}
	if f.Changed("env") {
		vals, err := f.GetStringArray("env")
		if err != nil {
			return def, err
		}
		def.Environment = registry.Some(registry.EnvFromList(vals...))
	}
	return def, nil
}
