// cmd/list/services.go

package list

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/composer"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servicesCmd = &cobra.Command{
	Use:     "services",
	Aliases: []string{"service", "svc"},
	Short:   "Show service directories found under services/ and the registry",
	Args:    cobra.NoArgs,
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		c, err := microns_cli.Composer()
		if err != nil {
			return err
		}
		listing, err := c.ListServices(rc.Ctx)
		if err != nil {
			return err
		}
		rc.Log.Info("Services listed",
			zap.Int("detected", len(listing.Detected)),
			zap.Int("registered", listing.Managed.Len()))

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(listing)
		}
		return printListing(cmd.OutOrStdout(), listing)
	}),
}

func init() {
	servicesCmd.Flags().Bool("json", false, "print the listing as JSON")
}

// printListing writes one row per registry entry followed by detected build
// contexts that are not registered yet.
func printListing(out io.Writer, l *composer.Listing) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tSOURCE\tVOLUMES")

	registered := make(map[string]bool, l.Managed.Len())
	for _, s := range l.Managed.Managed {
		registered[s.Name] = true
		fmt.Fprintf(tw, "%s\tmanaged\t./services/%s\t%s\n", s.Name, s.Name, joinOptional(s.Volumes.Get()))
	}
	for _, s := range l.Managed.Infra {
		registered[s.Name] = true
		fmt.Fprintf(tw, "%s\tinfra\t%s\t%s\n", s.Name, s.Image, joinOptional(s.Volumes.Get()))
	}
	for _, d := range l.Detected {
		if registered[d.Name] {
			continue
		}
		fmt.Fprintf(tw, "%s\tdetected\t%s\t-\n", d.Name, d.Path)
	}
	return tw.Flush()
}

func joinOptional(vals []string, ok bool) string {
	if !ok || len(vals) == 0 {
		return "-"
	}
	return strings.Join(vals, ",")
}
