// cmd/serve/serve.go

package serve

import (
	"github.com/CodeMonkeyCybersecurity/microns/pkg/api"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_cli"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/shared"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ServeCmd exposes the registry and generator over HTTP for the web UI.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registry, generator and compose lifecycle over HTTP",
	Long: `Start the HTTP API used by the web UI:

  GET    /list                 detected and registered services
  POST   /services[?replace=]  register a service
  DELETE /services/{name}      remove a service
  POST   /generate             write the compose manifest
  POST   /docker/up            compose up
  POST   /docker/down          compose down
  GET    /status               microns containers known to Docker`,
	Args: cobra.NoArgs,
	RunE: microns_cli.Wrap(func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		c, err := microns_cli.Composer()
		if err != nil {
			return err
		}
		cfg := c.Config()

		handler := api.CORS(cfg.Server.CORSOrigins, api.NewHandler(c).Routes())
		srv, err := api.NewServer(cfg.Server.Addr, handler)
		if err != nil {
			return err
		}
		rc.Log.Info("Serving project",
			zap.String("project_root", cfg.ProjectRoot),
			zap.String("addr", srv.Addr()),
			zap.Strings("cors_origins", cfg.Server.CORSOrigins))
		return srv.Serve(rc.Ctx)
	}),
}

func init() {
	ServeCmd.Flags().String("addr", shared.DefaultListenAddr, "listen address")
	cli.SetConfigKey(ServeCmd.Flags(), "addr", "server.addr")
}
