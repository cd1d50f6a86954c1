// pkg/lifecycle/controller.go
//
// Drives the external compose orchestrator against the generated manifest.

package lifecycle

import (
	"context"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/execute"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-version"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Config tunes the controller.
type Config struct {
	// Binary overrides orchestrator discovery. It may carry leading
	// arguments, e.g. "docker compose" or "podman-compose".
	Binary string
	// Timeout bounds each invocation; zero means no limit.
	Timeout time.Duration
	// Stream receives live orchestrator output.
	Stream io.Writer
	// DryRun logs each orchestrator command line instead of running it.
	DryRun bool
}

// Controller runs compose up/down. It never retries.
type Controller struct {
	cfg      Config
	lookPath func(string) (string, error)
}

func New(cfg Config) *Controller {
	return &Controller{cfg: cfg, lookPath: exec.LookPath}
}

// UpArgs are the arguments for bringing the stack up from manifestPath.
func UpArgs(manifestPath string) []string {
	return []string{"-f", manifestPath, "up", "--build", "--force-recreate", "--remove-orphans", "-d"}
}

// DownArgs are the arguments for tearing the stack down.
func DownArgs(manifestPath string) []string {
	return []string{"-f", manifestPath, "down"}
}

// Up builds and (re)creates every service in the manifest, detached, removing
// containers of services no longer present.
func (c *Controller) Up(ctx context.Context, manifestPath, workDir string) error {
	_, err := c.run(ctx, "up", workDir, UpArgs(manifestPath))
	return err
}

// Down stops and removes the stack's containers and networks.
func (c *Controller) Down(ctx context.Context, manifestPath, workDir string) error {
	_, err := c.run(ctx, "down", workDir, DownArgs(manifestPath))
	return err
}

// Ps returns the orchestrator's view of the stack.
func (c *Controller) Ps(ctx context.Context, manifestPath, workDir string) (string, error) {
	return c.run(ctx, "ps", workDir, []string{"-f", manifestPath, "ps"})
}

// Version reports the orchestrator version.
func (c *Controller) Version(ctx context.Context) (*version.Version, error) {
	out, err := c.run(ctx, "version", "", []string{"version", "--short"})
	if err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(out)
	if fields := strings.Fields(raw); len(fields) > 0 {
		raw = fields[len(fields)-1]
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return nil, cerr.WithHint(
			cerr.Wrapf(err, "parse orchestrator version %q", strings.TrimSpace(out)),
			"check that the configured orchestrator binary is a compose implementation")
	}
	return v, nil
}

// CommandLine is the shell-quoted orchestrator invocation for args.
func (c *Controller) CommandLine(args []string) (string, error) {
	command, prefix, err := c.Resolve()
	if err != nil {
		return "", err
	}
	return execute.CommandLine(command, append(append([]string{}, prefix...), args...)...), nil
}

// Resolve returns the orchestrator command and its leading arguments: the
// configured binary, else docker-compose, else the docker compose plugin.
func (c *Controller) Resolve() (string, []string, error) {
	if fields := strings.Fields(c.cfg.Binary); len(fields) > 0 {
		if _, err := c.lookPath(fields[0]); err != nil {
			return "", nil, &microns_err.ProcessError{
				Command:    fields[0],
				Args:       fields[1:],
				ExitStatus: -1,
				Err:        cerr.WithHint(err, "orchestrator.binary is set but not found in PATH"),
			}
		}
		return fields[0], fields[1:], nil
	}
	if _, err := c.lookPath("docker-compose"); err == nil {
		return "docker-compose", nil, nil
	}
	if _, err := c.lookPath("docker"); err == nil {
		return "docker", []string{"compose"}, nil
	}
	return "", nil, &microns_err.ProcessError{
		Command:    "docker-compose",
		ExitStatus: -1,
		Err: cerr.WithHint(
			cerr.New("neither docker-compose nor docker CLI with compose plugin found in PATH"),
			"install Docker Compose or set orchestrator.binary"),
	}
}

func (c *Controller) run(ctx context.Context, action, workDir string, args []string) (string, error) {
	log := otelzap.Ctx(ctx)

	command, prefix, err := c.Resolve()
	if err != nil {
		log.Error("No compose orchestrator available", zap.String("action", action), zap.Error(err))
		return "", err
	}
	fullArgs := append(append([]string{}, prefix...), args...)

	log.Info("Running orchestrator",
		zap.String("action", action),
		zap.String("command", execute.CommandLine(command, fullArgs...)),
		zap.String("dir", workDir))

	return execute.Run(ctx, execute.Options{
		Command: command,
		Args:    fullArgs,
		Dir:     workDir,
		Timeout: c.cfg.Timeout,
		Stream:  c.cfg.Stream,
		DryRun:  c.cfg.DryRun,
	})
}
