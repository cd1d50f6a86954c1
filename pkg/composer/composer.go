// pkg/composer/composer.go
//
// Composer is the boundary every front end (CLI, HTTP, watcher) goes through:
// registry mutations, discovery, manifest generation and orchestrator
// lifecycle.

package composer

import (
	"context"
	"sync"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/compose"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/config"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/container"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/discovery"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/lifecycle"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/registry"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Orchestrator brings the generated stack up and down.
type Orchestrator interface {
	Up(ctx context.Context, manifestPath, workDir string) error
	Down(ctx context.Context, manifestPath, workDir string) error
}

// Listing is the answer to ListServices.
type Listing struct {
	Detected []discovery.Detected `json:"detected"`
	Managed  *registry.Registry   `json:"managed"`
}

// Generated is the answer to GenerateManifest.
type Generated struct {
	ManifestText string `json:"manifest"`
	WrittenPath  string `json:"written_path"`
}

// Composer wires the components together for one project.
type Composer struct {
	cfg          *config.Config
	store        *registry.Store
	orchestrator Orchestrator
	containers   container.Lister

	// genMu serializes template load, render and manifest write.
	genMu    sync.Mutex
	statusMu sync.Mutex
}

// Option customizes a Composer.
type Option func(*Composer)

// WithOrchestrator replaces the compose CLI controller.
func WithOrchestrator(o Orchestrator) Option {
	return func(c *Composer) { c.orchestrator = o }
}

// WithContainerLister sets the Docker API used by Status.
func WithContainerLister(l container.Lister) Option {
	return func(c *Composer) { c.containers = l }
}

// New builds a Composer for cfg. The orchestrator defaults to the compose CLI
// configured by cfg.Orchestrator.
func New(cfg *config.Config, opts ...Option) *Composer {
	c := &Composer{
		cfg:   cfg,
		store: registry.NewStore(cfg.RegistryFile),
		orchestrator: lifecycle.New(lifecycle.Config{
			Binary:  cfg.Orchestrator.Binary,
			Timeout: cfg.Orchestrator.Timeout,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config is the configuration the Composer was built with.
func (c *Composer) Config() *config.Config {
	return c.cfg
}

// ListServices reports buildable service directories alongside the registry.
func (c *Composer) ListServices(ctx context.Context) (*Listing, error) {
	detected, err := discovery.Scan(ctx, c.cfg.ServicesDir)
	if err != nil {
		return nil, err
	}
	reg, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Listing{Detected: detected, Managed: reg}, nil
}

// AddService registers def. A name already registered is rejected unless
// replace is set.
func (c *Composer) AddService(ctx context.Context, def registry.Definition, replace bool) (*registry.Registry, error) {
	ctx, span := telemetry.Start(ctx, "composer.AddService",
		attribute.String("service", def.Name),
		attribute.Bool("infra", def.Infra),
		attribute.Bool("replace", replace))
	defer span.End()

	reg, err := c.store.Add(ctx, def, registry.AddOptions{Replace: replace})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return reg, nil
}

// DeleteService removes name from the registry. Removing an unknown name
// succeeds; found reports whether anything was removed.
func (c *Composer) DeleteService(ctx context.Context, name string) (found bool, err error) {
	ctx, span := telemetry.Start(ctx, "composer.DeleteService", attribute.String("service", name))
	defer span.End()

	_, found, err = c.store.Delete(ctx, name)
	if err != nil {
		span.RecordError(err)
	}
	return found, err
}

// GenerateManifest merges the registry into the base template and writes the
// manifest.
func (c *Composer) GenerateManifest(ctx context.Context) (*Generated, error) {
	ctx, span := telemetry.Start(ctx, "composer.GenerateManifest")
	defer span.End()
	log := otelzap.Ctx(ctx)

	c.genMu.Lock()
	defer c.genMu.Unlock()

	reg, err := c.store.Snapshot(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	tmpl, err := compose.LoadTemplate(ctx, c.cfg.BaseTemplate)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	text, err := compose.Render(compose.Generate(tmpl, reg))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := compose.WriteManifest(ctx, c.cfg.ManifestFile, text); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("services", reg.Len()))
	log.Info("Manifest generated",
		zap.String("path", c.cfg.ManifestFile),
		zap.Int("managed", len(reg.Managed)),
		zap.Int("infra", len(reg.Infra)))
	return &Generated{ManifestText: string(text), WrittenPath: c.cfg.ManifestFile}, nil
}

// OrchestratorUp starts the stack described by the last generated manifest.
func (c *Composer) OrchestratorUp(ctx context.Context) error {
	ctx, span := telemetry.Start(ctx, "composer.OrchestratorUp")
	defer span.End()

	if err := c.orchestrator.Up(ctx, c.cfg.ManifestFile, c.cfg.ProjectRoot); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// OrchestratorDown tears the stack down.
func (c *Composer) OrchestratorDown(ctx context.Context) error {
	ctx, span := telemetry.Start(ctx, "composer.OrchestratorDown")
	defer span.End()

	if err := c.orchestrator.Down(ctx, c.cfg.ManifestFile, c.cfg.ProjectRoot); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Status lists the containers created from the manifest. The Docker client is
// created on first use.
func (c *Composer) Status(ctx context.Context) ([]container.Status, error) {
	c.statusMu.Lock()
	if c.containers == nil {
		cli, err := container.NewClient()
		if err != nil {
			c.statusMu.Unlock()
			return nil, err
		}
		c.containers = cli
	}
	lister := c.containers
	c.statusMu.Unlock()

	statuses, err := container.List(ctx, lister)
	if err != nil {
		return nil, cerr.Wrap(err, "container status")
	}
	return statuses, nil
}

// WatchPaths are the files whose changes should trigger regeneration.
func (c *Composer) WatchPaths() []string {
	return []string{c.cfg.RegistryFile, c.cfg.BaseTemplate}
}
