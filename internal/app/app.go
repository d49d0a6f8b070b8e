package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/irispipe/internal/crds"
	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/datamodels"
	"github.com/vk/irispipe/internal/engine"
	"github.com/vk/irispipe/internal/hcl"
	"github.com/vk/irispipe/internal/iris"
	"github.com/vk/irispipe/internal/pipeline"
	"github.com/vk/irispipe/internal/profiles"
	"github.com/vk/irispipe/internal/registry"
	"github.com/vk/irispipe/internal/yamlprofile"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	config   *Config
	logger   *slog.Logger
	steps    *registry.Registry
	catalog  *profiles.Catalog
	refs     *crds.Client
	resolver *pipeline.Resolver
}

// Option customises an App, mostly for tests.
type Option func(*options)

type options struct {
	modules []registry.Module
	refs    engine.References
}

// WithModules replaces the compiled-in step modules.
func WithModules(modules ...registry.Module) Option {
	return func(o *options) { o.modules = modules }
}

// WithReferences replaces the reference client the engine uses.
func WithReferences(refs engine.References) Option {
	return func(o *options) { o.refs = refs }
}

// NewApp builds an App. It installs the IRIS model overrides into the
// process-wide registry before anything else, so a failure there is returned
// as a configuration error and no run can start.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.modules) == 0 {
		o.modules = coreModules
	}

	if err := iris.InstallOverrides(ctx); err != nil {
		return nil, err
	}

	steps := registry.New(o.modules...)
	logger.Debug("All step modules registered.", "count", len(o.modules), "steps", steps.Names())

	refsClient := crds.NewClient(cfg.CRDS)
	var refs engine.References = refsClient
	if o.refs != nil {
		refs = o.refs
	}

	catalog := profiles.NewCatalog(cfg.ProfileDirs, hcl.NewLoader(), yamlprofile.NewLoader())
	eng := engine.New(refs, engine.WithModels(datamodels.Default()))

	return &App{
		config:   cfg,
		logger:   logger,
		steps:    steps,
		catalog:  catalog,
		refs:     refsClient,
		resolver: pipeline.NewResolver(catalog, steps, hcl.NewConverter(), eng),
	}, nil
}

// Steps returns the application's step registry. This is primarily for testing.
func (a *App) Steps() *registry.Registry {
	return a.steps
}

// Profiles lists the profiles the application can load.
func (a *App) Profiles(ctx context.Context) ([]profiles.Entry, error) {
	return a.catalog.Names(ctxlog.WithLogger(ctx, a.logger))
}

// Models reports the class each canonical model name resolves to.
func (a *App) Models() map[string]string {
	return datamodels.Default().Bindings()
}

// CRDS returns the reference file settings in effect.
func (a *App) CRDS() crds.Config {
	return a.refs.Config()
}
