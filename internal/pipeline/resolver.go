package pipeline

import (
	"context"

	"github.com/vk/irispipe/internal/association"
	"github.com/vk/irispipe/internal/config"
	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/engine"
	"github.com/vk/irispipe/internal/registry"
)

// Profiles loads a profile by name or path.
type Profiles interface {
	Load(ctx context.Context, ref string) (*config.Profile, error)
}

// Executor runs a plan over an association.
type Executor interface {
	Execute(ctx context.Context, asn *association.Association, plan *engine.Plan) ([]*engine.Product, error)
}

// Resolver turns (association, profile) pairs into runs.
type Resolver struct {
	profiles  Profiles
	steps     *registry.Registry
	converter config.Converter
	executor  Executor
}

// NewResolver creates a resolver.
func NewResolver(profiles Profiles, steps *registry.Registry, conv config.Converter, exec Executor) *Resolver {
	return &Resolver{profiles: profiles, steps: steps, converter: conv, executor: exec}
}

// Resolve loads and validates the association and the profile and builds the
// plan. Nothing is executed. On error the returned run is Failed.
func (r *Resolver) Resolve(ctx context.Context, associationPath, profileRef string) (*Run, error) {
	run := newRun()
	ctx = ctxlog.With(ctx, "run_id", run.ID.String())
	logger := ctxlog.FromContext(ctx)
	logger.Info("Resolving run.", "association", associationPath, "profile", profileRef)

	asn, err := association.Load(associationPath)
	if err != nil {
		return run, run.fail(Unconfigured, err)
	}
	run.Association = asn
	logger.Debug("Association loaded.", "products", len(asn.Products), "science", len(asn.Science()))

	profile, err := r.profiles.Load(ctx, profileRef)
	if err != nil {
		return run, run.fail(Unconfigured, err)
	}
	run.Profile = profile

	plan, err := engine.BuildPlan(ctx, r.steps, r.converter, profile)
	if err != nil {
		return run, run.fail(Unconfigured, err)
	}
	run.Plan = plan

	if err := run.transition(Unconfigured, Resolved); err != nil {
		return run, err
	}
	logger.Info("Run resolved.", "profile", profile.Name, "steps", plan.StepNames())
	return run, nil
}

// Execute runs a resolved run to completion.
func (r *Resolver) Execute(ctx context.Context, run *Run) ([]*engine.Product, error) {
	if err := run.transition(Resolved, Running); err != nil {
		return nil, err
	}
	ctx = ctxlog.With(ctx, "run_id", run.ID.String())
	logger := ctxlog.FromContext(ctx)

	products, err := r.executor.Execute(ctx, run.Association, run.Plan)
	if err != nil {
		logger.Error("Run failed.", "error", err)
		return nil, run.fail(Running, err)
	}

	run.mu.Lock()
	run.products = products
	run.mu.Unlock()
	if err := run.transition(Running, Completed); err != nil {
		return nil, err
	}
	logger.Info("Run completed.", "products", len(products), "duration", run.Duration())
	return products, nil
}

// Run resolves and executes in one call.
func (r *Resolver) Run(ctx context.Context, associationPath, profileRef string) (*Run, error) {
	run, err := r.Resolve(ctx, associationPath, profileRef)
	if err != nil {
		return run, err
	}
	_, err = r.Execute(ctx, run)
	return run, err
}
