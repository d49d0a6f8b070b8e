package app

import (
	"context"
	"errors"

	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/pipeerr"
	"github.com/vk/irispipe/internal/pipeline"
)

// Run calibrates the configured association with the configured profile.
func (a *App) Run(ctx context.Context) (*pipeline.Run, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.AssociationPath == "" {
		return nil, pipeerr.WrapAssociation(errors.New("no association given"), "", "nothing to calibrate")
	}

	run, err := a.resolver.Resolve(ctx, a.config.AssociationPath, a.config.Profile)
	if err != nil {
		return run, err
	}
	if a.config.OutputDir != "" {
		run.Plan.OutputDir = a.config.OutputDir
	}

	a.logger.Info("🚀 Starting calibration.", "run_id", run.ID, "profile", run.Profile.Name, "steps", run.Plan.StepNames())
	if _, err := a.resolver.Execute(ctx, run); err != nil {
		return run, err
	}
	for _, p := range run.Products() {
		a.logger.Info("Product ready.", "run_id", run.ID, "name", p.Name, "path", p.Path)
	}
	a.logger.Info("🏁 Calibration finished.", "run_id", run.ID, "duration", run.Duration())
	return run, nil
}
