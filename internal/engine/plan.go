package engine

import (
	"context"
	"fmt"

	"github.com/vk/irispipe/internal/config"
	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/datamodels"
	"github.com/vk/irispipe/internal/pipeerr"
	"github.com/vk/irispipe/internal/registry"
)

// Plan is a resolved profile: the enabled steps in order, each with its
// decoded parameters.
type Plan struct {
	Name        string
	Steps       []PlannedStep
	SaveResults bool
	OutputDir   string
	Suffix      string
}

// PlannedStep is one step ready to run.
type PlannedStep struct {
	Name   string
	Step   *registry.RegisteredStep
	Params any
}

// StepNames lists the planned steps in execution order.
func (p *Plan) StepNames() []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Name
	}
	return names
}

// Product is a calibrated science exposure.
type Product struct {
	// Name is the product name the output file is derived from.
	Name string
	// Exposure is the science member the product was calibrated from.
	Exposure string
	// Path is where the product was written; empty when results are not saved.
	Path  string
	Model datamodels.Model
}

// BuildPlan validates p against the registry and decodes the parameters of
// every enabled step. Disabled steps are left out of the plan entirely.
func BuildPlan(ctx context.Context, steps *registry.Registry, conv config.Converter, p *config.Profile) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)

	if err := steps.ValidateProfile(ctx, p); err != nil {
		return nil, err
	}

	plan := &Plan{
		Name:        p.Name,
		SaveResults: p.SaveResults,
		OutputDir:   p.OutputDir,
		Suffix:      p.Suffix,
	}
	if plan.Suffix == "" {
		plan.Suffix = config.DefaultSuffix
	}

	enabled := p.EnabledSteps()
	if skipped := len(p.Steps) - len(enabled); skipped > 0 {
		logger.Debug("Disabled steps left out of the plan.", "skipped", skipped)
	}
	for _, spec := range enabled {
		step, _ := steps.Lookup(spec.Name)
		params := step.NewParams()
		if err := conv.DecodeParams(ctx, params, spec.Params); err != nil {
			return nil, pipeerr.WrapConfig(err, "step '%s' at %s", spec.Name, spec.Source)
		}
		if v, ok := params.(registry.ParamsValidator); ok {
			if err := v.Validate(); err != nil {
				return nil, pipeerr.WrapConfig(err, "step '%s' at %s", spec.Name, spec.Source)
			}
		}
		plan.Steps = append(plan.Steps, PlannedStep{Name: spec.Name, Step: step, Params: params})
	}

	if len(plan.Steps) == 0 {
		logger.Warn("Plan has no enabled steps, products will be copies of their inputs.", "profile", p.Name)
	}
	logger.Debug("Plan built.", "profile", p.Name, "steps", fmt.Sprint(plan.StepNames()))
	return plan, nil
}
