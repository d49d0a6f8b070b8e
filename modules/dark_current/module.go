package dark_current

import (
	"context"
	"math"

	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/datamodels"
	"github.com/vk/irispipe/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params are the step's tunables.
type Params struct {
	// Scale multiplies the dark before subtraction.
	Scale float64 `step:"scale"`
}

// OnRunDarkCurrent subtracts the dark reference from the science array.
// Pixels where the dark is not finite are left alone and flagged.
func OnRunDarkCurrent(ctx context.Context, env registry.Env, input datamodels.Model, params any) (datamodels.Model, error) {
	p := params.(*Params)
	logger := ctxlog.FromContext(ctx)

	path, err := env.Reference(ctx, "dark")
	if err != nil {
		return nil, err
	}
	dark, err := env.Open(datamodels.DarkModelName, path)
	if err != nil {
		return nil, err
	}
	if err := datamodels.CheckShape(input, dark); err != nil {
		return nil, err
	}

	_, cols := input.Shape()
	dq := input.DQ()
	refDQ := dark.DQ()
	d := dark.Data()
	flagged := 0

	sci := input.Data()
	sci.Apply(func(i, j int, v float64) float64 {
		k := i*cols + j
		dq[k] |= refDQ[k] & datamodels.DQDoNotUse
		dv := d.At(i, j)
		if math.IsNaN(dv) || math.IsInf(dv, 0) {
			dq[k] |= datamodels.DQNoDarkCorr
			flagged++
			return v
		}
		return v - p.Scale*dv
	}, sci)

	logger.Debug("Dark subtracted.", "scale", p.Scale, "flagged", flagged)
	return input, nil
}

// Register registers the step with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep(&registry.RegisteredStep{
		Name:        "dark_current",
		Description: "Subtract the dark current reference.",
		Keyword:     "S_DARK",
		RefTypes:    []string{"dark"},
		NewParams:   func() any { return &Params{Scale: 1} },
		Fn:          OnRunDarkCurrent,
	})
}
