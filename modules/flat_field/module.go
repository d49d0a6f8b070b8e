package flat_field

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
	// MinFlat is the lowest flat value that is still divided by.
	MinFlat float64 `step:"min_flat"`
}

// OnRunFlatField divides the science array by the flat reference. Pixels
// whose flat is not finite or not above MinFlat keep their value and get
// DQNoFlatField.
func OnRunFlatField(ctx context.Context, env registry.Env, input datamodels.Model, params any) (datamodels.Model, error) {
	p := params.(*Params)
	logger := ctxlog.FromContext(ctx)

	path, err := env.Reference(ctx, "flat")
	if err != nil {
		return nil, err
	}
	flat, err := env.Open(datamodels.FlatModelName, path)
	if err != nil {
		return nil, err
	}
	if err := datamodels.CheckShape(input, flat); err != nil {
		return nil, err
	}

	_, cols := input.Shape()
	dq := input.DQ()
	refDQ := flat.DQ()
	f := flat.Data()
	flagged := 0

	sci := input.Data()
	sci.Apply(func(i, j int, v float64) float64 {
		k := i*cols + j
		dq[k] |= refDQ[k] & datamodels.DQDoNotUse
		fv := f.At(i, j)
		if math.IsNaN(fv) || math.IsInf(fv, 0) || fv <= p.MinFlat {
			dq[k] |= datamodels.DQNoFlatField
			flagged++
			return v
		}
		return v / fv
	}, sci)

	logger.Debug("Flat applied.", "min_flat", p.MinFlat, "flagged", flagged)
	return input, nil
}

// Register registers the step with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep(&registry.RegisteredStep{
		Name:        "flat_field",
		Description: "Divide by the flat-field reference.",
		Keyword:     "S_FLAT",
		RefTypes:    []string{"flat"},
		NewParams:   func() any { return &Params{} },
		Fn:          OnRunFlatField,
	})
}
