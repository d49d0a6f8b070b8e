package bkg_subtract

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/vk/irispipe/internal/association"
	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/datamodels"
	"github.com/vk/irispipe/internal/registry"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params are the step's tunables.
type Params struct {
	// Combine is how background exposures are merged: "mean" or "median".
	Combine string  `step:"combine"`
	Scale   float64 `step:"scale"`
}

func (p *Params) Validate() error {
	switch p.Combine {
	case "mean", "median":
		return nil
	}
	return fmt.Errorf("combine must be \"mean\" or \"median\", got %q", p.Combine)
}

// OnRunBkgSubtract combines the product's background exposures pixel by pixel
// and subtracts the result from the science array.
func OnRunBkgSubtract(ctx context.Context, env registry.Env, input datamodels.Model, params any) (datamodels.Model, error) {
	p := params.(*Params)
	logger := ctxlog.FromContext(ctx)

	members := env.Members(association.RoleBackground)
	if len(members) == 0 {
		return nil, fmt.Errorf("product has no %s members", association.RoleBackground)
	}

	backgrounds := make([]*mat.Dense, 0, len(members))
	for _, m := range members {
		bkg, err := env.Open(datamodels.ImageModelName, m.Path)
		if err != nil {
			return nil, fmt.Errorf("background %s: %w", m.ExpName, err)
		}
		if err := datamodels.CheckShape(input, bkg); err != nil {
			return nil, fmt.Errorf("background %s: %w", m.ExpName, err)
		}
		backgrounds = append(backgrounds, bkg.Data())
	}

	rows, cols := input.Shape()
	bkg, err := env.New(datamodels.ImageModelName, rows, cols)
	if err != nil {
		return nil, fmt.Errorf("combined background: %w", err)
	}
	combine(p.Combine, backgrounds, bkg.Data())
	combined := bkg.Data()

	dq := input.DQ()
	sci := input.Data()
	sci.Apply(func(i, j int, v float64) float64 {
		b := combined.At(i, j)
		if math.IsNaN(b) {
			dq[i*cols+j] |= datamodels.DQNoBackground
			return v
		}
		return v - p.Scale*b
	}, sci)

	logger.Debug("Background subtracted.", "members", len(members), "combine", p.Combine, "scale", p.Scale)
	return input, nil
}

// combine merges the frames per pixel into out, ignoring non-finite values.
// A pixel with no finite value in any frame is NaN.
func combine(method string, frames []*mat.Dense, out *mat.Dense) {
	rows, cols := out.Dims()
	vals := make([]float64, 0, len(frames))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			vals = vals[:0]
			for _, f := range frames {
				if v := f.At(i, j); !math.IsNaN(v) && !math.IsInf(v, 0) {
					vals = append(vals, v)
				}
			}
			out.Set(i, j, reduce(method, vals))
		}
	}
}

func reduce(method string, vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	if method == "mean" {
		return stat.Mean(vals, nil)
	}
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}

// Register registers the step with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep(&registry.RegisteredStep{
		Name:        "bkg_subtract",
		Description: "Subtract the combined background exposures.",
		Keyword:     "S_BKDSUB",
		NewParams:   func() any { return &Params{Combine: "mean", Scale: 1} },
		Fn:          OnRunBkgSubtract,
	})
}
