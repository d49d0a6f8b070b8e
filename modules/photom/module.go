package photom

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/datamodels"
	"github.com/vk/irispipe/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params are the step's tunables.
type Params struct {
	// Unit is written to BUNIT after conversion.
	Unit string `step:"unit"`
}

func (p *Params) Validate() error {
	if strings.TrimSpace(p.Unit) == "" {
		return errors.New("unit must not be empty")
	}
	return nil
}

// OnRunPhotom scales the science array by the PHOTMJSR factor of the photom
// reference and records the resulting unit.
func OnRunPhotom(ctx context.Context, env registry.Env, input datamodels.Model, params any) (datamodels.Model, error) {
	p := params.(*Params)
	logger := ctxlog.FromContext(ctx)

	path, err := env.Reference(ctx, "photom")
	if err != nil {
		return nil, err
	}
	ref, err := env.Open(datamodels.PhotomModelName, path)
	if err != nil {
		return nil, err
	}
	factor, ok := ref.Meta().Float(datamodels.KeyPhotMJSR)
	if !ok {
		return nil, fmt.Errorf("%s: no %s keyword", path, datamodels.KeyPhotMJSR)
	}

	sci := input.Data()
	sci.Scale(factor, sci)
	input.Meta().Units = p.Unit
	if err := input.Meta().Set(datamodels.KeyPhotMJSR, factor); err != nil {
		return nil, err
	}

	logger.Debug("Photometric conversion applied.", "factor", factor, "unit", p.Unit)
	return input, nil
}

// Register registers the step with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep(&registry.RegisteredStep{
		Name:        "photom",
		Description: "Convert counts to surface brightness.",
		Keyword:     "S_PHOTOM",
		RefTypes:    []string{"photom"},
		NewParams:   func() any { return &Params{Unit: "MJy/sr"} },
		Fn:          OnRunPhotom,
	})
}
