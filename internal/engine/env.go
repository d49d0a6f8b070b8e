package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/irispipe/internal/association"
	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/datamodels"
)

// stepEnv is the registry.Env a single step invocation sees.
type stepEnv struct {
	engine  *Engine
	step    PlannedStep
	product *association.Product
	// meta describes the exposure being calibrated and drives reference selection.
	meta *datamodels.Meta
	used map[string]string
}

func (s *stepEnv) Reference(ctx context.Context, refType string) (string, error) {
	if !s.step.Step.UsesReference(refType) {
		return "", fmt.Errorf("step '%s' did not declare reference type '%s'", s.step.Name, refType)
	}
	if s.engine.refs == nil {
		return "", fmt.Errorf("no reference source configured for '%s'", refType)
	}
	instrument := strings.ToLower(strings.TrimSpace(s.meta.Instrument))
	if instrument == "" {
		return "", fmt.Errorf("exposure has no %s keyword, cannot select a '%s' reference", datamodels.KeyInstrument, refType)
	}

	path, err := s.engine.refs.Resolve(ctx, instrument, refType, s.meta)
	if err != nil {
		return "", fmt.Errorf("resolve '%s' reference: %w", refType, err)
	}
	s.used[refType] = path
	ctxlog.FromContext(ctx).Debug("Using reference.", "type", refType, "path", path)
	return path, nil
}

func (s *stepEnv) Open(modelName, path string) (datamodels.Model, error) {
	return s.engine.models.Open(modelName, path)
}

func (s *stepEnv) New(modelName string, rows, cols int) (datamodels.Model, error) {
	return s.engine.models.New(modelName, rows, cols)
}

func (s *stepEnv) Members(role association.Role) []*association.Member {
	return s.product.ByRole(role)
}
