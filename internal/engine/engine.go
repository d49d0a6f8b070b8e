package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/irispipe/internal/association"
	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/datamodels"
	"github.com/vk/irispipe/internal/pipeerr"
)

// StatusComplete is written to a step's keyword once it has run.
const StatusComplete = "COMPLETE"

// References resolves reference files for an exposure.
type References interface {
	Resolve(ctx context.Context, instrument, refType string, meta *datamodels.Meta) (string, error)
}

// Engine runs plans against associations.
type Engine struct {
	refs   References
	models datamodels.Source
}

// Option configures an Engine.
type Option func(*Engine)

// WithModels makes the engine resolve model classes from src instead of the
// process-wide registry.
func WithModels(src datamodels.Source) Option {
	return func(e *Engine) { e.models = src }
}

// New creates an engine resolving reference files through refs.
func New(refs References, opts ...Option) *Engine {
	e := &Engine{refs: refs}
	for _, opt := range opts {
		opt(e)
	}
	if e.models == nil {
		e.models = datamodels.Default()
	}
	return e
}

// Execute calibrates every science member of asn with plan. Products are
// written only once every exposure has been calibrated; on any failure no
// product is returned or written.
func (e *Engine) Execute(ctx context.Context, asn *association.Association, plan *Plan) ([]*Product, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("▶️ Executing plan.", "plan", plan.Name, "steps", len(plan.Steps), "products", len(asn.Products))

	var products []*Product
	for _, p := range asn.Products {
		science := p.ByRole(association.RoleScience)
		for _, member := range science {
			model, err := e.calibrate(ctx, p, member, plan)
			if err != nil {
				return nil, err
			}
			products = append(products, &Product{
				Name:     productName(p, member, len(science)),
				Exposure: member.ExpName,
				Model:    model,
			})
		}
	}

	if plan.SaveResults {
		dir := plan.OutputDir
		if dir == "" {
			dir = asn.Dir
		}
		if err := saveAll(ctx, dir, plan.Suffix, products); err != nil {
			return nil, err
		}
	}

	logger.Info("✅ Plan finished.", "plan", plan.Name, "products", len(products))
	return products, nil
}

// saveAll writes every product to a staging file next to its destination and
// renames them into place only once all writes succeeded. On failure every
// staging file and every product already renamed is removed.
func saveAll(ctx context.Context, dir, suffix string, products []*Product) error {
	logger := ctxlog.FromContext(ctx)

	staged := make([]string, 0, len(products))
	cleanup := func(placed []string) {
		for _, path := range append(staged, placed...) {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("Could not remove partial product.", "path", path, "error", err)
			}
		}
	}

	for _, prod := range products {
		path := filepath.Join(dir, prod.Name+"_"+suffix+".fits")
		tmp := filepath.Join(dir, "."+filepath.Base(path)+".partial")
		staged = append(staged, tmp)
		if err := prod.Model.Save(tmp); err != nil {
			cleanup(nil)
			return pipeerr.Upstream("save", prod.Exposure, err)
		}
		prod.Path = path
	}

	placed := make([]string, 0, len(products))
	for i, prod := range products {
		if err := os.Rename(staged[i], prod.Path); err != nil {
			staged = staged[i:]
			cleanup(placed)
			for _, p := range products {
				p.Path = ""
			}
			return pipeerr.Upstream("save", prod.Exposure, err)
		}
		placed = append(placed, prod.Path)
		logger.Info("Product written.", "exposure", prod.Exposure, "path", prod.Path)
	}
	return nil
}

// calibrate runs every planned step over one science exposure.
func (e *Engine) calibrate(ctx context.Context, p *association.Product, member *association.Member, plan *Plan) (datamodels.Model, error) {
	ctx = ctxlog.With(ctx, "exposure", member.ExpName)
	logger := ctxlog.FromContext(ctx)

	model, err := e.models.Open(datamodels.ImageModelName, member.Path)
	if err != nil {
		return nil, pipeerr.WrapAssociation(err, member.ExpName, "open exposure")
	}
	logger.Debug("Exposure opened.", "class", fmt.Sprintf("%T", model))

	for _, ps := range plan.Steps {
		out, err := e.runStep(ctx, p, ps, model)
		if err != nil {
			return nil, pipeerr.Upstream(ps.Name, member.ExpName, err)
		}
		model = out
	}
	return model, nil
}

func (e *Engine) runStep(ctx context.Context, p *association.Product, ps PlannedStep, input datamodels.Model) (datamodels.Model, error) {
	ctx = ctxlog.With(ctx, "step", ps.Name)
	logger := ctxlog.FromContext(ctx)
	logger.Info("▶️ Starting step")

	env := &stepEnv{engine: e, step: ps, product: p, meta: input.Meta(), used: make(map[string]string)}
	out, err := ps.Step.Fn(ctx, env, input.Clone(), ps.Params)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("step returned no model")
	}

	meta := out.Meta()
	if ps.Step.Keyword != "" {
		if err := meta.Set(ps.Step.Keyword, StatusComplete); err != nil {
			return nil, err
		}
	}
	for _, refType := range ps.Step.RefTypes {
		path, ok := env.used[refType]
		if !ok {
			continue
		}
		if err := meta.Set("R_"+strings.ToUpper(refType), filepath.Base(path)); err != nil {
			return nil, err
		}
	}

	logger.Info("✅ Finished step")
	return out, nil
}

// productName names a product after its association product when it holds a
// single science exposure, and after the exposure file otherwise.
func productName(p *association.Product, m *association.Member, science int) string {
	if science == 1 && p.Name != "" {
		return p.Name
	}
	base := filepath.Base(m.ExpName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
