package registry

import (
	"context"
	"sort"

	"github.com/vk/irispipe/internal/association"
	"github.com/vk/irispipe/internal/datamodels"
)

// Module is the interface that all step modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Env is what the engine offers a running step.
type Env interface {
	// Reference resolves a reference file of a type the step declared.
	Reference(ctx context.Context, refType string) (string, error)
	// Open loads a model through the engine's model source.
	Open(modelName, path string) (datamodels.Model, error)
	// New allocates an empty model through the engine's model source.
	New(modelName string, rows, cols int) (datamodels.Model, error)
	// Members lists the current product's members with the given role.
	Members(role association.Role) []*association.Member
}

// StepFunc applies a step to the input model and returns the result. The
// engine passes a private copy of the input, so a step may mutate it.
type StepFunc func(ctx context.Context, env Env, input datamodels.Model, params any) (datamodels.Model, error)

// RegisteredStep holds the compiled parts of a calibration step.
type RegisteredStep struct {
	Name        string
	Description string
	// Keyword records completion in product metadata, e.g. "S_FLAT".
	Keyword string
	// RefTypes are the reference file types the step may look up.
	RefTypes []string
	// NewParams returns a pointer to a parameter struct holding defaults.
	NewParams func() any
	Fn        StepFunc
}

// UsesReference reports whether refType is declared by the step.
func (s *RegisteredStep) UsesReference(refType string) bool {
	for _, rt := range s.RefTypes {
		if rt == refType {
			return true
		}
	}
	return false
}

// ParamsValidator is implemented by parameter structs that check their
// decoded values before a run starts.
type ParamsValidator interface {
	Validate() error
}

// Registry holds all registered steps for a single application instance.
type Registry struct {
	steps map[string]*RegisteredStep
}

// New creates a registry and registers the given modules into it.
func New(modules ...Module) *Registry {
	r := &Registry{steps: make(map[string]*RegisteredStep)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Lookup returns the step registered under name.
func (r *Registry) Lookup(name string) (*RegisteredStep, bool) {
	s, ok := r.steps[name]
	return s, ok
}

// Names lists the registered step names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.steps))
	for n := range r.steps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
