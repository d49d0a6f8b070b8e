package registry

import (
	"fmt"
	"log/slog"
)

// RegisterStep registers a step implementation. Registration mistakes are
// programmer errors and panic.
func (r *Registry) RegisterStep(step *RegisteredStep) {
	if step == nil || step.Name == "" {
		panic("step registration requires a name")
	}
	if step.Fn == nil {
		panic(fmt.Sprintf("step '%s' registered without a function", step.Name))
	}
	if _, exists := r.steps[step.Name]; exists {
		panic(fmt.Sprintf("step with name '%s' already registered", step.Name))
	}
	if step.NewParams == nil {
		step.NewParams = func() any { return &struct{}{} }
	}
	slog.Debug("Registering step.", "name", step.Name, "ref_types", step.RefTypes)
	r.steps[step.Name] = step
}
