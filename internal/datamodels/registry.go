package datamodels

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownModel is returned when a canonical name is not defined.
var ErrUnknownModel = errors.New("unknown model")

// Class is a constructor capability bound to a canonical model name.
type Class struct {
	// Name is the canonical lookup key, e.g. "ImageModel".
	Name string
	// Type identifies the implementation, e.g. "iris.ImageModel".
	Type string
	Open func(path string) (Model, error)
	New  func(rows, cols int) Model
}

// Source resolves models by canonical name. The engine depends on this
// interface only.
type Source interface {
	Open(name, path string) (Model, error)
	New(name string, rows, cols int) (Model, error)
}

// Registry maps canonical model names to classes.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]Class
}

// NewRegistry creates a registry holding the given classes. Duplicate names panic.
func NewRegistry(classes ...Class) *Registry {
	r := &Registry{classes: make(map[string]Class, len(classes))}
	for _, c := range classes {
		if _, exists := r.classes[c.Name]; exists {
			panic(fmt.Sprintf("model class '%s' already defined", c.Name))
		}
		r.classes[c.Name] = c
	}
	return r
}

// Lookup returns the class bound to name.
func (r *Registry) Lookup(name string) (Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	if !ok {
		return Class{}, fmt.Errorf("%w %q", ErrUnknownModel, name)
	}
	return c, nil
}

// Open loads path with the class bound to name.
func (r *Registry) Open(name, path string) (Model, error) {
	c, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return c.Open(path)
}

// New allocates an empty model with the class bound to name.
func (r *Registry) New(name string, rows, cols int) (Model, error) {
	c, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid shape %dx%d", rows, cols)
	}
	return c.New(rows, cols), nil
}

// Names lists the canonical names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.classes))
	for n := range r.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Bindings reports which implementation each name currently resolves to.
func (r *Registry) Bindings() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.classes))
	for n, c := range r.classes {
		out[n] = c.Type
	}
	return out
}

// Rebind replaces the classes bound to existing names. Either every entry is
// applied or, when any name is undefined, none is.
func (r *Registry) Rebind(overrides map[string]Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var missing []string
	for name := range overrides {
		if _, ok := r.classes[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrUnknownModel, strings.Join(missing, ", "))
	}
	for name, c := range overrides {
		c.Name = name
		r.classes[name] = c
	}
	return nil
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry the engine resolves models from,
// seeded with GenericClasses on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(GenericClasses()...)
	})
	return defaultRegistry
}

// ResetDefault restores the process-wide registry to the generic classes.
// Tests only.
func ResetDefault() {
	defaultOnce = sync.Once{}
	defaultRegistry = nil
}
