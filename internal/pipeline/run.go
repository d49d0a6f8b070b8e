package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/irispipe/internal/association"
	"github.com/vk/irispipe/internal/config"
	"github.com/vk/irispipe/internal/engine"
)

// Run is one resolution of an association against a profile.
type Run struct {
	ID          uuid.UUID
	Association *association.Association
	Profile     *config.Profile
	Plan        *engine.Plan

	mu       sync.Mutex
	state    State
	products []*engine.Product
	err      error
	started  time.Time
	finished time.Time
}

func newRun() *Run {
	return &Run{ID: uuid.New(), state: Unconfigured}
}

// State returns the current state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Products returns the calibrated products of a completed run.
func (r *Run) Products() []*engine.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products
}

// Err returns the error a failed run ended with.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Duration is how long execution took; zero until the run is terminal.
func (r *Run) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished.IsZero() {
		return 0
	}
	return r.finished.Sub(r.started)
}

// transition moves the run from one state to another. The expected prior
// state makes misuse observable.
func (r *Run) transition(from, to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != from {
		return fmt.Errorf("run %s: expected state %s, got %s", r.ID, from, r.state)
	}
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("run %s: disallowed transition %s -> %s", r.ID, from, to)
	}
	r.state = to
	switch to {
	case Running:
		r.started = time.Now()
	case Completed, Failed:
		r.finished = time.Now()
	}
	return nil
}

func (r *Run) fail(from State, err error) error {
	if terr := r.transition(from, Failed); terr != nil {
		return terr
	}
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	return err
}
