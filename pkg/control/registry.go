package control

import (
	"sync"

	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
)

// ID addresses a registered controller inside an event log.
type ID uint8

// MaxControllers is the registry capacity. Ids are 0..MaxControllers-1.
const MaxControllers = 255

// Registry assigns ids to controllers in registration order. It never
// shrinks, so an id stays valid for the life of the process.
type Registry struct {
	mu          sync.RWMutex
	controllers []Controller
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends c and returns its id. The 256th registration fails with
// REGISTRY_FULL.
func (r *Registry) Register(c Controller) (ID, error) {
	if c == nil {
		return 0, scribeerrors.New(scribeerrors.ErrCodeInvalidInput, "controller is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.controllers) >= MaxControllers {
		return 0, scribeerrors.New(scribeerrors.ErrCodeRegistryFull, "controller registry is full").
			WithContext("capacity", MaxControllers)
	}
	id := ID(len(r.controllers))
	r.controllers = append(r.controllers, c)
	return id, nil
}

// Lookup resolves id. Unknown ids are CONTROLLER_RANGE errors.
func (r *Registry) Lookup(id ID) (Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(id) >= len(r.controllers) {
		return nil, scribeerrors.Newf(scribeerrors.ErrCodeControllerRange, "controller %d is not registered", id).
			WithContext("registered", len(r.controllers))
	}
	return r.controllers[id], nil
}

// Len returns the number of registered controllers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.controllers)
}

// Each calls fn for every controller in id order.
func (r *Registry) Each(fn func(id ID, c Controller)) {
	r.mu.RLock()
	controllers := append([]Controller(nil), r.controllers...)
	r.mu.RUnlock()

	for i, c := range controllers {
		fn(ID(i), c)
	}
}
