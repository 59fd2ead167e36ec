package board

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Constructor builds a fresh descriptor value for one board name.
type Constructor func() *Descriptor

// Registry maps board names to descriptor constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a constructor. Each name may be registered once.
func (r *Registry) Register(name string, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBoard, name)
	}
	r.ctors[name] = ctor
	return nil
}

// MustRegister is Register for package init; it panics on duplicates.
func (r *Registry) MustRegister(name string, ctor Constructor) {
	if err := r.Register(name, ctor); err != nil {
		panic(err)
	}
}

// Lookup builds the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownBoardError{Name: name, Known: r.Names()}
	}
	d := ctor()
	d.Name = name
	return d, nil
}

// Names lists registered boards in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.ctors))
}

var defaultRegistry = NewRegistry()

// Default is the process-wide registry holding the built-in boards.
func Default() *Registry { return defaultRegistry }

// Lookup resolves a built-in board by name.
func Lookup(name string) (*Descriptor, error) { return defaultRegistry.Lookup(name) }
