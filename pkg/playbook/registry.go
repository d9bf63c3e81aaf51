package playbook

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hydroluxe/prodkb/backend/pkg/ai"
)

// Registry holds one manager per playbook type.
type Registry struct {
	mu       sync.RWMutex
	managers map[Type]*Manager
}

// NewRegistry builds managers for every playbook type, restoring snapshots
// from resultsRoot/<type>.
func NewRegistry(client ai.Client, resultsRoot string) (*Registry, error) {
	if resultsRoot == "" {
		resultsRoot = "results"
	}
	reg := &Registry{managers: map[Type]*Manager{}}
	for _, playbookType := range Types {
		manager, err := NewManager(NewManagerParams{
			Type:       playbookType,
			AI:         client,
			ResultsDir: filepath.Join(resultsRoot, string(playbookType)),
		})
		if err != nil {
			return nil, fmt.Errorf("playbook: init %s: %w", playbookType, err)
		}
		reg.managers[playbookType] = manager
	}
	return reg, nil
}

// Get returns the manager for a type.
func (r *Registry) Get(playbookType Type) (*Manager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	manager, ok := r.managers[playbookType]
	if !ok {
		return nil, fmt.Errorf("playbook: unknown type %q", playbookType)
	}
	return manager, nil
}

// All returns every manager, in Types order.
func (r *Registry) All() []*Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Manager, 0, len(Types))
	for _, playbookType := range Types {
		if manager, ok := r.managers[playbookType]; ok {
			out = append(out, manager)
		}
	}
	return out
}

// SaveAll snapshots every manager, returning the first error.
func (r *Registry) SaveAll() error {
	for _, manager := range r.All() {
		if err := manager.SaveResults(); err != nil {
			return err
		}
	}
	return nil
}
