package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/seenimoa/quotechat/pkg/models"
)

// ErrAdapterNotFound is returned when a requested adapter is not registered.
type ErrAdapterNotFound struct {
	Name string
}

func (e *ErrAdapterNotFound) Error() string {
	return fmt.Sprintf("adapter %q not found", e.Name)
}

// Registry is a thread-safe registry of quote adapters plus the ordered
// chain of adapter names tried for each asset class.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	chains   map[models.AssetClass][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		chains:   make(map[models.AssetClass][]string),
	}
}

// Register adds an adapter. Duplicate registrations overwrite the previous entry.
func (r *Registry) Register(a Adapter) error {
	name := a.Info().Name
	if name == "" {
		return fmt.Errorf("adapter name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = a
	return nil
}

// Get returns an adapter by name.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[name]
	if !ok {
		return nil, &ErrAdapterNotFound{Name: name}
	}
	return a, nil
}

// List returns info about all registered adapters, sorted by name.
func (r *Registry) List() []AdapterInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]AdapterInfo, 0, len(r.adapters))
	for _, a := range r.adapters {
		infos = append(infos, a.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// SetChain sets the ordered adapter names tried for an asset class.
// Names need not be registered yet; Chain skips the ones that are not.
func (r *Registry) SetChain(class models.AssetClass, names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chain := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		chain = append(chain, n)
	}
	r.chains[class] = chain
}

// Chain returns the registered adapters for class in configured order.
func (r *Registry) Chain(class models.AssetClass) []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.chains[class]
	out := make([]Adapter, 0, len(names))
	for _, n := range names {
		if a, ok := r.adapters[n]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Chains returns a copy of the configured chain names per class.
func (r *Registry) Chains() map[models.AssetClass][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[models.AssetClass][]string, len(r.chains))
	for class, names := range r.chains {
		cp := make([]string, len(names))
		copy(cp, names)
		out[class] = cp
	}
	return out
}

// Missing returns chain entries that name no registered adapter.
func (r *Registry) Missing() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	for _, names := range r.chains {
		for _, n := range names {
			if _, ok := r.adapters[n]; !ok {
				missing = append(missing, n)
			}
		}
	}
	sort.Strings(missing)
	return missing
}
