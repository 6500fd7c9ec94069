// Package registry maps model identifiers to bound provider clients plus
// their declared capabilities. The registry is built once at process start
// and injected where needed; there is no global mutable model table.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"text2sql-be/pkg/llm"
)

// Capabilities declares what a registered model can do.
type Capabilities struct {
	StructuredOutput bool
	Streaming        bool
}

// Entry is one registered model: a client already bound to its backend and
// the capabilities the deployment declared for it.
type Entry struct {
	Provider     llm.Provider
	Capabilities Capabilities
}

type Registry struct {
	mu          sync.RWMutex
	entries     map[string]Entry
	defaultName string
}

func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register binds a model name to a client. The first registered model becomes
// the default unless SetDefault overrides it.
func (r *Registry) Register(name string, provider llm.Provider, caps Capabilities) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		r.defaultName = name
	}
	r.entries[name] = Entry{Provider: provider, Capabilities: caps}
}

func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return fmt.Errorf("model %q is not registered", name)
	}
	r.defaultName = name
	return nil
}

// Resolve returns the entry for name, falling back to the default model when
// name is empty or unknown. It fails only when nothing at all is registered.
func (r *Registry) Resolve(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name != "" {
		if entry, ok := r.entries[name]; ok {
			return entry, nil
		}
	}
	if r.defaultName != "" {
		return r.entries[r.defaultName], nil
	}
	return Entry{}, fmt.Errorf("no models registered")
}

// Get returns the entry for an exact name, without default fallback.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// DefaultName is the model Resolve falls back to.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Names lists the registered model identifiers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
