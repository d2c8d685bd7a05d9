// Package registry holds the current set of loaded specifications and
// answers lookups from concurrent validation workers.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"specgate/internal/domain"
	"specgate/internal/spec"
)

// ErrNotFound is returned by Lookup for an unregistered (namespace, name)
// pair. Callers match it with errors.Is and decide whether an unknown tool is
// fatal or a generation failure to retry.
var ErrNotFound = errors.New("spec not found")

// namespaceSet is one namespace's fully-built contents. Replace installs a
// new set as a single pointer-sized write under the lock, so a reader never
// observes a half-replaced namespace.
type namespaceSet struct {
	specs  []*spec.Spec
	byName map[string]*spec.Spec
}

// Registry maps (namespace, name) to loaded specs. Safe for concurrent use:
// many readers, serialized writers.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]*namespaceSet
}

// New returns an empty, ready-to-use registry.
func New() *Registry {
	return &Registry{namespaces: make(map[string]*namespaceSet)}
}

// Replace installs specs as the complete contents of namespace, discarding
// whatever was there before. There is no partial merge: concurrent readers
// see either the fully old or fully new set.
func (r *Registry) Replace(namespace string, specs []*spec.Spec) {
	set := &namespaceSet{
		specs:  make([]*spec.Spec, len(specs)),
		byName: make(map[string]*spec.Spec, len(specs)),
	}
	copy(set.specs, specs)
	for _, sp := range specs {
		set.byName[sp.Name] = sp
	}

	r.mu.Lock()
	r.namespaces[namespace] = set
	r.mu.Unlock()
}

// ReplaceStrict refuses the whole batch when its load report contains any
// error-severity finding, leaving the namespace untouched. Use Replace to
// accept the valid subset instead; the loader never makes this choice.
func (r *Registry) ReplaceStrict(namespace string, specs []*spec.Spec, report domain.Report) error {
	if report.HasErrors() {
		return fmt.Errorf("registry: refusing batch for namespace %q: %d error finding(s)",
			namespace, len(report.Errors()))
	}
	r.Replace(namespace, specs)
	return nil
}

// Lookup returns the spec registered under (namespace, name). Exact match
// only. Wraps ErrNotFound when absent.
func (r *Registry) Lookup(namespace, name string) (*spec.Spec, error) {
	r.mu.RLock()
	set := r.namespaces[namespace]
	r.mu.RUnlock()

	if set == nil {
		return nil, fmt.Errorf("namespace %q: %w", namespace, ErrNotFound)
	}
	sp, ok := set.byName[name]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", namespace, name, ErrNotFound)
	}
	return sp, nil
}

// List returns a copy of the specs in namespace, in load order. Empty for an
// unknown namespace.
func (r *Registry) List(namespace string) []*spec.Spec {
	r.mu.RLock()
	set := r.namespaces[namespace]
	r.mu.RUnlock()

	if set == nil {
		return nil
	}
	out := make([]*spec.Spec, len(set.specs))
	copy(out, set.specs)
	return out
}

// Namespaces returns the registered namespace keys in lexical order.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.namespaces))
	for ns := range r.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}
