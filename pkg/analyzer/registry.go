package analyzer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Registry errors.
var (
	ErrAlreadyRegistered = errors.New("analyzer already registered")
	ErrNotRegistered     = errors.New("no registered analyzer")
	ErrNilAnalyzer       = errors.New("analyzer must not be nil")
	ErrUnnamedAnalyzer   = errors.New("analyzer must report a non-empty name")
)

// Registry holds the analyzers available to a run. It is constructed by
// the composition root and populated through explicit Register calls
// before the pipeline starts; registration validates the contract up
// front instead of failing mid-run.
type Registry struct {
	analyzers map[string]Analyzer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{analyzers: make(map[string]Analyzer)}
}

// Register adds an analyzer under its own name. Duplicate names are
// rejected rather than silently overwritten.
func (r *Registry) Register(a Analyzer) error {
	if a == nil {
		return ErrNilAnalyzer
	}

	name := a.Name()
	if name == "" {
		return ErrUnnamedAnalyzer
	}

	if _, exists := r.analyzers[name]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}

	r.analyzers[name] = a

	return nil
}

// Get returns the analyzer registered under name.
func (r *Registry) Get(name string) (Analyzer, error) {
	a, ok := r.analyzers[name]
	if !ok {
		return nil, fmt.Errorf("%w with name=%s (available: %s)",
			ErrNotRegistered, name, strings.Join(r.Names(), ", "))
	}

	return a, nil
}

// Names returns the registered analyzer names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.analyzers))
	for name := range r.analyzers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
