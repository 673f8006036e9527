// Package catalog holds the flow definition registry and the built-in flow
// templates, along with the step matchers that bind observed tool actions
// to steps
package catalog

import (
	"errors"
	"log/slog"

	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/log"
)

// Registry is an explicit collection of flow definitions. It is populated
// once at process start and treated as immutable afterward; registration is
// not safe to interleave with reads
type Registry struct {
	defs  map[api.FlowID]*api.Definition
	order []api.FlowID
}

var ErrNilDefinition = errors.New("definition is nil")

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		defs: map[api.FlowID]*api.Definition{},
	}
}

// Default returns a registry pre-populated with the built-in flow templates
func Default() *Registry {
	r := NewRegistry()
	for _, def := range []*api.Definition{
		BranchWork(), Release(), Hotfix(), CodeReview(),
	} {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

// Register validates and stores a definition. Registering an ID again
// replaces the earlier definition; the last write wins
func (r *Registry) Register(def *api.Definition) error {
	if def == nil {
		return ErrNilDefinition
	}
	if err := def.Validate(); err != nil {
		return err
	}
	if _, ok := r.defs[def.ID]; ok {
		slog.Debug("Flow definition replaced", log.FlowID(def.ID))
	} else {
		r.order = append(r.order, def.ID)
	}
	r.defs[def.ID] = def
	return nil
}

// Get returns the definition registered under the given ID
func (r *Registry) Get(id api.FlowID) (*api.Definition, bool) {
	def, ok := r.defs[id]
	return def, ok
}

// All returns every definition in registration order
func (r *Registry) All() []*api.Definition {
	res := make([]*api.Definition, 0, len(r.order))
	for _, id := range r.order {
		res = append(res, r.defs[id])
	}
	return res
}

// Len returns the number of registered definitions
func (r *Registry) Len() int {
	return len(r.defs)
}
