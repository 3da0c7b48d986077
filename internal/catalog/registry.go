package catalog

import (
	"slices"
	"sync/atomic"

	"github.com/pitabwire/shinsei/model"
)

// PlaceholderLabel is the label of the empty selector option.
const PlaceholderLabel = "選択してください"

type snapshot struct {
	ordered  []model.WorkflowDefinition
	byID     map[string]model.WorkflowDefinition
	checksum string
	source   string
}

// Registry serves the current catalog. Reads are lock-free; Replace swaps
// the whole catalog at once.
type Registry struct {
	snap atomic.Pointer[snapshot]
}

// NewRegistry creates a Registry holding f.
func NewRegistry(f model.CatalogFile) *Registry {
	r := &Registry{}
	r.Replace(f)
	return r
}

// Replace swaps in a new catalog.
func (r *Registry) Replace(f model.CatalogFile) {
	s := &snapshot{
		ordered:  slices.Clone(f.Workflows),
		byID:     make(map[string]model.WorkflowDefinition, len(f.Workflows)),
		checksum: f.Checksum,
		source:   f.SourceFile,
	}
	for _, w := range f.Workflows {
		s.byID[w.ID] = w
	}
	r.snap.Store(s)
}

func (r *Registry) current() *snapshot {
	return r.snap.Load()
}

// Get returns the workflow with the given id.
func (r *Registry) Get(id string) (model.WorkflowDefinition, bool) {
	w, ok := r.current().byID[id]
	return w, ok
}

// All returns the workflows in catalog order.
func (r *Registry) All() []model.WorkflowDefinition {
	return slices.Clone(r.current().ordered)
}

// IDs returns the workflow ids in catalog order.
func (r *Registry) IDs() []string {
	s := r.current()
	ids := make([]string, len(s.ordered))
	for i, w := range s.ordered {
		ids[i] = w.ID
	}
	return ids
}

// Options renders the selector: the placeholder first, then every workflow
// in catalog order.
func (r *Registry) Options() []model.Option {
	s := r.current()
	opts := make([]model.Option, 0, len(s.ordered)+1)
	opts = append(opts, model.Option{Value: "", Label: PlaceholderLabel})
	for _, w := range s.ordered {
		opts = append(opts, model.Option{Value: w.ID, Label: w.DisplayName})
	}
	return opts
}

// Checksum identifies the loaded catalog content.
func (r *Registry) Checksum() string {
	return r.current().checksum
}

// Source names where the catalog was loaded from.
func (r *Registry) Source() string {
	return r.current().source
}
