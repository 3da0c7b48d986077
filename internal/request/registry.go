// Package request holds the form controllers of the six workflow types and
// the registry the screen uses to mount them by workflow id.
package request

import (
	"fmt"
	"slices"
	"sync"

	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/model"
)

// Workflow ids.
const (
	AttendanceID    = "wf1_attendance"
	SubscriptionID  = "wf2_purchase"
	CertificateID   = "wf3_certificate"
	DependentID     = "wf4_dependent"
	MonthEndID      = "wf5_month_end"
	AddressChangeID = "wf6_address_change"
)

// Factory builds a fresh, uninitialized controller.
type Factory func() form.Controller

// Registry maps workflow ids to controller factories. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a Registry with the six built-in workflows.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(AttendanceID, func() form.Controller { return NewAttendance() })
	r.Register(SubscriptionID, func() form.Controller { return NewSubscription() })
	r.Register(CertificateID, func() form.Controller { return NewCertificate() })
	r.Register(DependentID, func() form.Controller { return NewDependent() })
	r.Register(MonthEndID, func() form.Controller { return NewMonthEnd() })
	r.Register(AddressChangeID, func() form.Controller { return NewAddressChange() })
	return r
}

// Register binds id to f, replacing any earlier binding.
func (r *Registry) Register(id string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// New builds the controller for id.
func (r *Registry) New(id string) (form.Controller, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, model.NewUnknownWorkflowError(id)
	}
	return f(), nil
}

// Has reports whether id has a factory.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Missing returns the ids in want that have no factory.
func (r *Registry) Missing(want []string) []string {
	var out []string
	for _, id := range want {
		if !r.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

func successMessage(subject string) string {
	return fmt.Sprintf("%sが正常に送信されました！", subject)
}

// minuteOptions lists 5 to 60 minutes in 5 minute steps.
func minuteOptions() []model.Option {
	opts := make([]model.Option, 0, 12)
	for m := 5; m <= 60; m += 5 {
		v := fmt.Sprint(m)
		opts = append(opts, model.Option{Value: v, Label: v + "分"})
	}
	return opts
}
