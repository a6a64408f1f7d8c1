package store

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/itechteam/formdesk/internal/domain/submission"
)

// Registry holds the collection of every record kind over a shared backend.
type Registry struct {
	HireRequests     *Collection[submission.HireRequest]
	BusinessContacts *Collection[submission.BusinessContact]
	CompanyContacts  *Collection[submission.CompanyContact]
	MainContacts     *Collection[submission.MainContact]
	Testimonials     *Collection[submission.Testimonial]

	backend Backend
}

func NewRegistry(backend Backend, log *slog.Logger) *Registry {
	return &Registry{
		HireRequests:     NewCollection[submission.HireRequest](submission.KindHireRequest, backend, log),
		BusinessContacts: NewCollection[submission.BusinessContact](submission.KindBusinessContact, backend, log),
		CompanyContacts:  NewCollection[submission.CompanyContact](submission.KindCompanyContact, backend, log),
		MainContacts:     NewCollection[submission.MainContact](submission.KindMainContact, backend, log),
		Testimonials:     NewCollection[submission.Testimonial](submission.KindTestimonial, backend, log),
		backend:          backend,
	}
}

// Raw returns the undecoded sequence of any kind.
func (r *Registry) Raw(ctx context.Context, kind submission.Kind) ([]json.RawMessage, error) {
	if !kind.IsValid() {
		return nil, ErrUnknownKind
	}
	return r.backend.LoadAll(ctx, kind)
}

// Ping reports backend reachability. Backends without a notion of
// connectivity are always ready.
func (r *Registry) Ping(ctx context.Context) error {
	if p, ok := r.backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
