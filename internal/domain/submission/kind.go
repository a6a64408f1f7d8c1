package submission

import (
	"errors"
	"time"
)

// Kind names one record kind. Each kind owns exactly one ordered store.
type Kind string

const (
	KindHireRequest     Kind = "hire_request"
	KindBusinessContact Kind = "business_contact"
	KindCompanyContact  Kind = "company_contact"
	KindMainContact     Kind = "main_contact"
	KindTestimonial     Kind = "testimonial"
)

var ErrUnknownKind = errors.New("unknown record kind")

// Kinds lists every record kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindHireRequest,
		KindBusinessContact,
		KindCompanyContact,
		KindMainContact,
		KindTestimonial,
	}
}

func (k Kind) IsValid() bool {
	switch k {
	case KindHireRequest, KindBusinessContact, KindCompanyContact, KindMainContact, KindTestimonial:
		return true
	default:
		return false
	}
}

// FileName is the backing file for the kind when records live on disk.
func (k Kind) FileName() string {
	switch k {
	case KindHireRequest:
		return "hireRequests.json"
	case KindBusinessContact:
		return "businessContacts.json"
	case KindCompanyContact:
		return "companyContacts.json"
	case KindMainContact:
		return "mainContacts.json"
	case KindTestimonial:
		return "testimonials.json"
	default:
		return ""
	}
}

// ParseKind accepts the canonical name of a kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", ErrUnknownKind
	}
	return k, nil
}

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp renders t the way browsers render Date.toISOString: UTC,
// millisecond precision, "Z" suffix.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
