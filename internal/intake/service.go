package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/itechteam/formdesk/internal/actorctx"
	"github.com/itechteam/formdesk/internal/cache"
	"github.com/itechteam/formdesk/internal/domain/submission"
	"github.com/itechteam/formdesk/internal/jobs"
	"github.com/itechteam/formdesk/internal/notifications"
	"github.com/itechteam/formdesk/internal/observability"
	"github.com/itechteam/formdesk/internal/queue"
	"github.com/itechteam/formdesk/internal/store"
)

// ErrNotification is returned, wrapped around the transport error, when a
// record was stored but its synchronous notification could not be sent.
var ErrNotification = errors.New("notification failed")

const (
	ModeAsync = "async"
	ModeSync  = "sync"

	testimonialsKey = "testimonials"
)

type Deps struct {
	Records  *store.Registry
	Composer notifications.Composer
	Notifier notifications.Notifier // used in sync mode
	Queue    queue.Queue            // used in async mode; may be nil in sync mode
	Prom     *observability.Prom
	Log      *slog.Logger
}

type Config struct {
	Mode        string
	MaxAttempts int
	CacheTTL    time.Duration
}

type Service struct {
	records  *store.Registry
	composer notifications.Composer
	notifier notifications.Notifier
	queue    queue.Queue
	prom     *observability.Prom
	log      *slog.Logger

	cfg          Config
	testimonials *cache.Cache[[]submission.Testimonial]
	now          func() time.Time

	// testimonialsGen is bumped by every append; a list loaded under an
	// older generation is never cached
	cacheMu         sync.Mutex
	testimonialsGen uint64
}

func NewService(deps Deps, cfg Config) *Service {
	if cfg.Mode == "" {
		cfg.Mode = ModeAsync
	}

	return &Service{
		records:      deps.Records,
		composer:     deps.Composer,
		notifier:     deps.Notifier,
		queue:        deps.Queue,
		prom:         deps.Prom,
		log:          deps.Log.With("component", "intake"),
		cfg:          cfg,
		testimonials: cache.New[[]submission.Testimonial](cfg.CacheTTL),
		now:          time.Now,
	}
}

func (s *Service) SubmitHireRequest(ctx context.Context, req submission.CreateHireRequest) (submission.HireRequest, error) {
	return submit(ctx, s, s.records.HireRequests,
		func(now time.Time) submission.HireRequest { return submission.NewHireRequest(req, now) },
		s.composer.HireRequest,
	)
}

func (s *Service) SubmitBusinessContact(ctx context.Context, req submission.CreateBusinessContactRequest) (submission.BusinessContact, error) {
	return submit(ctx, s, s.records.BusinessContacts,
		func(now time.Time) submission.BusinessContact { return submission.NewBusinessContact(req, now) },
		s.composer.BusinessContact,
	)
}

func (s *Service) SubmitCompanyContact(ctx context.Context, req submission.CreateCompanyContactRequest) (submission.CompanyContact, error) {
	return submit(ctx, s, s.records.CompanyContacts,
		func(now time.Time) submission.CompanyContact { return submission.NewCompanyContact(req, now) },
		s.composer.CompanyContact,
	)
}

func (s *Service) SubmitMainContact(ctx context.Context, req submission.CreateMainContactRequest) (submission.MainContact, error) {
	return submit(ctx, s, s.records.MainContacts,
		func(now time.Time) submission.MainContact { return submission.NewMainContact(req, now) },
		s.composer.MainContact,
	)
}

// AddTestimonial stores the testimonial under the next free id. Testimonials
// do not trigger a notification.
func (s *Service) AddTestimonial(ctx context.Context, req submission.CreateTestimonialRequest) (submission.Testimonial, error) {
	kind := string(submission.KindTestimonial)

	t, err := s.records.Testimonials.Append(ctx, func(existing []submission.Testimonial) (submission.Testimonial, error) {
		return submission.NewTestimonial(req, submission.NextTestimonialID(existing)), nil
	})
	if err != nil {
		s.count(kind, "store_failed")
		return submission.Testimonial{}, fmt.Errorf("store %s: %w", kind, err)
	}

	s.cacheMu.Lock()
	s.testimonialsGen++
	s.testimonials.Delete(testimonialsKey)
	s.cacheMu.Unlock()

	s.count(kind, "stored")
	s.log.InfoContext(ctx, "testimonial stored", "id", t.ID, "request_id", actorctx.RequestIDFrom(ctx))
	return t, nil
}

// Testimonials returns every stored testimonial, served from a short-lived
// cache that every append invalidates.
func (s *Service) Testimonials(ctx context.Context) ([]submission.Testimonial, error) {
	if list, ok := s.testimonials.Get(testimonialsKey); ok {
		return list, nil
	}

	s.cacheMu.Lock()
	gen := s.testimonialsGen
	s.cacheMu.Unlock()

	list, err := s.records.Testimonials.All(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	if s.testimonialsGen == gen {
		s.testimonials.Set(testimonialsKey, list)
	}
	s.cacheMu.Unlock()
	return list, nil
}

// Records returns the raw stored sequence of kind for the admin API.
func (s *Service) Records(ctx context.Context, kind submission.Kind) ([]json.RawMessage, error) {
	return s.records.Raw(ctx, kind)
}

func (s *Service) DeadNotifications(ctx context.Context) ([]jobs.Job, error) {
	if s.queue == nil {
		return []jobs.Job{}, nil
	}
	return s.queue.Dead(ctx)
}

// RetryNotification puts a dead-lettered notification back in line with a
// fresh set of attempts.
func (s *Service) RetryNotification(ctx context.Context, id string) (jobs.Job, error) {
	if s.queue == nil {
		return jobs.Job{}, queue.ErrNotFound
	}

	j, err := s.queue.Requeue(ctx, id)
	if err != nil {
		return jobs.Job{}, err
	}

	actor, _ := actorctx.ActorFrom(ctx)
	s.log.InfoContext(ctx, "dead notification requeued", "job_id", id, "actor", actor)
	return j, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks the record store and, when it has a connection, the queue.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.records.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if p, ok := s.queue.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("queue: %w", err)
		}
	}
	return nil
}

func submit[T any](
	ctx context.Context,
	s *Service,
	coll *store.Collection[T],
	build func(now time.Time) T,
	compose func(T, time.Time) (notifications.Message, error),
) (T, error) {
	kind := string(coll.Kind())
	now := s.now()

	rec, err := coll.Append(ctx, func([]T) (T, error) { return build(now), nil })
	if err != nil {
		s.count(kind, "store_failed")
		var zero T
		return zero, fmt.Errorf("store %s: %w", kind, err)
	}

	log := s.log.With("kind", kind, "request_id", actorctx.RequestIDFrom(ctx))

	msg, err := compose(rec, now)
	if err != nil {
		// the record is kept; a broken template is a bug, not a client error
		s.count(kind, "notify_failed")
		log.ErrorContext(ctx, "compose notification failed", "err", err)
		return rec, fmt.Errorf("%w: %w", ErrNotification, err)
	}

	if err := s.dispatch(ctx, msg); err != nil {
		s.count(kind, "notify_failed")
		if s.cfg.Mode == ModeSync {
			log.ErrorContext(ctx, "notification failed after record was stored", "err", err)
			return rec, fmt.Errorf("%w: %w", ErrNotification, err)
		}
		log.ErrorContext(ctx, "enqueue notification failed", "err", err)
		return rec, nil
	}

	s.count(kind, "stored")
	log.InfoContext(ctx, "submission stored", "mode", s.cfg.Mode)
	return rec, nil
}

func (s *Service) dispatch(ctx context.Context, msg notifications.Message) error {
	if s.cfg.Mode == ModeSync {
		start := s.now()
		err := s.notifier.Send(ctx, msg)
		if s.prom != nil {
			result := "sent"
			if err != nil {
				result = "failed"
			}
			s.prom.ObserveDelivery(msg.Kind, result, time.Since(start))
		}
		return err
	}

	j, err := jobs.NewSendNotificationJob(jobs.SendNotificationPayload{
		Kind:      msg.Kind,
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		RequestID: actorctx.RequestIDFrom(ctx),
	}, s.cfg.MaxAttempts)
	if err != nil {
		return err
	}

	// the request may be cancelled right after the response is written
	enqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	return s.queue.Enqueue(enqCtx, j)
}

func (s *Service) count(kind, outcome string) {
	if s.prom != nil {
		s.prom.SubmissionsTotal.WithLabelValues(kind, outcome).Inc()
	}
}
