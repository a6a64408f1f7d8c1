package intake

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/itechteam/formdesk/internal/actorctx"
	"github.com/itechteam/formdesk/internal/domain/submission"
	"github.com/itechteam/formdesk/internal/jobs"
	"github.com/itechteam/formdesk/internal/notifications"
	"github.com/itechteam/formdesk/internal/observability"
	"github.com/itechteam/formdesk/internal/queue"
	"github.com/itechteam/formdesk/internal/repo/memory"
	"github.com/itechteam/formdesk/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeNotifier struct {
	sendFn func(ctx context.Context, msg notifications.Message) error
}

func (f *fakeNotifier) Send(ctx context.Context, msg notifications.Message) error {
	return f.sendFn(ctx, msg)
}

type fixture struct {
	svc     *Service
	backend *memory.RecordsRepo
	queue   *queue.MemoryQueue
	prom    *observability.Prom
}

func newFixture(t *testing.T, mode string, n notifications.Notifier) fixture {
	t.Helper()

	backend := memory.NewRecordsRepo()
	q := queue.NewMemoryQueue()
	prom := observability.NewTestProm()
	log := observability.NewDiscardLogger()

	svc := NewService(Deps{
		Records:  store.NewRegistry(backend, log),
		Composer: notifications.Composer{Inbox: "admin@itechteam.ng", Location: time.UTC},
		Notifier: n,
		Queue:    q,
		Prom:     prom,
		Log:      log,
	}, Config{Mode: mode, MaxAttempts: 3, CacheTTL: time.Minute})

	return fixture{svc: svc, backend: backend, queue: q, prom: prom}
}

func validHire() submission.CreateHireRequest {
	return submission.CreateHireRequest{
		Name:               "Ada",
		Email:              "ada@example.com",
		ServiceType:        "Web",
		BusinessType:       "Startup",
		ProjectDescription: "Landing page",
		BudgetNGN:          "1000",
		Services:           []string{"A", "B"},
	}
}

func TestSubmitHireRequest_SyncSendsToSubmitter(t *testing.T) {
	var sent notifications.Message
	f := newFixture(t, ModeSync, &fakeNotifier{sendFn: func(_ context.Context, msg notifications.Message) error {
		sent = msg
		return nil
	}})

	rec, err := f.svc.SubmitHireRequest(context.Background(), validHire())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.CreatedAt == "" || rec.Services[1] != "B" || rec.BudgetNGN != "1000" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if sent.To != "ada@example.com" || sent.Subject != "New Hire Request: Ada" {
		t.Fatalf("unexpected message %+v", sent)
	}
	if f.backend.Len(submission.KindHireRequest) != 1 {
		t.Fatalf("record not stored")
	}
}

func TestSubmit_SyncFailureKeepsRecord(t *testing.T) {
	f := newFixture(t, ModeSync, &fakeNotifier{sendFn: func(context.Context, notifications.Message) error {
		return &notifications.SendError{Provider: "smtp", Err: errors.New("535 authentication failed")}
	}})

	rec, err := f.svc.SubmitMainContact(context.Background(), submission.CreateMainContactRequest{
		Name: "Grace", Email: "g@example.com", Phone: "0801", Description: "hello",
	})
	if !errors.Is(err, ErrNotification) {
		t.Fatalf("expected ErrNotification, got %v", err)
	}
	if !errors.Is(err, notifications.ErrDelivery) {
		t.Fatalf("transport error should stay reachable, got %v", err)
	}
	if rec.Name != "Grace" {
		t.Fatalf("stored record should still be returned, got %+v", rec)
	}
	if f.backend.Len(submission.KindMainContact) != 1 {
		t.Fatalf("record must persist even though the email failed")
	}

	got := testutil.ToFloat64(f.prom.SubmissionsTotal.WithLabelValues("main_contact", "notify_failed"))
	if got != 1 {
		t.Fatalf("expected notify_failed counted, got %v", got)
	}
}

func TestSubmit_AsyncEnqueuesJob(t *testing.T) {
	f := newFixture(t, ModeAsync, &fakeNotifier{sendFn: func(context.Context, notifications.Message) error {
		t.Fatalf("async mode must not send inline")
		return nil
	}})

	ctx := actorctx.WithRequestID(context.Background(), "req-42")
	_, err := f.svc.SubmitBusinessContact(ctx, submission.CreateBusinessContactRequest{
		Name: "Ada", Email: "a@b.c", Phone: "1", BusinessCategory: "Retail",
		SelectedServices: []string{"SEO"}, Budget: "500", Description: "d",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	j, err := f.queue.Claim(context.Background())
	if err != nil {
		t.Fatalf("expected a queued notification: %v", err)
	}
	if j.MaxAttempts != 3 {
		t.Fatalf("max attempts not applied: %d", j.MaxAttempts)
	}

	var p jobs.SendNotificationPayload
	_ = json.Unmarshal(j.Payload, &p)
	if p.To != "admin@itechteam.ng" || p.RequestID != "req-42" || p.Kind != "business_contact" {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestAddTestimonial_AssignsSequentialIDs(t *testing.T) {
	f := newFixture(t, ModeAsync, nil)
	ctx := context.Background()

	req := submission.CreateTestimonialRequest{User: "Ada", Content: "great", Rating: 5, CreatedAt: "2026-01-01T00:00:00.000Z"}

	first, _ := f.svc.AddTestimonial(ctx, req)
	second, _ := f.svc.AddTestimonial(ctx, req)
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1, 2; got %d, %d", first.ID, second.ID)
	}

	stats, _ := f.queue.Stats(ctx)
	if stats.Ready != 0 {
		t.Fatalf("testimonials must not notify")
	}
}

func TestAddTestimonial_ContinuesFromExisting(t *testing.T) {
	f := newFixture(t, ModeAsync, nil)
	ctx := context.Background()

	_ = f.backend.SaveAll(ctx, submission.KindTestimonial, []json.RawMessage{
		json.RawMessage(`{"id":1,"user":"a","content":"c","rating":4,"createdAt":"x"}`),
		json.RawMessage(`{"id":2,"user":"b","content":"c","rating":5,"createdAt":"y"}`),
	})

	got, err := f.svc.AddTestimonial(ctx, submission.CreateTestimonialRequest{User: "c", Content: "c", Rating: 3, CreatedAt: "z"})
	if err != nil || got.ID != 3 {
		t.Fatalf("expected id 3, got %d (%v)", got.ID, err)
	}
}

func TestTestimonials_CacheInvalidatedOnAppend(t *testing.T) {
	f := newFixture(t, ModeAsync, nil)
	ctx := context.Background()

	list, err := f.svc.Testimonials(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v (%v)", list, err)
	}

	_, _ = f.svc.AddTestimonial(ctx, submission.CreateTestimonialRequest{User: "Ada", Content: "c", Rating: 5, CreatedAt: "x"})

	list, _ = f.svc.Testimonials(ctx)
	if len(list) != 1 {
		t.Fatalf("cache should be invalidated by the append, got %d", len(list))
	}
}

// gatedBackend holds the first testimonial load until release is closed.
type gatedBackend struct {
	*memory.RecordsRepo

	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBackend) LoadAll(ctx context.Context, kind submission.Kind) ([]json.RawMessage, error) {
	raw, err := g.RecordsRepo.LoadAll(ctx, kind)
	if kind != submission.KindTestimonial {
		return raw, err
	}

	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return raw, err
}

func TestTestimonials_SlowReadDoesNotCacheStaleList(t *testing.T) {
	backend := &gatedBackend{
		RecordsRepo: memory.NewRecordsRepo(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	log := observability.NewDiscardLogger()
	svc := NewService(Deps{
		Records:  store.NewRegistry(backend, log),
		Composer: notifications.Composer{Inbox: "admin@itechteam.ng", Location: time.UTC},
		Prom:     observability.NewTestProm(),
		Log:      log,
	}, Config{Mode: ModeSync, CacheTTL: time.Minute})
	ctx := context.Background()

	stale := make(chan []submission.Testimonial, 1)
	go func() {
		list, _ := svc.Testimonials(ctx)
		stale <- list
	}()

	<-backend.entered
	if _, err := svc.AddTestimonial(ctx, submission.CreateTestimonialRequest{User: "Ada", Content: "c", Rating: 5, CreatedAt: "x"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	close(backend.release)

	if list := <-stale; len(list) != 0 {
		t.Fatalf("read started before the append should see the old list, got %d", len(list))
	}

	list, err := svc.Testimonials(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("acknowledged testimonial missing from list, got %d", len(list))
	}
}

func TestRetryNotification(t *testing.T) {
	f := newFixture(t, ModeAsync, nil)
	ctx := context.Background()

	if _, err := f.svc.RetryNotification(ctx, "nope"); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, _ = f.svc.SubmitMainContact(ctx, submission.CreateMainContactRequest{Name: "a", Email: "b", Phone: "c", Description: "d"})
	j, _ := f.queue.Claim(ctx)
	_ = f.queue.DeadLetter(ctx, j, "boom")

	dead, _ := f.svc.DeadNotifications(ctx)
	if len(dead) != 1 {
		t.Fatalf("expected one dead notification, got %d", len(dead))
	}

	requeued, err := f.svc.RetryNotification(actorctx.WithActor(ctx, "admin"), j.ID)
	if err != nil || requeued.Attempts != 0 {
		t.Fatalf("requeue: %+v %v", requeued, err)
	}
}

func TestRecords_UnknownKind(t *testing.T) {
	f := newFixture(t, ModeSync, nil)

	if _, err := f.svc.Records(context.Background(), submission.Kind("users")); !errors.Is(err, store.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if err := f.svc.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
