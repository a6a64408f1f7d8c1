package observability

import (
	"sync/atomic"
	"time"
)

// DeliveryMetrics are process-local counters for the notification worker,
// exposed on its health endpoint. Prometheus carries the same numbers for
// scraping.
type DeliveryMetrics struct {
	claimed      atomic.Uint64
	sent         atomic.Uint64
	failed       atomic.Uint64
	retried      atomic.Uint64
	deadLettered atomic.Uint64

	// nanoseconds
	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func NewDeliveryMetrics() *DeliveryMetrics {
	return &DeliveryMetrics{}
}

func (m *DeliveryMetrics) IncClaimed()      { m.claimed.Add(1) }
func (m *DeliveryMetrics) IncSent()         { m.sent.Add(1) }
func (m *DeliveryMetrics) IncFailed()       { m.failed.Add(1) }
func (m *DeliveryMetrics) IncRetried()      { m.retried.Add(1) }
func (m *DeliveryMetrics) IncDeadLettered() { m.deadLettered.Add(1) }

func (m *DeliveryMetrics) ObserveDuration(d time.Duration) {
	ns := d.Nanoseconds()
	m.durationCount.Add(1)
	m.durationTotal.Add(ns)

	for {
		curr := m.durationMax.Load()

		if ns <= curr {
			return
		}

		if m.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type DeliveryMetricsSnapshot struct {
	Claimed         uint64        `json:"claimed"`
	Sent            uint64        `json:"sent"`
	Failed          uint64        `json:"failed"`
	Retried         uint64        `json:"retried"`
	DeadLettered    uint64        `json:"deadLettered"`
	DurationCount   uint64        `json:"durationCount"`
	AverageDuration time.Duration `json:"averageDurationNs"`
	MaxDuration     time.Duration `json:"maxDurationNs"`
}

func (m *DeliveryMetrics) Snapshot() DeliveryMetricsSnapshot {
	count := m.durationCount.Load()
	total := m.durationTotal.Load()

	var avg time.Duration

	if count > 0 {
		avg = time.Duration(total / int64(count))
	}

	return DeliveryMetricsSnapshot{
		Claimed:         m.claimed.Load(),
		Sent:            m.sent.Load(),
		Failed:          m.failed.Load(),
		Retried:         m.retried.Load(),
		DeadLettered:    m.deadLettered.Load(),
		DurationCount:   count,
		AverageDuration: avg,
		MaxDuration:     time.Duration(m.durationMax.Load()),
	}
}
