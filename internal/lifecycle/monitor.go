// Package lifecycle detects unreachable uploader accounts and cascades
// removal of their registered files.
package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

// OwnerStore is the registry surface the monitor needs: enumerate owners and
// bulk-delete one owner's records.
type OwnerStore interface {
	Owners(ctx context.Context) ([]int64, error)
	DeleteByOwner(ctx context.Context, ownerID int64) (int64, error)
}

// Prober attempts a lightweight contact with an owner. Implementations
// return an error classified by Unreachable when the account is gone.
type Prober interface {
	Probe(ctx context.Context, ownerID int64) error
}

// Monitor runs both unreachable-detection paths: the reactive one
// (MarkUnreachable, driven by transport errors) and the proactive sweep
// (cron-scheduled probe of every known owner). Both converge on the same
// bulk delete, which is idempotent: deleting an already-cleaned owner
// removes zero rows and succeeds.
type Monitor struct {
	store         OwnerStore
	prober        Prober
	unreachable   func(error) bool
	probeInterval time.Duration
	cron          *cron.Cron
	logger        *slog.Logger
}

// NewMonitor creates the monitor. unreachable classifies probe errors;
// probeInterval bounds the sweep's contact rate against the transport's
// abuse limits.
func NewMonitor(log *slog.Logger, store OwnerStore, prober Prober, unreachable func(error) bool, probeInterval time.Duration) *Monitor {
	if probeInterval <= 0 {
		probeInterval = 3 * time.Second
	}
	return &Monitor{
		store:         store,
		prober:        prober,
		unreachable:   unreachable,
		probeInterval: probeInterval,
		logger:        log.With(slog.String("service", "lifecycle")),
	}
}

// MarkUnreachable is the reactive path: the transport reported, in response
// to some contact attempt, that the owner's account is gone. Safe to call
// repeatedly for the same owner.
func (m *Monitor) MarkUnreachable(ctx context.Context, ownerID int64) {
	removed, err := m.store.DeleteByOwner(ctx, ownerID)
	if err != nil {
		m.logger.Error("cascade delete failed", slog.Int64("owner_id", ownerID), slog.Any("error", err))
		return
	}
	m.logger.Info("owner unreachable, records cascaded",
		slog.Int64("owner_id", ownerID),
		slog.Int64("removed", removed),
	)
}

// Sweep probes every distinct owner in the store and cascades deletion for
// those whose account is unreachable. Each owner is evaluated independently:
// a probe that fails for transient reasons (network, rate limit) is logged
// and skipped, never aborting the sweep.
func (m *Monitor) Sweep(ctx context.Context) {
	owners, err := m.store.Owners(ctx)
	if err != nil {
		m.logger.Error("sweep: list owners failed", slog.Any("error", err))
		return
	}
	if len(owners) == 0 {
		return
	}
	m.logger.Info("sweep started", slog.Int("owners", len(owners)))

	limiter := rate.NewLimiter(rate.Every(m.probeInterval), 1)
	var cleaned int
	for _, ownerID := range owners {
		if err := limiter.Wait(ctx); err != nil {
			m.logger.Info("sweep cancelled", slog.Any("error", err))
			return
		}
		err := m.prober.Probe(ctx, ownerID)
		switch {
		case err == nil:
			continue
		case m.unreachable(err):
			m.MarkUnreachable(ctx, ownerID)
			cleaned++
		default:
			m.logger.Warn("sweep: probe failed, skipping owner",
				slog.Int64("owner_id", ownerID),
				slog.Any("error", err),
			)
		}
	}
	m.logger.Info("sweep finished", slog.Int("owners", len(owners)), slog.Int("cleaned", cleaned))
}

// Start schedules the proactive sweep on the given cron spec (e.g. "@hourly").
func (m *Monitor) Start(ctx context.Context, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		m.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	c.Start()
	m.cron = c
	m.logger.Info("sweep scheduled", slog.String("spec", spec))
	return nil
}

// Stop halts the sweep schedule and waits for a running sweep iteration's
// scheduler slot to drain.
func (m *Monitor) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
}
