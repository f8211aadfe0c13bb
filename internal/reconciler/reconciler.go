package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/psychotest/psychotest/internal/assignment"
)

// batchSize caps how many assignments one pass expires.
const batchSize = 100

// Expirer moves overdue assignments to expired.
type Expirer interface {
	ExpireOverdue(ctx context.Context, day time.Time, limit int) ([]assignment.Assignment, error)
}

// Reconciler periodically expires assignments whose due date has passed.
type Reconciler struct {
	repo     Expirer
	interval time.Duration
	loc      *time.Location
	now      func() time.Time
}

// New creates a new Reconciler. Due dates are compared with today's date in loc.
func New(repo Expirer, interval time.Duration, loc *time.Location) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	return &Reconciler{
		repo:     repo,
		interval: interval,
		loc:      loc,
		now:      time.Now,
	}
}

// Start begins the reconciliation loop. It runs one pass immediately and then
// one per interval, and blocks until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	slog.Info("reconciler started", "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Reconcile(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.Reconcile(ctx)
		}
	}
}

// Reconcile expires overdue assignments in batches until none are left and
// returns how many it expired.
func (r *Reconciler) Reconcile(ctx context.Context) int {
	today := r.today()
	total := 0
	for ctx.Err() == nil {
		expired, err := r.repo.ExpireOverdue(ctx, today, batchSize)
		if err != nil {
			slog.Error("reconciler: failed to expire assignments", "error", err)
			return total
		}
		for _, a := range expired {
			slog.Info("reconciler: assignment expired",
				"assignmentId", a.ID,
				"therapistId", a.TherapistID,
				"clientId", a.ClientID,
			)
		}
		total += len(expired)
		if len(expired) < batchSize {
			break
		}
	}
	return total
}

// today is midnight UTC of the current date in the configured zone, matching
// how DATE columns are bound.
func (r *Reconciler) today() time.Time {
	y, m, d := r.now().In(r.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
