package screen

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/psychotest/psychotest/internal/auth"
	"github.com/psychotest/psychotest/internal/relation"
)

const statsNotice = "Some figures could not be loaded and are shown as 0."

// TherapistStats are the dashboard figures for one therapist.
type TherapistStats struct {
	TotalClients   int    `json:"totalClients"`
	ActiveTests    int    `json:"activeTests"`
	CompletedTests int    `json:"completedTests"`
	Notice         string `json:"notice,omitempty"`
}

// AdminStats are the platform-wide dashboard figures.
type AdminStats struct {
	TotalUsers     int    `json:"totalUsers"`
	TotalTests     int    `json:"totalTests"`
	ActiveTests    int    `json:"activeTests"`
	CompletedTests int    `json:"completedTests"`
	Notice         string `json:"notice,omitempty"`
}

var (
	rosterCount  = relation.Spec{Table: "client_records", ScopeField: "therapist_id"}
	ownAssigned  = relation.Spec{Table: "test_assignments", ScopeField: "therapist_id"}.WithFilter("status", "assigned")
	ownCompleted = relation.Spec{Table: "test_assignments", ScopeField: "therapist_id"}.WithFilter("status", "completed")

	usersCount   = relation.Spec{Table: "users"}
	testsCount   = relation.Spec{Table: "tests"}
	allAssigned  = relation.Spec{Table: "test_assignments"}.WithFilter("status", "assigned")
	allCompleted = relation.Spec{Table: "test_assignments"}.WithFilter("status", "completed")
)

// counter runs independent counts concurrently. Each count lands in its own
// variable; a failed count leaves it at 0 and marks the result degraded.
type counter struct {
	fetcher  relation.Fetcher
	identity auth.Identity
	g        *errgroup.Group
	ctx      context.Context
	failed   []bool
}

func newCounter(ctx context.Context, f relation.Fetcher, identity auth.Identity, n int) *counter {
	g, gctx := errgroup.WithContext(ctx)
	return &counter{fetcher: f, identity: identity, g: g, ctx: gctx, failed: make([]bool, n)}
}

func (c *counter) count(slot int, spec relation.Spec, dst *int) {
	c.g.Go(func() error {
		n, err := c.fetcher.Count(c.ctx, spec, c.identity)
		if err != nil {
			if c.ctx.Err() != nil {
				return c.ctx.Err()
			}
			slog.Warn("stats count failed", "table", spec.Table, "error", err)
			c.failed[slot] = true
			return nil
		}
		*dst = n
		return nil
	})
}

func (c *counter) wait(parent context.Context) (degraded bool, err error) {
	if err := c.g.Wait(); err != nil || parent.Err() != nil {
		return false, ErrStale
	}
	for _, f := range c.failed {
		if f {
			return true, nil
		}
	}
	return false, nil
}

// TherapistStats counts the therapist's clients and open and finished assignments.
func (l *Loader) TherapistStats(ctx context.Context, identity auth.Identity) (TherapistStats, error) {
	if identity.Role != auth.RoleTherapist {
		return TherapistStats{}, auth.ErrForbidden
	}

	var clients, active, completed int
	c := newCounter(ctx, l.fetcher, identity, 3)
	c.count(0, rosterCount, &clients)
	c.count(1, ownAssigned, &active)
	c.count(2, ownCompleted, &completed)

	degraded, err := c.wait(ctx)
	if err != nil {
		return TherapistStats{}, err
	}

	stats := TherapistStats{TotalClients: clients, ActiveTests: active, CompletedTests: completed}
	if degraded {
		stats.Notice = statsNotice
	}
	return stats, nil
}

// AdminStats counts users, tests and assignments across the platform.
func (l *Loader) AdminStats(ctx context.Context, identity auth.Identity) (AdminStats, error) {
	if identity.Role != auth.RoleAdmin {
		return AdminStats{}, auth.ErrForbidden
	}

	var users, tests, active, completed int
	c := newCounter(ctx, l.fetcher, identity, 4)
	c.count(0, usersCount, &users)
	c.count(1, testsCount, &tests)
	c.count(2, allAssigned, &active)
	c.count(3, allCompleted, &completed)

	degraded, err := c.wait(ctx)
	if err != nil {
		return AdminStats{}, err
	}

	stats := AdminStats{TotalUsers: users, TotalTests: tests, ActiveTests: active, CompletedTests: completed}
	if degraded {
		stats.Notice = statsNotice
	}
	return stats, nil
}
