package credit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"schemad/internal/db"
)

// Granter applies the daily credit grant to every ledger row in one
// statement, all-or-nothing.
type Granter struct {
	q      db.Querier
	amount int64
	logger *slog.Logger
}

// NewGranter creates a grant job adding amount credits per run.
func NewGranter(q db.Querier, amount int64, logger *slog.Logger) *Granter {
	return &Granter{
		q:      q,
		amount: amount,
		logger: logger,
	}
}

// Run applies the grant once. The job is best-effort: a failure is logged
// and swallowed, never retried.
func (g *Granter) Run(ctx context.Context) {
	tag, err := g.q.Exec(ctx,
		`UPDATE credits SET credits = credits + $1, last_updated = now()`, g.amount)
	if err != nil {
		g.logger.Error("daily credit grant failed", "error", err)
		return
	}
	g.logger.Info("daily credits granted", "amount", g.amount, "accounts", tag.RowsAffected())
}

// Schedule registers Run on the scheduler, firing daily at hour:minute in the
// scheduler's location.
func (g *Granter) Schedule(c *cron.Cron, hour, minute int) (cron.EntryID, error) {
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	id, err := c.AddFunc(spec, func() {
		g.Run(context.Background())
	})
	if err != nil {
		return 0, fmt.Errorf("failed to schedule daily grant: %w", err)
	}
	return id, nil
}
