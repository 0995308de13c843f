// Package rebuild re-runs the snapshot builder on a cron schedule. The
// builder is idempotent, so a scheduled run that races a notification-driven
// run is harmless; the schedule exists to heal triggers that were dropped or
// failed.
package rebuild

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"messagewall/pkg/logger"
	"messagewall/pkg/snapshot"
)

// DefaultCron rebuilds once a minute.
const DefaultCron = "* * * * *"

// Start validates the cron expression and launches the scheduler goroutine.
// It returns a cancel func for shutdown. An empty expression maps to
// DefaultCron.
func Start(ctx context.Context, b *snapshot.Builder, cronExpr string) (context.CancelFunc, error) {
	if cronExpr == "" {
		cronExpr = DefaultCron
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid rebuild cron expression: %s", cronExpr)
	}

	ctx2, cancel := context.WithCancel(ctx)
	go run(ctx2, b, cronExpr)
	logger.Info("rebuild_scheduler_started", "cron", cronExpr)
	return cancel, nil
}

func run(ctx context.Context, b *snapshot.Builder, cronExpr string) {
	for {
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("rebuild_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
				continue
			case <-ctx.Done():
				logger.Info("rebuild_scheduler_stopping")
				return
			}
		}

		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			logger.Info("rebuild_scheduler_stopping")
			return
		}

		if _, err := b.Rebuild(ctx); err != nil {
			logger.Error("rebuild_run_failed", "error", err)
		}
	}
}
