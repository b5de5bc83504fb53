// Package retention runs the age-based cleanup that the two record
// lifecycles call for: export records are dropped, chat messages are
// soft-deleted.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"vizzydb/pkg/chat"
	"vizzydb/pkg/config"
	"vizzydb/pkg/exports"
	"vizzydb/pkg/logger"
)

// Runner executes retention sweeps over the export and chat services.
type Runner struct {
	cfg     config.RetentionConfig
	exports *exports.Service
	chat    *chat.Service
}

func NewRunner(cfg config.RetentionConfig, exp *exports.Service, ch *chat.Service) *Runner {
	return &Runner{cfg: cfg, exports: exp, chat: ch}
}

// Start launches the cron-driven scheduler when retention is enabled and
// returns a cancel func. Disabled retention returns a no-op cancel.
func (r *Runner) Start(ctx context.Context) (context.CancelFunc, error) {
	if !r.cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	// default daily @02:00
	cronExpr := r.cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", r.cfg.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", r.cfg.Cron)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "max_age", r.cfg.MaxAge.Duration().String(), "dry_run", r.cfg.DryRun)
	ctx2, cancel := context.WithCancel(ctx)
	go r.schedule(ctx2, cronExpr)
	return cancel, nil
}

// schedule sleeps until the next cron tick and triggers a run, repeating
// until the context is canceled.
func (r *Runner) schedule(ctx context.Context, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := r.RunOnce(); err != nil {
				logger.Error("retention_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// RunOnce performs a single sweep. Exposed so admin triggers and tests
// can run retention deterministically instead of waiting on timers.
func (r *Runner) RunOnce() error {
	age := r.cfg.MaxAge.Duration()
	if age <= 0 {
		age = 30 * 24 * time.Hour
	}

	if r.cfg.DryRun {
		logger.Info("retention_dry_run", "max_age", age.String())
		return nil
	}

	exportsRemoved, err := r.exports.CleanupOlderThan(age)
	if err != nil {
		return fmt.Errorf("export cleanup: %w", err)
	}
	messagesMarked, err := r.chat.CleanupOlderThan(age)
	if err != nil {
		return fmt.Errorf("message cleanup: %w", err)
	}

	logger.Info("retention_run_complete", "exports_removed", exportsRemoved, "messages_soft_deleted", messagesMarked)
	if logger.Audit != nil {
		logger.Audit.Info("retention_run",
			"exports_removed", exportsRemoved,
			"messages_soft_deleted", messagesMarked,
			"max_age", age.String())
	}
	return nil
}
