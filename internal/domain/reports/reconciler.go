package reports

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/medledger/medledger/internal/platform/ledger"
)

const reconcileBatchSize = 50

// Reconciler drains the sync-debt queue: for each queued report it pulls the
// ledger's authoritative allow-list and overwrites the mirrored permission
// set. Debt entries are only cleared after a successful overwrite, so a
// failed sweep retries the same reports next tick.
type Reconciler struct {
	repo     Repository
	ledger   ledger.Client
	log      zerolog.Logger
	interval time.Duration
}

func NewReconciler(repo Repository, lc ledger.Client, log zerolog.Logger, interval time.Duration) *Reconciler {
	return &Reconciler{repo: repo, ledger: lc, log: log, interval: interval}
}

// Start runs the sweep loop until ctx is cancelled. Call in a goroutine.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info().Dur("interval", r.interval).Msg("permission reconciler started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("permission reconciler stopped")
			return
		case <-ticker.C:
			if n, err := r.Sweep(ctx); err != nil {
				r.log.Error().Err(err).Msg("reconcile sweep failed")
			} else if n > 0 {
				r.log.Info().Int("repaired", n).Msg("reconcile sweep complete")
			}
		}
	}
}

// Sweep processes one batch of sync debt and returns how many mirrors were
// repaired. Individual report failures are logged and skipped so one bad
// entry cannot starve the rest of the queue.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	debts, err := r.repo.ListSyncDebt(ctx, reconcileBatchSize)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, d := range debts {
		if err := r.reconcileOne(ctx, d); err != nil {
			r.log.Warn().
				Str("report_id", d.ReportID.String()).
				Err(err).
				Msg("mirror repair failed, will retry")
			continue
		}
		repaired++
	}
	return repaired, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, d SyncDebt) error {
	rp, err := r.repo.GetByID(ctx, d.ReportID)
	if errors.Is(err, ErrNotFound) {
		// Row vanished; nothing left to mirror.
		return r.repo.ClearSyncDebt(ctx, d.ReportID)
	}
	if err != nil {
		return err
	}

	addrs, err := r.ledger.AllowList(ctx, rp.ContentID)
	if err != nil {
		return err
	}
	if err := r.repo.ReplacePermissions(ctx, rp.ID, addrs); err != nil {
		return err
	}
	return r.repo.ClearSyncDebt(ctx, rp.ID)
}
