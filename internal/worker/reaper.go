package worker

import (
	"context"
	"log/slog"
	"time"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/infra"
	"pixmuse/internal/infra/statusstore"
	"pixmuse/internal/pkg/clock"
	"pixmuse/internal/pkg/config"
	"pixmuse/internal/usecase/commands"
)

// Reaper force-fails processing records nobody has touched for longer than
// Pipeline.AbandonedAfter. It is the only path that converts worker silence
// into a terminal state; everything else fails loudly on its own. A reaped
// request gets the same refund as any other failed one.
type Reaper struct {
	store   statusstore.Store
	charges commands.ChargeRepository
	credits commands.CreditsRepository
	cfg     config.PipelineConfig
	clock   clock.Clock
	log     *slog.Logger
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewReaper(
	store statusstore.Store,
	charges commands.ChargeRepository,
	credits commands.CreditsRepository,
	cfg config.PipelineConfig,
	clock clock.Clock,
	log *slog.Logger,
) *Reaper {
	return &Reaper{
		store:   store,
		charges: charges,
		credits: credits,
		cfg:     cfg,
		clock:   clock,
		log:     log,
	}
}

func (r *Reaper) Start(context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.cfg.ReaperInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep(ctx)
			}
		}
	}()
	return nil
}

func (r *Reaper) Stop(context.Context) error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()
	<-r.done
	return nil
}

func (r *Reaper) sweep(ctx context.Context) {
	snaps, err := r.store.ListActive(ctx, nil)
	if err != nil {
		r.log.Error("reaper sweep failed", "error", err)
		return
	}

	cutoff := r.clock.Now().Add(-r.cfg.AbandonedAfter)
	for _, snap := range snaps {
		if snap.Status != generation.StatusProcessing || !snap.UpdatedAt.Before(cutoff) {
			continue
		}

		patch := generation.Patch{}.
			WithStatus(generation.StatusFailed).
			WithError("abandoned by worker")
		if _, err := r.store.Update(ctx, snap.RequestID, patch); err != nil {
			// a worker finishing in the window between list and update
			// loses nothing; only real store failures are worth noise
			if !infra.IsKind(err, infra.KindConflict) && !infra.IsKind(err, infra.KindNotFound) {
				r.log.Error("failed to reap abandoned request", "request_id", snap.RequestID, "error", err)
			}
			continue
		}
		log := r.log.With("request_id", snap.RequestID)
		refundFailedCharge(ctx, r.charges, r.credits, snap.RequestID, snap.UserID, log)
		log.Warn("reaped abandoned request", "last_update", snap.UpdatedAt)
	}
}
