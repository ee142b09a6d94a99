package worker

import (
	"context"
	"errors"
	"log/slog"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/infra"
	"pixmuse/internal/infra/queue"
	"pixmuse/internal/infra/statusstore"
	"pixmuse/internal/pkg/clock"
	"pixmuse/internal/pkg/config"
	"pixmuse/internal/provider"
	"pixmuse/internal/usecase/commands"

	"github.com/google/uuid"
)

// Executor runs one generation job end to end: processing status, provider
// call, artifact persistence, billing reconciliation, terminal status, ack.
// The ack always comes after the terminal status write so a crash anywhere
// leaves the delivery pending for redelivery instead of silently lost.
type Executor struct {
	source   DeliverySource
	store    statusstore.Store
	charges  commands.ChargeRepository
	credits  commands.CreditsRepository
	sets     commands.SetsRepository
	uploader commands.ArtifactUploader
	provider provider.Provider
	cfg      config.PipelineConfig
	clock    clock.Clock
	log      *slog.Logger
}

func NewExecutor(
	source DeliverySource,
	store statusstore.Store,
	charges commands.ChargeRepository,
	credits commands.CreditsRepository,
	sets commands.SetsRepository,
	uploader commands.ArtifactUploader,
	prov provider.Provider,
	cfg config.PipelineConfig,
	clock clock.Clock,
	log *slog.Logger,
) *Executor {
	return &Executor{
		source:   source,
		store:    store,
		charges:  charges,
		credits:  credits,
		sets:     sets,
		uploader: uploader,
		provider: prov,
		cfg:      cfg,
		clock:    clock,
		log:      log,
	}
}

// Process handles one delivery. Application failures end in a terminal
// failed status followed by an ack; only a crash (or an unreachable status
// store) leaves the delivery unacked for redelivery.
func (e *Executor) Process(ctx context.Context, d *queue.Delivery) {
	job := d.Job
	log := e.log.With("request_id", job.RequestID, "entry_id", d.ID)

	if d.Redelivered {
		log.Info("picked up redelivered job")
		if done := e.resolveRedelivery(ctx, d, log); done {
			return
		}
	}

	if !e.markProcessing(ctx, d, log) {
		return
	}

	result, err := e.callProvider(ctx, job)
	if err != nil {
		e.finishFailed(ctx, d, failureMessage(err), log)
		return
	}

	setID, err := e.persistSet(ctx, job, result)
	if err != nil {
		log.Error("failed to persist generation set", "error", err)
		e.finishFailed(ctx, d, "could not store generated artifacts", log)
		return
	}

	// billing reconciliation: the producer normally charged upfront, so a
	// duplicate fact here is the expected outcome. A fresh insert means the
	// upfront charge never happened or was revoked; the work is delivered,
	// so the debit lands here.
	if cost, costErr := generation.Cost(job.Kind, job.Params); costErr == nil {
		switch err := e.charges.TryInsert(ctx, job.RequestID, job.UserID, cost); {
		case err == nil:
			if derr := e.credits.Debit(ctx, job.UserID, cost); derr != nil {
				log.Error("failed to debit during charge reconciliation",
					"user_id", job.UserID, "amount", cost, "error", derr)
			}
		case !infra.IsKind(err, infra.KindDuplicateKey):
			log.Error("failed to reconcile charge fact", "error", err)
		}
	}

	e.finishComplete(ctx, d, setID, log)
}

// resolveRedelivery short-circuits jobs a previous attempt already finished.
// The persisted set is the source of truth: if it exists, the generation
// happened and only the terminal status plus ack may be missing.
func (e *Executor) resolveRedelivery(ctx context.Context, d *queue.Delivery, log *slog.Logger) bool {
	set, err := e.sets.FindByRequestID(ctx, d.Job.RequestID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return false
		}
		log.Error("idempotency lookup failed, leaving delivery pending", "error", err)
		return true
	}

	log.Info("job already completed by a previous attempt", "set_id", set.ID)
	e.finishComplete(ctx, d, set.ID, log)
	return true
}

// markProcessing moves the record to processing. A terminal record means
// another path already settled the request: ack and walk away.
func (e *Executor) markProcessing(ctx context.Context, d *queue.Delivery, log *slog.Logger) bool {
	patch := generation.Patch{}.
		WithStatus(generation.StatusProcessing).
		WithProgress(5).
		WithMessage("generation started")
	if _, err := e.store.Update(ctx, d.Job.RequestID, patch); err != nil {
		switch {
		case infra.IsKind(err, infra.KindConflict):
			log.Info("status already terminal, dropping delivery")
			e.ack(ctx, d, log)
			return false
		case infra.IsKind(err, infra.KindNotFound):
			// record expired while the job sat in the queue; the work is
			// paid for, so run it anyway and persist the result
			log.Warn("status record missing, processing without progress reporting")
			return true
		default:
			log.Error("failed to mark processing, leaving delivery pending", "error", err)
			return false
		}
	}
	return true
}

func (e *Executor) callProvider(ctx context.Context, job generation.Job) (*provider.Result, error) {
	jobCtx, cancel := context.WithTimeout(ctx, e.cfg.JobTimeout)
	defer cancel()

	progress := func(percent int, note string) {
		patch := generation.Patch{}.WithProgress(percent).WithMessage(note)
		if _, err := e.store.Update(jobCtx, job.RequestID, patch); err != nil &&
			!infra.IsKind(err, infra.KindNotFound) && !infra.IsKind(err, infra.KindConflict) {
			e.log.Warn("failed to publish progress", "request_id", job.RequestID, "error", err)
		}
	}

	return e.provider.Submit(jobCtx, job.Kind, job.Params, progress)
}

func (e *Executor) persistSet(ctx context.Context, job generation.Job, result *provider.Result) (uuid.UUID, error) {
	setID := uuid.New()
	artifacts := make([]generation.Artifact, 0, len(result.Artifacts))
	for i, a := range result.Artifacts {
		artifactURL := a.URL
		if artifactURL == "" {
			uploaded, err := e.uploader.Upload(ctx, a.Data, a.Mime)
			if err != nil {
				return uuid.Nil, err
			}
			artifactURL = uploaded
		}
		artifacts = append(artifacts, generation.Artifact{
			ID:       uuid.New(),
			SetID:    setID,
			URL:      artifactURL,
			Mime:     a.Mime,
			Position: i,
		})
	}

	set := generation.Set{
		ID:        setID,
		RequestID: job.RequestID,
		UserID:    job.UserID,
		Kind:      job.Kind,
		Model:     job.Params.Model,
		Prompt:    job.Params.Prompt,
		CreatedAt: e.clock.Now(),
	}
	if err := e.sets.CreateSet(ctx, set, artifacts); err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			// concurrent attempt won the persist race; reuse its set
			existing, findErr := e.sets.FindByRequestID(ctx, job.RequestID)
			if findErr != nil {
				return uuid.Nil, findErr
			}
			return existing.ID, nil
		}
		return uuid.Nil, err
	}
	return setID, nil
}

func (e *Executor) finishComplete(ctx context.Context, d *queue.Delivery, setID uuid.UUID, log *slog.Logger) {
	patch := generation.Patch{}.
		WithStatus(generation.StatusComplete).
		WithProgress(100).
		WithMessage("generation complete").
		WithSetID(setID)
	if _, err := e.store.Update(ctx, d.Job.RequestID, patch); err != nil &&
		!infra.IsKind(err, infra.KindConflict) && !infra.IsKind(err, infra.KindNotFound) {
		log.Error("failed to write terminal complete status, leaving delivery pending", "error", err)
		return
	}
	e.ack(ctx, d, log)
}

func (e *Executor) finishFailed(ctx context.Context, d *queue.Delivery, message string, log *slog.Logger) {
	patch := generation.Patch{}.
		WithStatus(generation.StatusFailed).
		WithError(message)
	_, err := e.store.Update(ctx, d.Job.RequestID, patch)
	switch {
	case err == nil, infra.IsKind(err, infra.KindNotFound):
		refundFailedCharge(ctx, e.charges, e.credits, d.Job.RequestID, d.Job.UserID, log)
	case infra.IsKind(err, infra.KindConflict):
		// another path already settled the request and owns its billing
	default:
		log.Error("failed to write terminal failed status, leaving delivery pending", "error", err)
		return
	}
	log.Warn("job failed", "reason", message)
	e.ack(ctx, d, log)
}

func (e *Executor) ack(ctx context.Context, d *queue.Delivery, log *slog.Logger) {
	if err := e.source.Ack(ctx, d.ID); err != nil {
		log.Error("failed to ack delivery", "error", err)
	}
}

// refundFailedCharge returns the upfront debit of a request that ended
// failed. Revoking the fact first makes the refund single-shot: a redelivery
// or a racing reaper finds no fact and moves no money. NotFound is the
// normal outcome for requests that were never charged upfront.
func refundFailedCharge(
	ctx context.Context,
	charges commands.ChargeRepository,
	credits commands.CreditsRepository,
	requestID, userID uuid.UUID,
	log *slog.Logger,
) {
	amount, err := charges.Revoke(ctx, requestID)
	if err != nil {
		if !infra.IsKind(err, infra.KindNotFound) {
			log.Error("failed to revoke charge for failed request", "error", err)
		}
		return
	}
	if err := credits.Refund(ctx, userID, amount); err != nil {
		log.Error("failed to refund failed request",
			"user_id", userID, "amount", amount, "error", err)
		return
	}
	log.Info("refunded upfront charge for failed request", "amount", amount)
}

// failureMessage maps provider errors to the sanitized error a client may
// see in the status record. Raw provider details stay in the logs.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, provider.ErrTimeout):
		return "generation timed out"
	case errors.Is(err, provider.ErrUnavailable):
		return "generation service temporarily unavailable"
	case errors.Is(err, provider.ErrRejected):
		return "generation rejected by the provider"
	default:
		return "generation failed"
	}
}
