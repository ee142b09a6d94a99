package commands

import (
	"context"
	"errors"
	"log/slog"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/infra"
	"pixmuse/internal/infra/statusstore"
	"pixmuse/internal/pkg/clock"
	"pixmuse/internal/pkg/config"
	"pixmuse/internal/pkg/errs"
	"pixmuse/internal/provider"

	"github.com/google/uuid"
)

var (
	ErrInsufficientCredits = errs.New("insufficient credits")
	ErrServiceUnavailable  = errs.New("generation service unavailable")
	ErrProviderError       = errs.New("generation provider error")
	ErrGenerationTimeout   = errs.New("generation timed out")
	ErrInvalidModelForMode = errs.New("model not valid for requested mode")
	ErrInvalidRequest      = errs.New("invalid generation request")
	ErrBillingInconsistent = errs.New("billing inconsistency detected")
)

// errEnqueueFailed signals the async attempt was compensated and the
// request should fall through to the synchronous path.
var errEnqueueFailed = errs.New("enqueue failed after compensation")

type ArtifactView struct {
	URL  string
	Mime string
}

// GenerateResult is either a queued async request (Async true, RequestID
// set) or an inline synchronous result (SetID + Artifacts set).
type GenerateResult struct {
	Async     bool
	RequestID uuid.UUID
	SetID     uuid.UUID
	Artifacts []ArtifactView
}

type GenerateCommands interface {
	Generate(ctx context.Context, userID uuid.UUID, kind generation.Kind, params generation.Params) (*GenerateResult, error)
}

type generateUseCaseImpl struct {
	queue    JobQueue
	store    statusstore.Store
	credits  CreditsRepository
	charges  ChargeRepository
	sets     SetsRepository
	uploader ArtifactUploader
	provider provider.Provider
	cfg      config.PipelineConfig
	clock    clock.Clock
	log      *slog.Logger
}

func NewGenerateUseCase(
	queue JobQueue,
	store statusstore.Store,
	credits CreditsRepository,
	charges ChargeRepository,
	sets SetsRepository,
	uploader ArtifactUploader,
	prov provider.Provider,
	cfg config.PipelineConfig,
	clock clock.Clock,
	log *slog.Logger,
) GenerateCommands {
	return &generateUseCaseImpl{
		queue:    queue,
		store:    store,
		credits:  credits,
		charges:  charges,
		sets:     sets,
		uploader: uploader,
		provider: prov,
		cfg:      cfg,
		clock:    clock,
		log:      log,
	}
}

// Generate turns a validated request into either an enqueued job or an
// inline result, charging credits exactly once either way. The request id
// is assigned here and shared by both paths so the charge fact guards the
// enqueue-failure fallback against a double debit.
func (g *generateUseCaseImpl) Generate(
	ctx context.Context,
	userID uuid.UUID,
	kind generation.Kind,
	params generation.Params,
) (*GenerateResult, error) {
	cost, err := generation.Cost(kind, params)
	if err != nil {
		switch {
		case errors.Is(err, generation.ErrUnknownModel), errors.Is(err, generation.ErrModelKindMismatch):
			return nil, errs.Mark(err, ErrInvalidModelForMode)
		default:
			return nil, errs.Mark(err, ErrInvalidRequest)
		}
	}

	// advisory: the atomic debit re-checks the balance
	balance, err := g.credits.Balance(ctx, userID)
	if err != nil {
		return nil, errs.Mark(err, ErrServiceUnavailable)
	}
	if balance < cost {
		return nil, ErrInsufficientCredits
	}

	requestID := uuid.New()

	if g.cfg.AsyncEnabled {
		if probeErr := g.probeQueue(ctx); probeErr != nil {
			g.log.Warn("queue health probe failed, falling back to synchronous generation",
				"request_id", requestID, "error", probeErr)
		} else {
			result, asyncErr := g.dispatchAsync(ctx, requestID, userID, kind, params, cost)
			if asyncErr == nil {
				return result, nil
			}
			if !errors.Is(asyncErr, errEnqueueFailed) {
				return nil, asyncErr
			}
			g.log.Warn("enqueue failed after debit, compensated and falling back",
				"request_id", requestID)
		}
	}

	return g.dispatchSync(ctx, requestID, userID, kind, params, cost)
}

func (g *generateUseCaseImpl) probeQueue(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, g.cfg.HealthProbeTimeout)
	defer cancel()
	return g.queue.Ping(probeCtx)
}

// dispatchAsync charges upfront, then makes the enqueue durable. The two
// effects are reconciled: an enqueue failure refunds the debit and removes
// the charge fact before the sync fallback runs.
func (g *generateUseCaseImpl) dispatchAsync(
	ctx context.Context,
	requestID, userID uuid.UUID,
	kind generation.Kind,
	params generation.Params,
	cost int,
) (*GenerateResult, error) {
	if err := g.charges.TryInsert(ctx, requestID, userID, cost); err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			// a freshly generated id can never have been charged
			g.log.Error("charge fact already present for fresh request id",
				"request_id", requestID)
			return nil, errs.Mark(err, ErrBillingInconsistent)
		}
		return nil, errs.Mark(err, ErrServiceUnavailable)
	}

	if err := g.credits.Debit(ctx, userID, cost); err != nil {
		// no money moved, so only the fact is rolled back
		g.compensateCharge(ctx, requestID, userID, false)
		if infra.IsKind(err, infra.KindConflict) {
			return nil, ErrInsufficientCredits
		}
		return nil, errs.Mark(err, ErrServiceUnavailable)
	}

	now := g.clock.Now()
	snap := generation.Snapshot{
		RequestID: requestID,
		UserID:    userID,
		Kind:      kind,
		Status:    generation.StatusQueued,
		Message:   "waiting for a worker",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := g.store.Create(ctx, snap); err != nil {
		g.compensateCharge(ctx, requestID, userID, true)
		return nil, errEnqueueFailed
	}

	job := generation.Job{RequestID: requestID, UserID: userID, Kind: kind, Params: params}
	if err := g.queue.Enqueue(ctx, job); err != nil {
		g.compensateCharge(ctx, requestID, userID, true)
		g.failOrphanedStatus(ctx, requestID)
		return nil, errEnqueueFailed
	}

	return &GenerateResult{Async: true, RequestID: requestID}, nil
}

// compensateCharge undoes the upfront charge. The fact is revoked first so
// a concurrent compensator cannot refund the same request twice; the refund
// moves only when this caller won the revoke and money actually moved.
// Failures here are logged as critical: a lingering fact means a paid-for
// request that was never enqueued.
func (g *generateUseCaseImpl) compensateCharge(ctx context.Context, requestID, userID uuid.UUID, refund bool) {
	amount, err := g.charges.Revoke(ctx, requestID)
	if err != nil {
		if !infra.IsKind(err, infra.KindNotFound) {
			g.log.Error("failed to revoke charge fact during compensation",
				"request_id", requestID, "error", err)
		}
		return
	}
	if !refund {
		return
	}
	if err := g.credits.Refund(ctx, userID, amount); err != nil {
		g.log.Error("failed to refund credits during compensation",
			"request_id", requestID, "user_id", userID, "amount", amount, "error", err)
	}
}

func (g *generateUseCaseImpl) failOrphanedStatus(ctx context.Context, requestID uuid.UUID) {
	patch := generation.Patch{}.
		WithStatus(generation.StatusFailed).
		WithError("could not be queued")
	if _, err := g.store.Update(ctx, requestID, patch); err != nil {
		g.log.Warn("failed to mark orphaned status record failed",
			"request_id", requestID, "error", err)
	}
}

// dispatchSync blocks on the provider for the whole round-trip and charges
// only after the result is durably persisted, so a caller who receives an
// error was never billed. The charge fact check makes a retried charge for
// the same request id a no-op.
func (g *generateUseCaseImpl) dispatchSync(
	ctx context.Context,
	requestID, userID uuid.UUID,
	kind generation.Kind,
	params generation.Params,
	cost int,
) (*GenerateResult, error) {
	if kind == generation.KindVideo || !generation.SyncCapable(params.Model) {
		return nil, ErrInvalidModelForMode
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.JobTimeout)
	defer cancel()

	result, err := g.provider.Submit(callCtx, kind, params, nil)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrTimeout):
			return nil, errs.Mark(err, ErrGenerationTimeout)
		case errors.Is(err, provider.ErrUnavailable):
			return nil, errs.Mark(err, ErrServiceUnavailable)
		default:
			return nil, errs.Mark(err, ErrProviderError)
		}
	}

	setID, views, err := g.persistResult(ctx, requestID, userID, kind, params, result)
	if err != nil {
		return nil, err
	}

	if err := g.charges.TryInsert(ctx, requestID, userID, cost); err != nil {
		// duplicate means the async attempt already charged upfront; any
		// other failure is logged, never surfaced after a delivered result
		if !infra.IsKind(err, infra.KindDuplicateKey) {
			g.log.Error("failed to record charge after synchronous generation",
				"request_id", requestID, "error", err)
		}
	} else if err := g.credits.Debit(ctx, userID, cost); err != nil {
		g.log.Error("failed to debit credits after synchronous generation",
			"request_id", requestID, "user_id", userID, "error", err)
	}

	return &GenerateResult{SetID: setID, Artifacts: views}, nil
}

func (g *generateUseCaseImpl) persistResult(
	ctx context.Context,
	requestID, userID uuid.UUID,
	kind generation.Kind,
	params generation.Params,
	result *provider.Result,
) (uuid.UUID, []ArtifactView, error) {
	setID := uuid.New()
	artifacts := make([]generation.Artifact, 0, len(result.Artifacts))
	views := make([]ArtifactView, 0, len(result.Artifacts))

	for i, a := range result.Artifacts {
		artifactURL := a.URL
		if artifactURL == "" {
			uploaded, err := g.uploader.Upload(ctx, a.Data, a.Mime)
			if err != nil {
				return uuid.Nil, nil, errs.Mark(err, ErrServiceUnavailable)
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
		views = append(views, ArtifactView{URL: artifactURL, Mime: a.Mime})
	}

	set := generation.Set{
		ID:        setID,
		RequestID: requestID,
		UserID:    userID,
		Kind:      kind,
		Model:     params.Model,
		Prompt:    params.Prompt,
		CreatedAt: g.clock.Now(),
	}
	if err := g.sets.CreateSet(ctx, set, artifacts); err != nil {
		return uuid.Nil, nil, errs.Mark(err, ErrServiceUnavailable)
	}
	return setID, views, nil
}
