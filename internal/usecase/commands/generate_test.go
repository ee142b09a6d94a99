//go:build unit

package commands_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/infra"
	"pixmuse/internal/pkg/clock"
	"pixmuse/internal/pkg/config"
	"pixmuse/internal/provider"
	"pixmuse/internal/usecase/commands"
	commandsmock "pixmuse/tests/mock/commands"
	providermock "pixmuse/tests/mock/provider"
	statusstoremock "pixmuse/tests/mock/statusstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type GenerateUseCaseTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockQueue    *commandsmock.MockJobQueue
	mockStore    *statusstoremock.MockStore
	mockCredits  *commandsmock.MockCreditsRepository
	mockCharges  *commandsmock.MockChargeRepository
	mockSets     *commandsmock.MockSetsRepository
	mockUploader *commandsmock.MockArtifactUploader
	mockProvider *providermock.MockProvider
	uc           commands.GenerateCommands
	userID       uuid.UUID
}

func (s *GenerateUseCaseTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockQueue = commandsmock.NewMockJobQueue(s.ctrl)
	s.mockStore = statusstoremock.NewMockStore(s.ctrl)
	s.mockCredits = commandsmock.NewMockCreditsRepository(s.ctrl)
	s.mockCharges = commandsmock.NewMockChargeRepository(s.ctrl)
	s.mockSets = commandsmock.NewMockSetsRepository(s.ctrl)
	s.mockUploader = commandsmock.NewMockArtifactUploader(s.ctrl)
	s.mockProvider = providermock.NewMockProvider(s.ctrl)
	s.userID = uuid.New()

	s.uc = commands.NewGenerateUseCase(
		s.mockQueue,
		s.mockStore,
		s.mockCredits,
		s.mockCharges,
		s.mockSets,
		s.mockUploader,
		s.mockProvider,
		config.NewTestConfig().Pipeline,
		clock.NewMockClock(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func (s *GenerateUseCaseTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestGenerateUseCaseSuite(t *testing.T) {
	suite.Run(t, new(GenerateUseCaseTestSuite))
}

func imageRequest() (generation.Kind, generation.Params) {
	return generation.KindImage, generation.Params{Model: "flux-pro", Prompt: "a red fox", Count: 2}
}

func conflictErr() error {
	return infra.WrapRepoErr(infra.KindConflict, "insufficient balance", nil)
}

// ================================================================================
// Async dispatch
// ================================================================================

func (s *GenerateUseCaseTestSuite) TestAsyncSuccess() {
	kind, params := imageRequest() // cost 4

	s.mockCredits.EXPECT().Balance(gomock.Any(), s.userID).Return(10, nil)
	s.mockQueue.EXPECT().Ping(gomock.Any()).Return(nil)
	s.mockCharges.EXPECT().TryInsert(gomock.Any(), gomock.Any(), s.userID, 4).Return(nil)
	s.mockCredits.EXPECT().Debit(gomock.Any(), s.userID, 4).Return(nil)
	s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, snap generation.Snapshot) error {
			s.Equal(s.userID, snap.UserID)
			s.Equal(generation.StatusQueued, snap.Status)
			return nil
		})
	s.mockQueue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job generation.Job) error {
			s.Equal(s.userID, job.UserID)
			s.Equal(params, job.Params)
			return nil
		})

	result, err := s.uc.Generate(context.Background(), s.userID, kind, params)
	s.Require().NoError(err)
	s.True(result.Async)
	s.NotEqual(uuid.Nil, result.RequestID)
	s.Empty(result.Artifacts)
}

func (s *GenerateUseCaseTestSuite) TestInsufficientBalanceAdvisory() {
	kind, params := imageRequest()

	s.mockCredits.EXPECT().Balance(gomock.Any(), s.userID).Return(3, nil)

	_, err := s.uc.Generate(context.Background(), s.userID, kind, params)
	s.ErrorIs(err, commands.ErrInsufficientCredits)
}

func (s *GenerateUseCaseTestSuite) TestDebitRaceLostCompensatesChargeFact() {
	kind, params := imageRequest()

	s.mockCredits.EXPECT().Balance(gomock.Any(), s.userID).Return(10, nil)
	s.mockQueue.EXPECT().Ping(gomock.Any()).Return(nil)
	s.mockCharges.EXPECT().TryInsert(gomock.Any(), gomock.Any(), s.userID, 4).Return(nil)
	s.mockCredits.EXPECT().Debit(gomock.Any(), s.userID, 4).Return(conflictErr())
	// the fact is revoked, but no money moved so nothing is refunded
	s.mockCharges.EXPECT().Revoke(gomock.Any(), gomock.Any()).Return(4, nil)

	_, err := s.uc.Generate(context.Background(), s.userID, kind, params)
	s.ErrorIs(err, commands.ErrInsufficientCredits)
}

func (s *GenerateUseCaseTestSuite) TestEnqueueFailureRefundsAndFallsBackToSync() {
	kind, params := imageRequest()

	s.mockCredits.EXPECT().Balance(gomock.Any(), s.userID).Return(10, nil)
	s.mockQueue.EXPECT().Ping(gomock.Any()).Return(nil)
	s.mockCharges.EXPECT().TryInsert(gomock.Any(), gomock.Any(), s.userID, 4).Return(nil)
	s.mockCredits.EXPECT().Debit(gomock.Any(), s.userID, 4).Return(nil)
	s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.mockQueue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
		Return(infra.WrapRepoErr(infra.KindUnavailable, "redis down", nil))

	// compensation: revoke wins the fact, then the debited amount flows back
	s.mockCharges.EXPECT().Revoke(gomock.Any(), gomock.Any()).Return(4, nil)
	s.mockCredits.EXPECT().Refund(gomock.Any(), s.userID, 4).Return(nil)
	s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	// sync fallback runs under the same request id and charges again
	s.mockProvider.EXPECT().Submit(gomock.Any(), kind, params, gomock.Any()).
		Return(&provider.Result{Artifacts: []provider.Artifact{
			{URL: "https://cdn.example.com/a.png", Mime: "image/png"},
			{URL: "https://cdn.example.com/b.png", Mime: "image/png"},
		}}, nil)
	s.mockCharges.EXPECT().TryInsert(gomock.Any(), gomock.Any(), s.userID, 4).Return(nil)
	s.mockCredits.EXPECT().Debit(gomock.Any(), s.userID, 4).Return(nil)
	s.mockSets.EXPECT().CreateSet(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	result, err := s.uc.Generate(context.Background(), s.userID, kind, params)
	s.Require().NoError(err)
	s.False(result.Async)
	s.Len(result.Artifacts, 2)
}

// ================================================================================
// Sync dispatch
// ================================================================================

func (s *GenerateUseCaseTestSuite) TestSyncFallbackWhenQueueUnreachable() {
	kind, params := imageRequest()

	s.mockCredits.EXPECT().Balance(gomock.Any(), s.userID).Return(10, nil)
	s.mockQueue.EXPECT().Ping(gomock.Any()).
		Return(infra.WrapRepoErr(infra.KindUnavailable, "queue unreachable", nil))
	s.mockProvider.EXPECT().Submit(gomock.Any(), kind, params, gomock.Any()).
		Return(&provider.Result{Artifacts: []provider.Artifact{
			{URL: "https://cdn.example.com/a.png", Mime: "image/png"},
		}}, nil)
	s.mockCharges.EXPECT().TryInsert(gomock.Any(), gomock.Any(), s.userID, 4).Return(nil)
	s.mockCredits.EXPECT().Debit(gomock.Any(), s.userID, 4).Return(nil)
	s.mockSets.EXPECT().CreateSet(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	result, err := s.uc.Generate(context.Background(), s.userID, kind, params)
	s.Require().NoError(err)
	s.False(result.Async)
	s.NotEqual(uuid.Nil, result.SetID)
	s.Len(result.Artifacts, 1)
}

func (s *GenerateUseCaseTestSuite) TestSyncChargeFactDuplicatePreventsSecondDebit() {
	kind, params := imageRequest()

	s.mockCredits.EXPECT().Balance(gomock.Any(), s.userID).Return(10, nil)
	s.mockQueue.EXPECT().Ping(gomock.Any()).
		Return(infra.WrapRepoErr(infra.KindUnavailable, "queue unreachable", nil))
	s.mockProvider.EXPECT().Submit(gomock.Any(), kind, params, gomock.Any()).
		Return(&provider.Result{Artifacts: []provider.Artifact{
			{URL: "https://cdn.example.com/a.png", Mime: "image/png"},
		}}, nil)
	s.mockCharges.EXPECT().TryInsert(gomock.Any(), gomock.Any(), s.userID, 4).
		Return(infra.WrapRepoErr(infra.KindDuplicateKey, "already charged", nil))
	// no Debit expectation: the fact already exists
	s.mockSets.EXPECT().CreateSet(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	result, err := s.uc.Generate(context.Background(), s.userID, kind, params)
	s.Require().NoError(err)
	s.Len(result.Artifacts, 1)
}

func (s *GenerateUseCaseTestSuite) TestSyncUploadsInlineArtifacts() {
	kind, params := imageRequest()

	s.mockCredits.EXPECT().Balance(gomock.Any(), s.userID).Return(10, nil)
	s.mockQueue.EXPECT().Ping(gomock.Any()).
		Return(infra.WrapRepoErr(infra.KindUnavailable, "queue unreachable", nil))
	s.mockProvider.EXPECT().Submit(gomock.Any(), kind, params, gomock.Any()).
		Return(&provider.Result{Artifacts: []provider.Artifact{
			{Data: []byte{0x89, 0x50}, Mime: "image/png"},
		}}, nil)
	s.mockCharges.EXPECT().TryInsert(gomock.Any(), gomock.Any(), s.userID, 4).Return(nil)
	s.mockCredits.EXPECT().Debit(gomock.Any(), s.userID, 4).Return(nil)
	s.mockUploader.EXPECT().Upload(gomock.Any(), []byte{0x89, 0x50}, "image/png").
		Return("https://cdn.example.com/uploaded.png", nil)
	s.mockSets.EXPECT().CreateSet(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	result, err := s.uc.Generate(context.Background(), s.userID, kind, params)
	s.Require().NoError(err)
	s.Equal("https://cdn.example.com/uploaded.png", result.Artifacts[0].URL)
}

func (s *GenerateUseCaseTestSuite) TestSyncPersistFailureLeavesUserUncharged() {
	kind, params := imageRequest()

	s.mockCredits.EXPECT().Balance(gomock.Any(), s.userID).Return(10, nil)
	s.mockQueue.EXPECT().Ping(gomock.Any()).
		Return(infra.WrapRepoErr(infra.KindUnavailable, "queue unreachable", nil))
	s.mockProvider.EXPECT().Submit(gomock.Any(), kind, params, gomock.Any()).
		Return(&provider.Result{Artifacts: []provider.Artifact{
			{URL: "https://cdn.example.com/a.png", Mime: "image/png"},
		}}, nil)
	s.mockSets.EXPECT().CreateSet(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(infra.WrapRepoErr(infra.KindDBFailure, "insert failed", nil))
	// no TryInsert and no Debit expectations: an error result is never billed

	_, err := s.uc.Generate(context.Background(), s.userID, kind, params)
	s.ErrorIs(err, commands.ErrServiceUnavailable)
}

func (s *GenerateUseCaseTestSuite) TestVideoRejectedWhenPipelineDown() {
	params := generation.Params{Model: "kling-standard", Prompt: "a red fox running", DurationSec: 10}

	s.mockCredits.EXPECT().Balance(gomock.Any(), s.userID).Return(100, nil)
	s.mockQueue.EXPECT().Ping(gomock.Any()).
		Return(infra.WrapRepoErr(infra.KindUnavailable, "queue unreachable", nil))

	_, err := s.uc.Generate(context.Background(), s.userID, generation.KindVideo, params)
	s.ErrorIs(err, commands.ErrInvalidModelForMode)
}

func (s *GenerateUseCaseTestSuite) TestSyncProviderTimeout() {
	kind, params := imageRequest()

	s.mockCredits.EXPECT().Balance(gomock.Any(), s.userID).Return(10, nil)
	s.mockQueue.EXPECT().Ping(gomock.Any()).
		Return(infra.WrapRepoErr(infra.KindUnavailable, "queue unreachable", nil))
	s.mockProvider.EXPECT().Submit(gomock.Any(), kind, params, gomock.Any()).
		Return(nil, provider.ErrTimeout)

	_, err := s.uc.Generate(context.Background(), s.userID, kind, params)
	s.ErrorIs(err, commands.ErrGenerationTimeout)
}

// ================================================================================
// Validation
// ================================================================================

func (s *GenerateUseCaseTestSuite) TestUnknownModel() {
	params := generation.Params{Model: "dall-e", Prompt: "a red fox", Count: 1}

	_, err := s.uc.Generate(context.Background(), s.userID, generation.KindImage, params)
	s.ErrorIs(err, commands.ErrInvalidModelForMode)
}

func (s *GenerateUseCaseTestSuite) TestOutOfRangeParams() {
	params := generation.Params{Model: "flux-pro", Prompt: "a red fox", Count: 99}

	_, err := s.uc.Generate(context.Background(), s.userID, generation.KindImage, params)
	s.ErrorIs(err, commands.ErrInvalidRequest)
}
