//go:build unit

package worker_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/infra"
	"pixmuse/internal/infra/queue"
	"pixmuse/internal/pkg/clock"
	"pixmuse/internal/pkg/config"
	"pixmuse/internal/provider"
	"pixmuse/internal/worker"
	commandsmock "pixmuse/tests/mock/commands"
	providermock "pixmuse/tests/mock/provider"
	statusstoremock "pixmuse/tests/mock/statusstore"
	workermock "pixmuse/tests/mock/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ExecutorTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockSource   *workermock.MockDeliverySource
	mockStore    *statusstoremock.MockStore
	mockCharges  *commandsmock.MockChargeRepository
	mockCredits  *commandsmock.MockCreditsRepository
	mockSets     *commandsmock.MockSetsRepository
	mockUploader *commandsmock.MockArtifactUploader
	mockProvider *providermock.MockProvider
	exec         *worker.Executor
}

func (s *ExecutorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockSource = workermock.NewMockDeliverySource(s.ctrl)
	s.mockStore = statusstoremock.NewMockStore(s.ctrl)
	s.mockCharges = commandsmock.NewMockChargeRepository(s.ctrl)
	s.mockCredits = commandsmock.NewMockCreditsRepository(s.ctrl)
	s.mockSets = commandsmock.NewMockSetsRepository(s.ctrl)
	s.mockUploader = commandsmock.NewMockArtifactUploader(s.ctrl)
	s.mockProvider = providermock.NewMockProvider(s.ctrl)

	s.exec = worker.NewExecutor(
		s.mockSource,
		s.mockStore,
		s.mockCharges,
		s.mockCredits,
		s.mockSets,
		s.mockUploader,
		s.mockProvider,
		config.NewTestConfig().Pipeline,
		clock.NewMockClock(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func (s *ExecutorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestExecutorSuite(t *testing.T) {
	suite.Run(t, new(ExecutorTestSuite))
}

func (s *ExecutorTestSuite) delivery() *queue.Delivery {
	return &queue.Delivery{
		ID: "1724500000000-0",
		Job: generation.Job{
			RequestID: uuid.New(),
			UserID:    uuid.New(),
			Kind:      generation.KindImage,
			Params:    generation.Params{Model: "flux-schnell", Prompt: "a red fox", Count: 1},
		},
	}
}

// expectStatusUpdate matches the next store update whose patch carries the
// given status and returns it through DoAndReturn.
func (s *ExecutorTestSuite) expectStatusUpdate(requestID uuid.UUID, want generation.Status) *gomock.Call {
	return s.mockStore.EXPECT().Update(gomock.Any(), requestID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, patch generation.Patch) (*generation.Snapshot, error) {
			s.Require().NotNil(patch.Status)
			s.Equal(want, *patch.Status)
			return &generation.Snapshot{RequestID: requestID, Status: want}, nil
		})
}

func (s *ExecutorTestSuite) TestHappyPathAcksAfterTerminalWrite() {
	d := s.delivery()

	processing := s.expectStatusUpdate(d.Job.RequestID, generation.StatusProcessing)
	submit := s.mockProvider.EXPECT().Submit(gomock.Any(), d.Job.Kind, d.Job.Params, gomock.Any()).
		Return(&provider.Result{Artifacts: []provider.Artifact{
			{URL: "https://cdn.example.com/a.png", Mime: "image/png"},
		}}, nil)
	persist := s.mockSets.EXPECT().CreateSet(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, set generation.Set, artifacts []generation.Artifact) error {
			s.Equal(d.Job.RequestID, set.RequestID)
			s.Equal(d.Job.UserID, set.UserID)
			s.Require().Len(artifacts, 1)
			s.Equal("https://cdn.example.com/a.png", artifacts[0].URL)
			return nil
		})
	charge := s.mockCharges.EXPECT().TryInsert(gomock.Any(), d.Job.RequestID, d.Job.UserID, 1).
		Return(infra.WrapRepoErr(infra.KindDuplicateKey, "already charged", nil))
	terminal := s.expectStatusUpdate(d.Job.RequestID, generation.StatusComplete)
	ack := s.mockSource.EXPECT().Ack(gomock.Any(), d.ID).Return(nil)

	gomock.InOrder(processing, submit, persist, charge, terminal, ack)

	s.exec.Process(context.Background(), d)
}

func (s *ExecutorTestSuite) TestProviderFailureRefundsUpfrontChargeAndAcks() {
	d := s.delivery()

	processing := s.expectStatusUpdate(d.Job.RequestID, generation.StatusProcessing)
	submit := s.mockProvider.EXPECT().Submit(gomock.Any(), d.Job.Kind, d.Job.Params, gomock.Any()).
		Return(nil, provider.ErrRejected)
	terminal := s.mockStore.EXPECT().Update(gomock.Any(), d.Job.RequestID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, patch generation.Patch) (*generation.Snapshot, error) {
			s.Require().NotNil(patch.Status)
			s.Equal(generation.StatusFailed, *patch.Status)
			s.Require().NotNil(patch.Error)
			s.Equal("generation rejected by the provider", *patch.Error)
			return &generation.Snapshot{}, nil
		})
	// the producer charged upfront; a failed job hands the credits back
	revoke := s.mockCharges.EXPECT().Revoke(gomock.Any(), d.Job.RequestID).Return(1, nil)
	refund := s.mockCredits.EXPECT().Refund(gomock.Any(), d.Job.UserID, 1).Return(nil)
	ack := s.mockSource.EXPECT().Ack(gomock.Any(), d.ID).Return(nil)

	gomock.InOrder(processing, submit, terminal, revoke, refund, ack)

	s.exec.Process(context.Background(), d)
}

func (s *ExecutorTestSuite) TestFailedRedeliveryRefundsOnlyOnce() {
	d := s.delivery()
	d.Redelivered = true

	s.mockSets.EXPECT().FindByRequestID(gomock.Any(), d.Job.RequestID).
		Return(nil, infra.WrapRepoErr(infra.KindNotFound, "no set", nil))
	s.expectStatusUpdate(d.Job.RequestID, generation.StatusProcessing)
	s.mockProvider.EXPECT().Submit(gomock.Any(), d.Job.Kind, d.Job.Params, gomock.Any()).
		Return(nil, provider.ErrTimeout)
	s.expectStatusUpdate(d.Job.RequestID, generation.StatusFailed)
	// a previous attempt already revoked the fact; no Refund expectation
	s.mockCharges.EXPECT().Revoke(gomock.Any(), d.Job.RequestID).
		Return(0, infra.WrapRepoErr(infra.KindNotFound, "charge not found", nil))
	s.mockSource.EXPECT().Ack(gomock.Any(), d.ID).Return(nil)

	s.exec.Process(context.Background(), d)
}

func (s *ExecutorTestSuite) TestMissingChargeFactIsDebitedOnCompletion() {
	d := s.delivery()

	s.expectStatusUpdate(d.Job.RequestID, generation.StatusProcessing)
	s.mockProvider.EXPECT().Submit(gomock.Any(), d.Job.Kind, d.Job.Params, gomock.Any()).
		Return(&provider.Result{Artifacts: []provider.Artifact{
			{URL: "https://cdn.example.com/a.png", Mime: "image/png"},
		}}, nil)
	s.mockSets.EXPECT().CreateSet(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	// nobody charged upfront, so the delivered work is billed here
	s.mockCharges.EXPECT().TryInsert(gomock.Any(), d.Job.RequestID, d.Job.UserID, 1).Return(nil)
	s.mockCredits.EXPECT().Debit(gomock.Any(), d.Job.UserID, 1).Return(nil)
	s.expectStatusUpdate(d.Job.RequestID, generation.StatusComplete)
	s.mockSource.EXPECT().Ack(gomock.Any(), d.ID).Return(nil)

	s.exec.Process(context.Background(), d)
}

func (s *ExecutorTestSuite) TestRedeliveredJobWithExistingSetSkipsProvider() {
	d := s.delivery()
	d.Redelivered = true
	existing := &generation.Set{ID: uuid.New(), RequestID: d.Job.RequestID, UserID: d.Job.UserID}

	s.mockSets.EXPECT().FindByRequestID(gomock.Any(), d.Job.RequestID).Return(existing, nil)
	s.mockStore.EXPECT().Update(gomock.Any(), d.Job.RequestID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, patch generation.Patch) (*generation.Snapshot, error) {
			s.Require().NotNil(patch.SetID)
			s.Equal(existing.ID, *patch.SetID)
			return &generation.Snapshot{}, nil
		})
	s.mockSource.EXPECT().Ack(gomock.Any(), d.ID).Return(nil)

	s.exec.Process(context.Background(), d)
}

func (s *ExecutorTestSuite) TestRedeliveredJobWithoutSetRunsNormally() {
	d := s.delivery()
	d.Redelivered = true

	s.mockSets.EXPECT().FindByRequestID(gomock.Any(), d.Job.RequestID).
		Return(nil, infra.WrapRepoErr(infra.KindNotFound, "no set", nil))
	s.expectStatusUpdate(d.Job.RequestID, generation.StatusProcessing)
	s.mockProvider.EXPECT().Submit(gomock.Any(), d.Job.Kind, d.Job.Params, gomock.Any()).
		Return(&provider.Result{Artifacts: []provider.Artifact{
			{URL: "https://cdn.example.com/a.png", Mime: "image/png"},
		}}, nil)
	s.mockSets.EXPECT().CreateSet(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.mockCharges.EXPECT().TryInsert(gomock.Any(), d.Job.RequestID, d.Job.UserID, 1).
		Return(infra.WrapRepoErr(infra.KindDuplicateKey, "already charged", nil))
	s.expectStatusUpdate(d.Job.RequestID, generation.StatusComplete)
	s.mockSource.EXPECT().Ack(gomock.Any(), d.ID).Return(nil)

	s.exec.Process(context.Background(), d)
}

func (s *ExecutorTestSuite) TestTerminalRecordMeansAckWithoutWork() {
	d := s.delivery()

	s.mockStore.EXPECT().Update(gomock.Any(), d.Job.RequestID, gomock.Any()).
		Return(nil, infra.WrapRepoErr(infra.KindConflict, "already terminal", nil))
	s.mockSource.EXPECT().Ack(gomock.Any(), d.ID).Return(nil)

	s.exec.Process(context.Background(), d)
}

func (s *ExecutorTestSuite) TestUnreachableStoreLeavesDeliveryPending() {
	d := s.delivery()

	s.mockStore.EXPECT().Update(gomock.Any(), d.Job.RequestID, gomock.Any()).
		Return(nil, infra.WrapRepoErr(infra.KindUnavailable, "redis down", nil))
	// no Ack expectation: the delivery must stay pending

	s.exec.Process(context.Background(), d)
}

func (s *ExecutorTestSuite) TestTerminalWriteFailureLeavesDeliveryPending() {
	d := s.delivery()

	s.expectStatusUpdate(d.Job.RequestID, generation.StatusProcessing)
	s.mockProvider.EXPECT().Submit(gomock.Any(), d.Job.Kind, d.Job.Params, gomock.Any()).
		Return(&provider.Result{Artifacts: []provider.Artifact{
			{URL: "https://cdn.example.com/a.png", Mime: "image/png"},
		}}, nil)
	s.mockSets.EXPECT().CreateSet(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.mockCharges.EXPECT().TryInsert(gomock.Any(), d.Job.RequestID, d.Job.UserID, 1).
		Return(infra.WrapRepoErr(infra.KindDuplicateKey, "already charged", nil))
	s.mockStore.EXPECT().Update(gomock.Any(), d.Job.RequestID, gomock.Any()).
		Return(nil, infra.WrapRepoErr(infra.KindUnavailable, "redis down", nil))
	// no Ack expectation

	s.exec.Process(context.Background(), d)
}

func (s *ExecutorTestSuite) TestPersistRaceReusesWinningSet() {
	d := s.delivery()
	winner := &generation.Set{ID: uuid.New(), RequestID: d.Job.RequestID}

	s.expectStatusUpdate(d.Job.RequestID, generation.StatusProcessing)
	s.mockProvider.EXPECT().Submit(gomock.Any(), d.Job.Kind, d.Job.Params, gomock.Any()).
		Return(&provider.Result{Artifacts: []provider.Artifact{
			{URL: "https://cdn.example.com/a.png", Mime: "image/png"},
		}}, nil)
	s.mockSets.EXPECT().CreateSet(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(infra.WrapRepoErr(infra.KindDuplicateKey, "request_id taken", nil))
	s.mockSets.EXPECT().FindByRequestID(gomock.Any(), d.Job.RequestID).Return(winner, nil)
	s.mockCharges.EXPECT().TryInsert(gomock.Any(), d.Job.RequestID, d.Job.UserID, 1).
		Return(infra.WrapRepoErr(infra.KindDuplicateKey, "already charged", nil))
	s.mockStore.EXPECT().Update(gomock.Any(), d.Job.RequestID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, patch generation.Patch) (*generation.Snapshot, error) {
			s.Require().NotNil(patch.SetID)
			s.Equal(winner.ID, *patch.SetID)
			return &generation.Snapshot{}, nil
		})
	s.mockSource.EXPECT().Ack(gomock.Any(), d.ID).Return(nil)

	s.exec.Process(context.Background(), d)
}

func (s *ExecutorTestSuite) TestInlineArtifactsUploadedBeforePersist() {
	d := s.delivery()

	s.expectStatusUpdate(d.Job.RequestID, generation.StatusProcessing)
	s.mockProvider.EXPECT().Submit(gomock.Any(), d.Job.Kind, d.Job.Params, gomock.Any()).
		Return(&provider.Result{Artifacts: []provider.Artifact{
			{Data: []byte{0x89, 0x50}, Mime: "image/png"},
		}}, nil)
	s.mockUploader.EXPECT().Upload(gomock.Any(), []byte{0x89, 0x50}, "image/png").
		Return("https://cdn.example.com/uploaded.png", nil)
	s.mockSets.EXPECT().CreateSet(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ generation.Set, artifacts []generation.Artifact) error {
			s.Require().Len(artifacts, 1)
			s.Equal("https://cdn.example.com/uploaded.png", artifacts[0].URL)
			return nil
		})
	s.mockCharges.EXPECT().TryInsert(gomock.Any(), d.Job.RequestID, d.Job.UserID, 1).
		Return(infra.WrapRepoErr(infra.KindDuplicateKey, "already charged", nil))
	s.expectStatusUpdate(d.Job.RequestID, generation.StatusComplete)
	s.mockSource.EXPECT().Ack(gomock.Any(), d.ID).Return(nil)

	s.exec.Process(context.Background(), d)
}
