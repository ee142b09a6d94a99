//go:build unit

package queries_test

import (
	"context"
	"testing"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/infra"
	"pixmuse/internal/usecase/queries"
	statusstoremock "pixmuse/tests/mock/statusstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type StatusQueriesTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *statusstoremock.MockStore
	queries   queries.StatusQueries
	userID    uuid.UUID
}

func (s *StatusQueriesTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = statusstoremock.NewMockStore(s.ctrl)
	s.queries = queries.NewStatusQueries(s.mockStore)
	s.userID = uuid.New()
}

func (s *StatusQueriesTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestStatusQueriesSuite(t *testing.T) {
	suite.Run(t, new(StatusQueriesTestSuite))
}

func (s *StatusQueriesTestSuite) TestGetStatusReturnsOwnedSnapshot() {
	requestID := uuid.New()
	snap := &generation.Snapshot{
		RequestID: requestID,
		UserID:    s.userID,
		Kind:      generation.KindImage,
		Status:    generation.StatusProcessing,
		Progress:  40,
	}
	s.mockStore.EXPECT().Get(gomock.Any(), requestID).Return(snap, nil)

	got, err := s.queries.GetStatus(context.Background(), s.userID, requestID)
	s.Require().NoError(err)
	s.Equal(generation.StatusProcessing, got.Status)
	s.Equal(40, got.Progress)
}

func (s *StatusQueriesTestSuite) TestGetStatusMissingRecord() {
	requestID := uuid.New()
	s.mockStore.EXPECT().Get(gomock.Any(), requestID).
		Return(nil, infra.WrapRepoErr(infra.KindNotFound, "status not found", nil))

	_, err := s.queries.GetStatus(context.Background(), s.userID, requestID)
	s.ErrorIs(err, queries.ErrStatusNotFound)
}

func (s *StatusQueriesTestSuite) TestGetStatusHidesOtherUsersRecords() {
	requestID := uuid.New()
	snap := &generation.Snapshot{
		RequestID: requestID,
		UserID:    uuid.New(), // someone else
		Status:    generation.StatusQueued,
	}
	s.mockStore.EXPECT().Get(gomock.Any(), requestID).Return(snap, nil)

	_, err := s.queries.GetStatus(context.Background(), s.userID, requestID)
	s.ErrorIs(err, queries.ErrStatusNotFound)
}

func (s *StatusQueriesTestSuite) TestGetStatusStoreFailure() {
	requestID := uuid.New()
	s.mockStore.EXPECT().Get(gomock.Any(), requestID).
		Return(nil, infra.WrapRepoErr(infra.KindUnavailable, "redis down", nil))

	_, err := s.queries.GetStatus(context.Background(), s.userID, requestID)
	s.Require().Error(err)
	s.NotErrorIs(err, queries.ErrStatusNotFound)
}

func (s *StatusQueriesTestSuite) TestListMineScopesToUser() {
	snaps := []generation.Snapshot{
		{RequestID: uuid.New(), UserID: s.userID, Status: generation.StatusQueued},
		{RequestID: uuid.New(), UserID: s.userID, Status: generation.StatusProcessing},
	}
	s.mockStore.EXPECT().ListActive(gomock.Any(), &s.userID).Return(snaps, nil)

	got, err := s.queries.ListMine(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Len(got, 2)
}
