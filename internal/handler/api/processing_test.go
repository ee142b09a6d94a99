//go:build unit

package api_test

import (
	"net/http"
	"testing"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/handler/api"
	resdto "pixmuse/internal/handler/dto/response"
	"pixmuse/internal/usecase/queries"
	"pixmuse/tests/common/httptest"
	queriesmock "pixmuse/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ProcessingHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockQueries *queriesmock.MockStatusQueries
	handler     *api.ProcessingHandler
	userID      uuid.UUID
}

func (s *ProcessingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockQueries = queriesmock.NewMockStatusQueries(s.mockCtrl)
	s.handler = api.NewProcessingHandler(s.mockQueries)
	s.userID = uuid.New()

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user_id", s.userID)
		c.Next()
	}

	s.router.GET("/processing/mine", authMiddleware, s.handler.ListMine)
	s.router.GET("/processing/:id", authMiddleware, s.handler.GetStatus)
}

func (s *ProcessingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestProcessingHandlerSuite(t *testing.T) {
	suite.Run(t, new(ProcessingHandlerTestSuite))
}

// ================================================================================
// TestGetStatus
// ================================================================================

func (s *ProcessingHandlerTestSuite) TestGetStatus() {
	requestID := uuid.New()
	url := "/processing/" + requestID.String()

	s.Run("success: returns 200 OK with the snapshot", func() {
		snap := &generation.Snapshot{
			RequestID: requestID,
			UserID:    s.userID,
			Kind:      generation.KindImage,
			Status:    generation.StatusProcessing,
			Progress:  40,
			Message:   "rendering",
		}
		s.mockQueries.EXPECT().GetStatus(gomock.Any(), s.userID, requestID).
			Return(snap, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var body resdto.ProcessingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(requestID, body.RequestID)
		s.Equal("processing", body.Status)
		s.Equal(40, body.Progress)
	})

	s.Run("error: 400 Bad Request on malformed request id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/processing/not-a-uuid", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request ID")
	})

	s.Run("error: 404 Not Found for missing or foreign requests", func() {
		s.mockQueries.EXPECT().GetStatus(gomock.Any(), s.userID, requestID).
			Return(nil, queries.ErrStatusNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "not found")
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}

// ================================================================================
// TestListMine
// ================================================================================

func (s *ProcessingHandlerTestSuite) TestListMine() {
	url := "/processing/mine"

	s.Run("success: returns the caller's active generations", func() {
		snaps := []generation.Snapshot{
			{RequestID: uuid.New(), UserID: s.userID, Kind: generation.KindImage, Status: generation.StatusQueued},
			{RequestID: uuid.New(), UserID: s.userID, Kind: generation.KindVideo, Status: generation.StatusProcessing, Progress: 70},
		}
		s.mockQueries.EXPECT().ListMine(gomock.Any(), s.userID).Return(snaps, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var body []resdto.ProcessingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body, 2)
		s.Equal("queued", body[0].Status)
		s.Equal(70, body[1].Progress)
	})

	s.Run("success: empty list when nothing is active", func() {
		s.mockQueries.EXPECT().ListMine(gomock.Any(), s.userID).Return(nil, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var body []resdto.ProcessingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Empty(body)
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}
