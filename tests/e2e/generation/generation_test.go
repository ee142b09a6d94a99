//go:build e2e

package generation_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"pixmuse/internal/handler/dto/response"
	"pixmuse/tests/common/httptest"
	"pixmuse/tests/e2e"
	"pixmuse/tests/e2e/common/helper"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	generationsURL = "/api/generations"
	processingURL  = "/processing/"
)

type GenerationSuite struct {
	e2e.SharedSuite
	helper *helper.JWTTestHelper
}

func (s *GenerationSuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.helper = helper.NewJWTTestHelper(s.DB, s.Config.JWT)
}

func (s *GenerationSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestGenerationSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(GenerationSuite))
}

func imageRequest(prompt string) map[string]any {
	return map[string]any{
		"kind":   "image",
		"model":  "flux-pro",
		"prompt": prompt,
		"count":  1,
	}
}

// pollUntilTerminal polls the status endpoint until the request settles.
func (s *GenerationSuite) pollUntilTerminal(t *testing.T, token string, requestID uuid.UUID) response.ProcessingResponse {
	t.Helper()

	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, processingURL+requestID.String(), nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var status response.ProcessingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &status))
		if status.Status == "complete" || status.Status == "failed" {
			return status
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatal("generation did not reach a terminal state in time")
	return response.ProcessingResponse{}
}

// =============================================================================
// TestCreateGeneration - Async dispatch through the full pipeline
// =============================================================================

func (s *GenerationSuite) TestCreateGeneration() {
	s.Run("Normal case: image generation completes asynchronously", func() {
		t := s.T()

		userID := s.helper.CreateTestUser(t, "artist@example.com", 10)
		token := s.helper.GenerateToken(t, userID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, generationsURL,
			imageRequest("a red fox in the snow"), token)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

		var accepted response.GenerationAcceptedResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &accepted))
		require.NotEqual(t, uuid.Nil, accepted.RequestID)
		require.Equal(t, processingURL+accepted.RequestID.String(), accepted.StatusURL)

		final := s.pollUntilTerminal(t, token, accepted.RequestID)

		expected := response.ProcessingResponse{
			RequestID: accepted.RequestID,
			Kind:      "image",
			Status:    "complete",
			Progress:  100,
			Message:   "generation complete",
		}
		opts := []cmp.Option{
			cmpopts.IgnoreFields(response.ProcessingResponse{}, "SetID", "CreatedAt", "UpdatedAt"),
		}
		require.Empty(t, cmp.Diff(expected, final, opts...))
		require.NotNil(t, final.SetID)

		// the set and its artifact made it to the domain store
		var artifactCount int
		err := s.DB.QueryRow(context.Background(),
			"SELECT count(*) FROM generation_artifacts a JOIN generation_sets s ON s.id = a.set_id WHERE s.request_id = $1",
			accepted.RequestID).Scan(&artifactCount)
		require.NoError(t, err)
		require.Equal(t, 1, artifactCount)

		// flux-pro x1 costs 2, charged exactly once
		require.Equal(t, 8, s.helper.CreditBalance(t, userID))
		var chargeAmount int
		err = s.DB.QueryRow(context.Background(),
			"SELECT amount FROM credit_charges WHERE request_id = $1", accepted.RequestID).Scan(&chargeAmount)
		require.NoError(t, err)
		require.Equal(t, 2, chargeAmount)
	})

	s.Run("Normal case: video generation completes asynchronously", func() {
		t := s.T()

		userID := s.helper.CreateTestUser(t, "director@example.com", 30)
		token := s.helper.GenerateToken(t, userID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, generationsURL, map[string]any{
			"kind":        "video",
			"model":       "kling-standard",
			"prompt":      "a red fox running through snow",
			"durationSec": 10,
		}, token)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

		var accepted response.GenerationAcceptedResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &accepted))

		final := s.pollUntilTerminal(t, token, accepted.RequestID)
		require.Equal(t, "complete", final.Status)
		require.Equal(t, "video", final.Kind)

		// kling-standard 10s costs 10
		require.Equal(t, 20, s.helper.CreditBalance(t, userID))
	})

	s.Run("Error case: provider failure ends in failed status", func() {
		t := s.T()

		userID := s.helper.CreateTestUser(t, "unlucky@example.com", 10)
		token := s.helper.GenerateToken(t, userID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, generationsURL,
			imageRequest("[fail] cursed prompt"), token)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

		var accepted response.GenerationAcceptedResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &accepted))

		final := s.pollUntilTerminal(t, token, accepted.RequestID)
		require.Equal(t, "failed", final.Status)
		require.NotEmpty(t, final.Error)
		require.Nil(t, final.SetID)

		// no set was persisted for the failed request
		var setCount int
		err := s.DB.QueryRow(context.Background(),
			"SELECT count(*) FROM generation_sets WHERE request_id = $1", accepted.RequestID).Scan(&setCount)
		require.NoError(t, err)
		require.Equal(t, 0, setCount)

		// the upfront debit flows back; the refund lands just after the
		// terminal status, so give it a moment
		require.Eventually(t, func() bool {
			return s.helper.CreditBalance(t, userID) == 10
		}, 5*time.Second, 100*time.Millisecond, "upfront charge was not refunded")
		var chargeCount int
		err = s.DB.QueryRow(context.Background(),
			"SELECT count(*) FROM credit_charges WHERE request_id = $1", accepted.RequestID).Scan(&chargeCount)
		require.NoError(t, err)
		require.Equal(t, 0, chargeCount)
	})

	s.Run("Error case: insufficient credits are rejected upfront", func() {
		t := s.T()

		userID := s.helper.CreateTestUser(t, "broke@example.com", 1)
		token := s.helper.GenerateToken(t, userID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, generationsURL,
			imageRequest("a red fox"), token)
		require.Equal(t, http.StatusPaymentRequired, w.Code, w.Body.String())

		// nothing was charged
		require.Equal(t, 1, s.helper.CreditBalance(t, userID))
	})

	s.Run("Error case: unauthenticated requests are rejected", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, generationsURL,
			imageRequest("a red fox"), "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	s.Run("Error case: expired tokens are rejected", func() {
		t := s.T()

		userID := s.helper.CreateTestUser(t, "expired@example.com", 10)
		token := s.helper.CreateExpiredToken(t, userID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, generationsURL,
			imageRequest("a red fox"), token)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// =============================================================================
// TestProcessingStatus - Polling surface
// =============================================================================

func (s *GenerationSuite) TestProcessingStatus() {
	s.Run("Error case: another user's request reads as not found", func() {
		t := s.T()

		ownerID := s.helper.CreateTestUser(t, "owner@example.com", 10)
		ownerToken := s.helper.GenerateToken(t, ownerID)
		otherID := s.helper.CreateTestUser(t, "other@example.com", 10)
		otherToken := s.helper.GenerateToken(t, otherID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, generationsURL,
			imageRequest("a red fox"), ownerToken)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

		var accepted response.GenerationAcceptedResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &accepted))

		fw := httptest.PerformRequest(t, s.Router, http.MethodGet,
			processingURL+accepted.RequestID.String(), nil, otherToken)
		require.Equal(t, http.StatusNotFound, fw.Code)

		// the owner still sees it and it settles
		s.pollUntilTerminal(t, ownerToken, accepted.RequestID)
	})

	s.Run("Error case: unknown request id reads as not found", func() {
		t := s.T()

		userID := s.helper.CreateTestUser(t, "curious@example.com", 10)
		token := s.helper.GenerateToken(t, userID)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet,
			processingURL+uuid.NewString(), nil, token)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

// =============================================================================
// TestHealth - Pipeline health surfaces
// =============================================================================

func (s *GenerationSuite) TestHealth() {
	s.Run("Normal case: queue, workers and notifier report healthy", func() {
		t := s.T()

		for _, path := range []string{"/health", "/health/queue", "/health/workers", "/health/notifier"} {
			w := httptest.PerformRequest(t, s.Router, http.MethodGet, path, nil, "")
			require.Equal(t, http.StatusOK, w.Code, "%s: %s", path, w.Body.String())
		}
	})
}
