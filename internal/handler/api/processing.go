package api

import (
	"errors"
	"net/http"

	resdto "pixmuse/internal/handler/dto/response"
	"pixmuse/internal/handler/middleware"
	"pixmuse/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProcessingHandler struct {
	statusQueries queries.StatusQueries
}

func NewProcessingHandler(statusQueries queries.StatusQueries) *ProcessingHandler {
	return &ProcessingHandler{
		statusQueries: statusQueries,
	}
}

// @Summary Get generation status
// @Description Poll the live status snapshot of one generation request
// @Tags processing
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} resdto.ProcessingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /processing/{id} [get]
func (h *ProcessingHandler) GetStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request ID format",
		})
		return
	}

	snap, err := h.statusQueries.GetStatus(c.Request.Context(), userID, requestID)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrStatusNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Generation request not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromSnapshot(snap))
}

// @Summary List my active generations
// @Description List the caller's non-terminal generation requests
// @Tags processing
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.ProcessingResponse
// @Failure 401 {object} map[string]string
// @Router /processing/mine [get]
func (h *ProcessingHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	snaps, err := h.statusQueries.ListMine(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromSnapshots(snaps))
}
