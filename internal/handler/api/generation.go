package api

import (
	"errors"
	"net/http"

	reqdto "pixmuse/internal/handler/dto/request"
	resdto "pixmuse/internal/handler/dto/response"
	"pixmuse/internal/handler/middleware"
	"pixmuse/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type GenerationHandler struct {
	generateUseCase commands.GenerateCommands
}

func NewGenerationHandler(generateUseCase commands.GenerateCommands) *GenerationHandler {
	return &GenerationHandler{
		generateUseCase: generateUseCase,
	}
}

// @Summary Create generation
// @Description Dispatch an image or video generation; async when the pipeline is healthy, inline otherwise
// @Tags generations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateGenerationRequest true "Generation request"
// @Success 201 {object} resdto.GenerationResponse
// @Success 202 {object} resdto.GenerationAcceptedResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 402 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Failure 504 {object} map[string]string
// @Router /generations [post]
func (h *GenerationHandler) CreateGeneration(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.CreateGenerationRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	kind, params, err := req.ToDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown generation kind",
		})
		return
	}

	result, err := h.generateUseCase.Generate(c.Request.Context(), userID, kind, params)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrInsufficientCredits):
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error": "Insufficient credits",
			})
		case errors.Is(err, commands.ErrInvalidModelForMode):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Model cannot serve the requested generation mode",
			})
		case errors.Is(err, commands.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid generation parameters",
			})
		case errors.Is(err, commands.ErrGenerationTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Generation timed out",
			})
		case errors.Is(err, commands.ErrProviderError):
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Generation provider error",
			})
		case errors.Is(err, commands.ErrServiceUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Generation service unavailable",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	if result.Async {
		c.JSON(http.StatusAccepted, resdto.GenerationAcceptedResponse{
			RequestID: result.RequestID,
			StatusURL: "/processing/" + result.RequestID.String(),
		})
		return
	}

	c.JSON(http.StatusCreated, resdto.FromGenerateResult(result))
}
