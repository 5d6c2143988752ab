package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"parentguide-backend/i18n"
	"parentguide-backend/models"
	"parentguide-backend/ratelimit"
	"parentguide-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GuidanceHandler handles HTTP requests for questions
type GuidanceHandler struct {
	guidanceService *service.GuidanceService
	limiter         *ratelimit.Limiter
}

// NewGuidanceHandler creates a new guidance handler. limiter may be nil.
func NewGuidanceHandler(guidanceService *service.GuidanceService, limiter *ratelimit.Limiter) *GuidanceHandler {
	return &GuidanceHandler{
		guidanceService: guidanceService,
		limiter:         limiter,
	}
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// Ask handles POST /api/ask
func (h *GuidanceHandler) Ask(c *gin.Context) {
	var req models.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		lang := i18n.Match(c.GetHeader("Accept-Language"))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": i18n.T(lang, "error_invalid_request"),
				"details": err.Error(),
			},
		})
		return
	}
	lang := i18n.Match(req.Language, c.GetHeader("Accept-Language"))

	if h.limiter != nil {
		remaining, err := h.limiter.Allow(c.Request.Context(), c.ClientIP())
		switch {
		case errors.Is(err, ratelimit.ErrLimited):
			c.Header("X-RateLimit-Remaining", "0")
			errorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", i18n.T(lang, "error_rate_limited"))
			return
		case err != nil:
			zap.L().Warn("rate limit check failed", zap.Error(err))
		default:
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}
	}

	env, err := h.guidanceService.Ask(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuestion) {
			errorResponse(c, http.StatusBadRequest, "EMPTY_QUESTION", i18n.T(lang, "error_empty_question"))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "ASK_FAILED", err.Error())
		return
	}

	// Provider failure is reported inside the envelope with a 200.
	c.JSON(http.StatusOK, env)
}

// GetQuestion handles GET /api/questions/:id
func (h *GuidanceHandler) GetQuestion(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid question ID format")
		return
	}

	log, err := h.guidanceService.GetQuestion(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			errorResponse(c, http.StatusNotFound, "NOT_FOUND", "Question not found")
			return
		}
		zap.L().Error("get question failed", zap.String("id", idStr), zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to load question")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    log,
	})
}
