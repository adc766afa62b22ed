package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/response"
	"github.com/stemsi/exam-portal/internal/service"
)

// QuestionHandler exposes the question set to administrators.
type QuestionHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		log:             log.With().Str("component", "question_handler").Logger(),
	}
}

// ListQuestions godoc
// GET /api/v1/admin/questions
// Lists every question grouped by section, answer keys included.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	sections, err := h.questionService.Sections(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrDataUnavailable) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrDataUnavailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sections": sections})
}

// RefreshCache godoc
// POST /api/v1/admin/questions/cache/refresh
// Reloads the cached question set after the bank was edited in the database.
func (h *QuestionHandler) RefreshCache(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.questionService.InvalidateCache(ctx); err != nil {
		h.log.Error().Err(err).Msg("Invalidate question cache failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if err := h.questionService.PrewarmCache(ctx); err != nil {
		h.log.Error().Err(err).Msg("Prewarm question cache failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrDataUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
