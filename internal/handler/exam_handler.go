package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/middleware"
	"github.com/stemsi/exam-portal/internal/response"
	"github.com/stemsi/exam-portal/internal/service"
)

// ExamHandler serves the candidate's read-only exam endpoints.
type ExamHandler struct {
	questionService *service.QuestionService
	examService     *service.ExamService
	log             zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(questionService *service.QuestionService, examService *service.ExamService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		questionService: questionService,
		examService:     examService,
		log:             log.With().Str("component", "exam_handler").Logger(),
	}
}

// GetPaper godoc
// GET /api/v1/candidate/exam/paper
// Returns the grouped question set without answer keys.
func (h *ExamHandler) GetPaper(c *gin.Context) {
	sections, err := h.questionService.Paper(c.Request.Context())
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

// GetState godoc
// GET /api/v1/candidate/exam/state
// Returns the autosaved answers, flags and remaining time of the session.
func (h *ExamHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	progress, err := h.examService.Progress(c.Request.Context(), claims.SessionID)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", claims.SessionID).Msg("Read progress failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrDataUnavailable)
		return
	}
	if !progress.Identity.Complete() {
		response.Fail(c, http.StatusNotFound, response.ErrNoIdentity)
		return
	}

	response.Success(c, http.StatusOK, progress)
}
