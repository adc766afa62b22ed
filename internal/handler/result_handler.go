package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/middleware"
	"github.com/stemsi/exam-portal/internal/model"
	"github.com/stemsi/exam-portal/internal/response"
	"github.com/stemsi/exam-portal/internal/service"
	"github.com/stemsi/exam-portal/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ResultHandler serves the admin results dashboard.
type ResultHandler struct {
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		log:           log.With().Str("component", "result_handler").Logger(),
	}
}

// ListResults godoc
// GET /api/v1/admin/results?search=&page=&per_page=
// Lists results newest first.
func (h *ResultHandler) ListResults(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	results, pagination, err := h.resultService.List(c.Request.Context(), c.Query("search"), page, perPage)
	if err != nil {
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("List results failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// GetResult godoc
// GET /api/v1/admin/results/:id
// Returns one result with its answers laid out per section.
func (h *ResultHandler) GetResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	review, err := h.resultService.Review(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrDataUnavailable):
			response.Fail(c, http.StatusServiceUnavailable, response.ErrDataUnavailable)
		default:
			h.log.Error().Err(err).Str("result_id", id.String()).Msg("Review result failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, review)
}

// DeleteResult godoc
// DELETE /api/v1/admin/results/:id
// Deletes a result after the admin retypes their own email.
func (h *ResultHandler) DeleteResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.DeleteResultRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.resultService.Delete(c.Request.Context(), id, req.ConfirmEmail, claims.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrConfirmationMismatch):
			response.Fail(c, http.StatusBadRequest, response.ErrConfirmationMismatch)
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			h.log.Error().Err(err).Str("result_id", id.String()).Msg("Delete result failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ExportResults godoc
// GET /api/v1/admin/results/export?search=
// Downloads the matching results as an xlsx workbook.
func (h *ResultHandler) ExportResults(c *gin.Context) {
	data, err := h.resultService.ExportXLSX(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Export results failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	filename := fmt.Sprintf("exam-results-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	response.Attachment(c, filename, xlsxContentType, data)
}
