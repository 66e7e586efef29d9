package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/service"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

// SummaryHandler exposes the per-student subject grade summaries, degrading
// to fallback data when the pipeline cannot run.
type SummaryHandler struct {
	summaries *service.SummaryService
	fallback  *service.FallbackProvider
	logger    *zap.Logger
}

// NewSummaryHandler constructs handler. A nil fallback disables degraded
// mode; errors then surface as-is.
func NewSummaryHandler(summaries *service.SummaryService, fallback *service.FallbackProvider, logger *zap.Logger) *SummaryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryHandler{summaries: summaries, fallback: fallback, logger: logger}
}

// StudentSummaries godoc
// @Summary Per-subject grade summaries for one student
// @Tags Summaries
// @Produce json
// @Param id path string true "Student id"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/summaries [get]
func (h *SummaryHandler) StudentSummaries(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	studentID := c.Param("id")
	if err := h.summaries.AuthorizeStudentAccess(c.Request.Context(), actor, studentID); err != nil {
		response.Error(c, err)
		return
	}

	summaries, dropped, err := h.summaries.StudentGradeSummaries(c.Request.Context(), studentID)
	if err != nil {
		if h.fallback != nil && (appErrors.HasCode(err, appErrors.ErrBackendUnavailable) || appErrors.HasCode(err, appErrors.ErrNoData)) {
			h.logger.Warn("serving fallback summaries",
				zap.String("student_id", studentID),
				zap.Error(err))
			response.Degraded(c, h.fallback.StudentGradeSummaries(studentID))
			return
		}
		if appErrors.HasCode(err, appErrors.ErrPartial) {
			response.Partial(c, summaries, dropped)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}
