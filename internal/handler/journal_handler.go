package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/service"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/export"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

// JournalHandler exposes journal loading, score entry and export.
type JournalHandler struct {
	session   *service.JournalSession
	journal   *service.JournalService
	summaries *service.SummaryService
}

// NewJournalHandler constructs handler.
func NewJournalHandler(session *service.JournalSession, journal *service.JournalService, summaries *service.SummaryService) *JournalHandler {
	return &JournalHandler{session: session, journal: journal, summaries: summaries}
}

// Journal godoc
// @Summary Load the student x lesson journal for one class+subject+quarter
// @Tags Journal
// @Produce json
// @Param id path string true "Class section id"
// @Param sid path string true "Subject id"
// @Param quarterId query string true "Quarter id"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/subjects/{sid}/journal [get]
func (h *JournalHandler) Journal(c *gin.Context) {
	key := service.JournalKey{
		ClassID:   c.Param("id"),
		SubjectID: c.Param("sid"),
		QuarterID: c.Query("quarterId"),
	}
	table, cached, err := h.session.LoadJournal(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, table, nil, map[string]interface{}{"cached": cached})
}

// Quarters godoc
// @Summary List the global grading quarters
// @Tags Journal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /quarters [get]
func (h *JournalHandler) Quarters(c *gin.Context) {
	quarters, err := h.journal.Quarters(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quarters, nil)
}

// WriteScore godoc
// @Summary Upsert one score cell
// @Tags Journal
// @Accept json
// @Produce json
// @Param payload body service.WriteScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Router /scores [post]
func (h *JournalHandler) WriteScore(c *gin.Context) {
	var req service.WriteScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.session.WriteScore(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	// The student's cached summary is stale now.
	h.summaries.InvalidateStudent(c.Request.Context(), req.StudentID)
	response.JSON(c, http.StatusOK, record, nil)
}

// Export godoc
// @Summary Export the journal table as CSV or PDF
// @Tags Journal
// @Produce octet-stream
// @Param id path string true "Class section id"
// @Param sid path string true "Subject id"
// @Param quarterId query string true "Quarter id"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /classes/{id}/subjects/{sid}/journal/export [get]
func (h *JournalHandler) Export(c *gin.Context) {
	table, err := h.journal.BuildJournal(c.Request.Context(), c.Param("id"), c.Param("sid"), c.Query("quarterId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	headers := make([]string, 0, len(table.Lessons)+1)
	headers = append(headers, "Student")
	for _, lesson := range table.Lessons {
		headers = append(headers, lesson.Name)
	}

	cell := make(map[[2]string]string, len(table.Scores))
	for _, record := range table.Scores {
		if record.Score == nil {
			continue
		}
		cell[[2]string{record.StudentID, record.LessonID}] = strconv.FormatFloat(*record.Score, 'f', -1, 64)
	}
	rows := make([][]string, 0, len(table.Students))
	for _, student := range table.Students {
		row := make([]string, 0, len(headers))
		row = append(row, student.FullName)
		for _, lesson := range table.Lessons {
			row = append(row, cell[[2]string{student.ID, lesson.ID}])
		}
		rows = append(rows, row)
	}

	sheet := export.Table{
		Title:   fmt.Sprintf("Journal %s / %s", table.ClassID, table.SubjectID),
		Headers: headers,
		Rows:    rows,
	}

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := export.CSV(sheet)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed"))
			return
		}
		c.Header("Content-Disposition", `attachment; filename="journal.csv"`)
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := export.PDF(sheet)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed"))
			return
		}
		c.Header("Content-Disposition", `attachment; filename="journal.pdf"`)
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
