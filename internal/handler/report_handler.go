package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-batch-api/internal/dto"
	"github.com/noah-isme/course-batch-api/internal/models"
	"github.com/noah-isme/course-batch-api/internal/service"
	appErrors "github.com/noah-isme/course-batch-api/pkg/errors"
	"github.com/noah-isme/course-batch-api/pkg/response"
)

type reportService interface {
	StaffCompletions(ctx context.Context, query dto.CompletionReportQuery) ([]models.StaffCompletionRow, error)
	RenderStaffCompletions(ctx context.Context, query dto.CompletionReportQuery) (*service.ReportFile, error)
}

// ReportHandler serves the staff completion report.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// StaffCompletions godoc
// @Summary Monthly completions per staff member
// @Tags Reports
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param staff_id query string false "Staff ID"
// @Param from query string false "First month (YYYY-MM)"
// @Param to query string false "Last month (YYYY-MM)"
// @Param format query string false "json, csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /reports/staff-completions [get]
func (h *ReportHandler) StaffCompletions(c *gin.Context) {
	var query dto.CompletionReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report query"))
		return
	}
	query.Format = strings.ToLower(strings.TrimSpace(query.Format))

	if query.Format == "" || query.Format == service.ReportFormatJSON {
		rows, err := h.service.StaffCompletions(c.Request.Context(), query)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.List(c, rows, len(rows))
		return
	}

	file, err := h.service.RenderStaffCompletions(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
