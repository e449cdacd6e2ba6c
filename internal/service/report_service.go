package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-batch-api/internal/dto"
	"github.com/noah-isme/course-batch-api/internal/models"
	appErrors "github.com/noah-isme/course-batch-api/pkg/errors"
	"github.com/noah-isme/course-batch-api/pkg/export"
)

// Report formats.
const (
	ReportFormatJSON = "json"
	ReportFormatCSV  = "csv"
	ReportFormatPDF  = "pdf"
)

type completionReader interface {
	MonthlyByStaff(ctx context.Context, filter models.CompletionFilter) ([]models.StaffCompletionRow, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// ReportFile is a rendered report ready to be streamed.
type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService builds the monthly staff completion report.
type ReportService struct {
	completions completionReader
	renderers   map[string]datasetRenderer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReportService constructs ReportService with CSV and PDF renderers.
func NewReportService(completions completionReader, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		completions: completions,
		renderers: map[string]datasetRenderer{
			ReportFormatCSV: export.NewCSVExporter(),
			ReportFormatPDF: export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
	}
}

// StaffCompletions returns completion counts per staff member and month.
func (s *ReportService) StaffCompletions(ctx context.Context, query dto.CompletionReportQuery) ([]models.StaffCompletionRow, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if query.From != "" && query.To != "" && query.From > query.To {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	rows, err := s.completions.MonthlyByStaff(ctx, models.CompletionFilter{StaffID: query.StaffID, FromMonth: query.From, ToMonth: query.To})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completions")
	}
	return rows, nil
}

// RenderStaffCompletions renders the report as CSV or PDF.
func (s *ReportService) RenderStaffCompletions(ctx context.Context, query dto.CompletionReportQuery) (*ReportFile, error) {
	format := strings.ToLower(query.Format)
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	rows, err := s.StaffCompletions(ctx, query)
	if err != nil {
		return nil, err
	}

	data, err := renderer.Render(completionDataset(rows))
	if err != nil {
		s.logger.Error("render completion report", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return &ReportFile{
		Filename:    fmt.Sprintf("staff-completions%s.%s", reportSuffix(query), format),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func completionDataset(rows []models.StaffCompletionRow) export.Dataset {
	data := export.Dataset{
		Title: "Staff completions",
		Columns: []export.Column{
			{Key: "month", Title: "Month"},
			{Key: "staff_id", Title: "Staff ID"},
			{Key: "staff_name", Title: "Staff"},
			{Key: "completed", Title: "Completed"},
		},
		Rows: make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"month":      row.Month,
			"staff_id":   row.StaffID,
			"staff_name": row.StaffName,
			"completed":  strconv.Itoa(row.Completed),
		})
	}
	return data
}

func reportSuffix(query dto.CompletionReportQuery) string {
	var parts []string
	if query.From != "" {
		parts = append(parts, query.From)
	}
	if query.To != "" {
		parts = append(parts, query.To)
	}
	if len(parts) == 0 {
		return ""
	}
	return "-" + strings.Join(parts, "_")
}
