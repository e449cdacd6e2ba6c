package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-batch-api/internal/dto"
	"github.com/noah-isme/course-batch-api/internal/models"
	appErrors "github.com/noah-isme/course-batch-api/pkg/errors"
	"github.com/noah-isme/course-batch-api/pkg/response"
	"github.com/noah-isme/course-batch-api/pkg/scheduling"
)

type schedulingService interface {
	EndDate(ctx context.Context, req dto.EndDateRequest) (*dto.EndDateResponse, error)
	RecomputeEnrollmentEndDate(ctx context.Context, enrollmentID string) (*models.Enrollment, error)
	OfferableSlotsResponse(ctx context.Context, staffID string, sessionLengthHours float64, frequency scheduling.Frequency) (*dto.OfferableSlotsResponse, error)
	FrequencyOptions(ctx context.Context, staffID string) ([]dto.FrequencyOption, error)
	SessionLengthOptions(ctx context.Context, staffID string) ([]int, error)
}

// SchedulingHandler exposes end date and slot endpoints.
type SchedulingHandler struct {
	service schedulingService
}

// NewSchedulingHandler constructs SchedulingHandler.
func NewSchedulingHandler(service schedulingService) *SchedulingHandler {
	return &SchedulingHandler{service: service}
}

// EndDate godoc
// @Summary Project the end date of a schedule
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.EndDateRequest true "Schedule"
// @Success 200 {object} response.Envelope
// @Router /scheduling/end-date [post]
func (h *SchedulingHandler) EndDate(c *gin.Context) {
	var req dto.EndDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid end date payload"))
		return
	}
	resp, err := h.service.EndDate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// RecomputeEnrollment godoc
// @Summary Recompute and store an enrollment's end date
// @Tags Scheduling
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/end-date [post]
func (h *SchedulingHandler) RecomputeEnrollment(c *gin.Context) {
	enrollment, err := h.service.RecomputeEnrollmentEndDate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, enrollment)
}

// Slots godoc
// @Summary List offerable slots of a staff member
// @Tags Scheduling
// @Produce json
// @Param id path string true "Staff ID"
// @Param session_length query number true "Session length in hours"
// @Param frequency query string false "Frequency"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /staff/{id}/slots [get]
func (h *SchedulingHandler) Slots(c *gin.Context) {
	hours, err := strconv.ParseFloat(strings.TrimSpace(c.Query("session_length")), 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidInput, "session_length must be a number of hours"))
		return
	}
	frequency, err := parseFrequencyQuery(c.Query("frequency"))
	if err != nil {
		response.Error(c, err)
		return
	}
	resp, err := h.service.OfferableSlotsResponse(c.Request.Context(), c.Param("id"), hours, frequency)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// Frequencies godoc
// @Summary List frequencies a staff member offers
// @Tags Scheduling
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staff/{id}/frequencies [get]
func (h *SchedulingHandler) Frequencies(c *gin.Context) {
	options, err := h.service.FrequencyOptions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, options, len(options))
}

// SessionLengths godoc
// @Summary List session lengths a staff member offers
// @Tags Scheduling
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staff/{id}/session-lengths [get]
func (h *SchedulingHandler) SessionLengths(c *gin.Context) {
	options, err := h.service.SessionLengthOptions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, options, len(options))
}

func parseFrequencyQuery(raw string) (scheduling.Frequency, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	frequency, ok := scheduling.ParseFrequency(raw)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrInvalidInput, "unknown frequency")
	}
	return frequency, nil
}
