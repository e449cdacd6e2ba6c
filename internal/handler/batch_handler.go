package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-batch-api/internal/dto"
	"github.com/noah-isme/course-batch-api/internal/middleware"
	"github.com/noah-isme/course-batch-api/internal/models"
	appErrors "github.com/noah-isme/course-batch-api/pkg/errors"
	"github.com/noah-isme/course-batch-api/pkg/response"
	"github.com/noah-isme/course-batch-api/pkg/scheduling"
)

type batchService interface {
	AttemptAssign(ctx context.Context, actor models.Actor, req dto.AssignBatchRequest) (*models.AssignmentResult, error)
	Approve(ctx context.Context, actor models.Actor, batchID, studentID string) (*models.Batch, error)
	Disapprove(ctx context.Context, actor models.Actor, batchID, studentID, reason string) (*models.Batch, error)
	MarkComplete(ctx context.Context, actor models.Actor, batchID, studentID string) (*models.Completion, error)
	ListWaiting(ctx context.Context, filter models.BatchFilter) ([]models.WaitingListItem, error)
	ListBatches(ctx context.Context, filter models.BatchFilter) ([]models.BatchSummary, error)
	ListVacant(ctx context.Context, filter models.BatchFilter) ([]models.BatchSummary, error)
	ListDelayed(ctx context.Context, asOf time.Time) ([]models.DelayedStudent, error)
}

// BatchHandler exposes batch assignment and waiting-list endpoints.
type BatchHandler struct {
	service batchService
}

// NewBatchHandler constructs BatchHandler.
func NewBatchHandler(service batchService) *BatchHandler {
	return &BatchHandler{service: service}
}

// Assign godoc
// @Summary Place a student into a batch
// @Description Seats the student when the batch has room, otherwise queues them for approval (202).
// @Tags Batches
// @Accept json
// @Produce json
// @Param payload body dto.AssignBatchRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /batches/assign [post]
func (h *BatchHandler) Assign(c *gin.Context) {
	var req dto.AssignBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid assignment payload"))
		return
	}
	result, err := h.service.AttemptAssign(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Outcome == models.OutcomeWaitlisted {
		status = http.StatusAccepted
	}
	response.JSON(c, status, result)
}

// Approve godoc
// @Summary Approve a waiting-list entry
// @Tags Batches
// @Produce json
// @Param id path string true "Batch ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /batches/{id}/waiting/{studentId}/approve [post]
func (h *BatchHandler) Approve(c *gin.Context) {
	batch, err := h.service.Approve(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, batch)
}

// Disapprove godoc
// @Summary Disapprove a waiting-list entry
// @Tags Batches
// @Accept json
// @Produce json
// @Param id path string true "Batch ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.WaitingDecisionRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/waiting/{studentId}/disapprove [post]
func (h *BatchHandler) Disapprove(c *gin.Context) {
	var req dto.WaitingDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	batch, err := h.service.Disapprove(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), c.Param("studentId"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, batch)
}

// Complete godoc
// @Summary Mark a student as having completed a batch
// @Tags Batches
// @Produce json
// @Param id path string true "Batch ID"
// @Param studentId path string true "Student ID"
// @Success 201 {object} response.Envelope
// @Router /batches/{id}/students/{studentId}/complete [post]
func (h *BatchHandler) Complete(c *gin.Context) {
	completion, err := h.service.MarkComplete(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, completion)
}

// WaitingList godoc
// @Summary List pending waiting-list entries, oldest first
// @Tags Batches
// @Produce json
// @Param course_id query string false "Course ID"
// @Param staff_id query string false "Staff ID"
// @Param frequency query string false "Frequency"
// @Success 200 {object} response.Envelope
// @Router /batches/waiting-list [get]
func (h *BatchHandler) WaitingList(c *gin.Context) {
	filter, err := bindBatchFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.ListWaiting(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, len(items))
}

// List godoc
// @Summary List batches with occupancy
// @Tags Batches
// @Produce json
// @Param course_id query string false "Course ID"
// @Param staff_id query string false "Staff ID"
// @Param frequency query string false "Frequency"
// @Success 200 {object} response.Envelope
// @Router /batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	filter, err := bindBatchFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	batches, err := h.service.ListBatches(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, batches, len(batches))
}

// Vacant godoc
// @Summary List batches with free seats
// @Tags Batches
// @Produce json
// @Param course_id query string false "Course ID"
// @Param staff_id query string false "Staff ID"
// @Param frequency query string false "Frequency"
// @Success 200 {object} response.Envelope
// @Router /batches/vacant [get]
func (h *BatchHandler) Vacant(c *gin.Context) {
	filter, err := bindBatchFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	batches, err := h.service.ListVacant(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, batches, len(batches))
}

// Delayed godoc
// @Summary List students still seated after their enrollment ended
// @Tags Batches
// @Produce json
// @Param as_of query string false "Reference date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /batches/delayed [get]
func (h *BatchHandler) Delayed(c *gin.Context) {
	var asOf time.Time
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := scheduling.ParseDate(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrInvalidInput, "as_of must be YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}
	delayed, err := h.service.ListDelayed(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, delayed, len(delayed))
}

func bindBatchFilter(c *gin.Context) (models.BatchFilter, error) {
	var query dto.BatchListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return models.BatchFilter{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter")
	}
	frequency, err := parseFrequencyQuery(query.Frequency)
	if err != nil {
		return models.BatchFilter{}, err
	}
	return models.BatchFilter{CourseID: query.CourseID, StaffID: query.StaffID, Frequency: frequency}, nil
}
