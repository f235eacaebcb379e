package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type scheduleService interface {
	Check(ctx context.Context, req service.CheckConflictRequest) (*models.ConflictResult, error)
	Create(ctx context.Context, req service.SaveClassSessionRequest) (*models.ClassSession, error)
	Update(ctx context.Context, id string, req service.SaveClassSessionRequest) (*models.ClassSession, error)
	Get(ctx context.Context, id string) (*models.ClassSessionDetail, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, *models.Pagination, error)
	Timetable(ctx context.Context, principal models.Principal, rawTerm string) ([]models.ClassSessionDetail, models.Term, error)
	Options(ctx context.Context) (*service.ScheduleOptions, error)
	Export(ctx context.Context, filter models.ClassSessionFilter, format string) (*service.ExportResult, error)
}

// ScheduleHandler exposes class session booking endpoints.
type ScheduleHandler struct {
	schedules scheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules scheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

func sessionFilter(c *gin.Context) models.ClassSessionFilter {
	filter := models.ClassSessionFilter{
		Term:      models.Term(strings.TrimSpace(c.Query("term"))),
		DayOfWeek: models.DayOfWeek(strings.TrimSpace(c.Query("day"))),
		RoomID:    strings.TrimSpace(c.Query("roomId")),
		TeacherID: strings.TrimSpace(c.Query("teacherId")),
		CourseID:  strings.TrimSpace(c.Query("courseId")),
	}
	filter.Page, filter.PageSize = pageParams(c)
	return filter
}

// List godoc
// @Summary List class sessions
// @Description Ordered by term descending, then weekday and start time.
// @Tags Schedules
// @Produce json
// @Param term query string false "Term"
// @Param day query string false "Day of week"
// @Param roomId query string false "Room"
// @Param teacherId query string false "Teacher"
// @Param courseId query string false "Course"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	sessions, pagination, err := h.schedules.List(c.Request.Context(), sessionFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Check godoc
// @Summary Check a booking for conflicts
// @Description Reports the first room or teacher clash without saving anything.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.CheckConflictRequest true "Candidate session"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/check [post]
func (h *ScheduleHandler) Check(c *gin.Context) {
	var req service.CheckConflictRequest
	if !bindJSON(c, &req, "invalid conflict check payload") {
		return
	}
	result, err := h.schedules.Check(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"conflict": result.HasConflict()})
}

// Create godoc
// @Summary Book a class session
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.SaveClassSessionRequest true "Class session"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.SaveClassSessionRequest
	if !bindJSON(c, &req, "invalid class session payload") {
		return
	}
	session, err := h.schedules.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Get godoc
// @Summary Get class session
// @Tags Schedules
// @Produce json
// @Param id path string true "Class session ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	session, err := h.schedules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Update godoc
// @Summary Move or edit a class session
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Class session ID"
// @Param payload body service.SaveClassSessionRequest true "Class session"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req service.SaveClassSessionRequest
	if !bindJSON(c, &req, "invalid class session payload") {
		return
	}
	session, err := h.schedules.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Delete class session
// @Tags Schedules
// @Param id path string true "Class session ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.schedules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Options godoc
// @Summary Booking form options
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules/options [get]
func (h *ScheduleHandler) Options(c *gin.Context) {
	options, err := h.schedules.Options(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// Export godoc
// @Summary Export class sessions
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param term query string false "Term"
// @Success 200 {file} file
// @Router /schedules/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	result, err := h.schedules.Export(c.Request.Context(), sessionFilter(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Payload)
}

// MySchedule godoc
// @Summary Caller's weekly timetable
// @Description Teachers get the sessions they teach, students the sessions of their marked courses. Term defaults to First Term.
// @Tags Schedules
// @Produce json
// @Param term query string false "Term"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /me/schedule [get]
func (h *ScheduleHandler) MySchedule(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	sessions, term, err := h.schedules.Timetable(c.Request.Context(), principal, c.Query("term"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if sessions == nil {
		sessions = []models.ClassSessionDetail{}
	}
	response.JSON(c, http.StatusOK, sessions, nil, map[string]interface{}{"term": term})
}
