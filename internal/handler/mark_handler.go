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

type markService interface {
	List(ctx context.Context, principal models.Principal, filter models.MarkFilter) ([]models.MarkDetail, *models.Pagination, error)
	Get(ctx context.Context, principal models.Principal, id string) (*models.MarkDetail, error)
	Create(ctx context.Context, principal models.Principal, req service.MarkRequest) (*models.Mark, error)
	Update(ctx context.Context, principal models.Principal, id string, req service.MarkRequest) (*models.Mark, error)
	Delete(ctx context.Context, principal models.Principal, id string) error
	Options(ctx context.Context, principal models.Principal) (*service.MarkOptions, error)
}

type gradeReporter interface {
	ForStudent(ctx context.Context, principal models.Principal) (*models.GradeReport, error)
}

// MarkHandler exposes mark endpoints and the student grade report.
type MarkHandler struct {
	marks  markService
	grades gradeReporter
}

// NewMarkHandler constructs MarkHandler.
func NewMarkHandler(marks markService, grades gradeReporter) *MarkHandler {
	return &MarkHandler{marks: marks, grades: grades}
}

// List godoc
// @Summary List marks
// @Description Teachers only see marks of courses assigned to them.
// @Tags Marks
// @Produce json
// @Param studentId query string false "Student"
// @Param courseId query string false "Course"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /marks [get]
func (h *MarkHandler) List(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	filter := models.MarkFilter{
		StudentID: strings.TrimSpace(c.Query("studentId")),
		CourseID:  strings.TrimSpace(c.Query("courseId")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	marks, pagination, err := h.marks.List(c.Request.Context(), principal, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, pagination)
}

// Options godoc
// @Summary Mark form options
// @Tags Marks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /marks/options [get]
func (h *MarkHandler) Options(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	options, err := h.marks.Options(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// Get godoc
// @Summary Get mark
// @Tags Marks
// @Produce json
// @Param id path string true "Mark ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /marks/{id} [get]
func (h *MarkHandler) Get(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	mark, err := h.marks.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mark, nil)
}

// Create godoc
// @Summary Record mark
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.MarkRequest true "Mark payload"
// @Success 201 {object} response.Envelope
// @Router /marks [post]
func (h *MarkHandler) Create(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req service.MarkRequest
	if !bindJSON(c, &req, "invalid mark payload") {
		return
	}
	mark, err := h.marks.Create(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mark)
}

// Update godoc
// @Summary Update mark
// @Tags Marks
// @Accept json
// @Produce json
// @Param id path string true "Mark ID"
// @Param payload body service.MarkRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Router /marks/{id} [put]
func (h *MarkHandler) Update(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req service.MarkRequest
	if !bindJSON(c, &req, "invalid mark payload") {
		return
	}
	mark, err := h.marks.Update(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mark, nil)
}

// Delete godoc
// @Summary Delete mark
// @Tags Marks
// @Param id path string true "Mark ID"
// @Success 204
// @Router /marks/{id} [delete]
func (h *MarkHandler) Delete(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	if err := h.marks.Delete(c.Request.Context(), principal, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MyGrades godoc
// @Summary Student grade report
// @Description Letter grades per course and the credit weighted GPA.
// @Tags Marks
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /me/grades [get]
func (h *MarkHandler) MyGrades(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	report, err := h.grades.ForStudent(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
