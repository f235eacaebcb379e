package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type fakeScheduleSrv struct {
	checkResult  *models.ConflictResult
	createErr    error
	lastFilter   models.ClassSessionFilter
	lastFormat   string
	lastUpdateID string
	timetable    []models.ClassSessionDetail
	principal    models.Principal
	rawTerm      string
}

func (f *fakeScheduleSrv) Check(ctx context.Context, req service.CheckConflictRequest) (*models.ConflictResult, error) {
	return f.checkResult, nil
}

func (f *fakeScheduleSrv) Create(ctx context.Context, req service.SaveClassSessionRequest) (*models.ClassSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.ClassSession{ID: "cs-1", CourseID: req.CourseID, RoomID: req.RoomID}, nil
}

func (f *fakeScheduleSrv) Update(ctx context.Context, id string, req service.SaveClassSessionRequest) (*models.ClassSession, error) {
	f.lastUpdateID = id
	return &models.ClassSession{ID: id, CourseID: req.CourseID, RoomID: req.RoomID}, nil
}

func (f *fakeScheduleSrv) Get(ctx context.Context, id string) (*models.ClassSessionDetail, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
}

func (f *fakeScheduleSrv) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeScheduleSrv) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.ClassSessionDetail{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (f *fakeScheduleSrv) Timetable(ctx context.Context, principal models.Principal, rawTerm string) ([]models.ClassSessionDetail, models.Term, error) {
	f.principal = principal
	f.rawTerm = rawTerm
	return f.timetable, models.FirstTerm, nil
}

func (f *fakeScheduleSrv) Options(ctx context.Context) (*service.ScheduleOptions, error) {
	return &service.ScheduleOptions{Days: models.Days, Terms: models.Terms}, nil
}

func (f *fakeScheduleSrv) Export(ctx context.Context, filter models.ClassSessionFilter, format string) (*service.ExportResult, error) {
	f.lastFilter = filter
	f.lastFormat = format
	return &service.ExportResult{Filename: "timetable.csv", ContentType: "text/csv", Payload: []byte("id\n")}, nil
}

func roomConflictError() error {
	domainErr := &models.ScheduleConflictError{
		Type:    models.ConflictRoom,
		Message: "room R101 is already booked",
		Conflict: models.ScheduleConflict{
			SessionID: "cs-9",
			RoomID:    "R101",
			DayOfWeek: models.Monday,
			StartTime: models.MustClock("09:00"),
			EndTime:   models.MustClock("10:30"),
			Term:      models.FirstTerm,
			Dimension: models.ConflictRoom,
		},
	}
	appErr := appErrors.Wrap(domainErr, appErrors.ErrRoomConflict.Code, appErrors.ErrRoomConflict.Status, "schedule conflict: room R101 is already booked")
	appErr.Details = domainErr
	return appErr
}

func TestScheduleHandlerCreateConflictReturns409WithDetails(t *testing.T) {
	handler := NewScheduleHandler(&fakeScheduleSrv{createErr: roomConflictError()})
	c, rec := newTestContext(http.MethodPost, "/schedules", map[string]string{
		"course_id": "C1", "room_id": "R101", "day_of_week": "Monday",
		"start_time": "10:00", "end_time": "11:00", "term": "First Term",
	}, nil)

	handler.Create(c)

	assertStatus(t, rec, http.StatusConflict)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "ROOM_CONFLICT", envelope.Error.Code)

	var details models.ScheduleConflictError
	require.NoError(t, json.Unmarshal(envelope.Error.Details, &details))
	assert.Equal(t, "cs-9", details.Conflict.SessionID)
	assert.Equal(t, models.ConflictRoom, details.Conflict.Dimension)
	assert.Equal(t, "09:00", details.Conflict.StartTime.String())
}

func TestScheduleHandlerCreateSuccess(t *testing.T) {
	handler := NewScheduleHandler(&fakeScheduleSrv{})
	c, rec := newTestContext(http.MethodPost, "/schedules", map[string]string{"course_id": "C1", "room_id": "R101"}, nil)

	handler.Create(c)

	assertStatus(t, rec, http.StatusCreated)
	assert.Contains(t, rec.Body.String(), `"cs-1"`)
}

func TestScheduleHandlerRejectsMalformedJSON(t *testing.T) {
	handler := NewScheduleHandler(&fakeScheduleSrv{})
	c, rec := newTestContext(http.MethodPost, "/schedules/check", "{", nil)

	handler.Check(c)

	assertStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestScheduleHandlerCheckReportsConflictFlag(t *testing.T) {
	handler := NewScheduleHandler(&fakeScheduleSrv{checkResult: &models.ConflictResult{Kind: models.ConflictTeacher, SessionID: "cs-2"}})
	c, rec := newTestContext(http.MethodPost, "/schedules/check", map[string]string{"room_id": "R1"}, nil)

	handler.Check(c)

	assertStatus(t, rec, http.StatusOK)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["conflict"])
	assert.Contains(t, string(envelope.Data), `"TEACHER"`)
}

func TestScheduleHandlerUpdatePassesPathID(t *testing.T) {
	fake := &fakeScheduleSrv{}
	handler := NewScheduleHandler(fake)
	c, rec := newTestContext(http.MethodPut, "/schedules/cs-3", map[string]string{"course_id": "C1"}, nil)
	c.Params = gin.Params{{Key: "id", Value: "cs-3"}}

	handler.Update(c)

	assertStatus(t, rec, http.StatusOK)
	assert.Equal(t, "cs-3", fake.lastUpdateID)
}

func TestScheduleHandlerListParsesFilter(t *testing.T) {
	fake := &fakeScheduleSrv{}
	handler := NewScheduleHandler(fake)
	c, rec := newTestContext(http.MethodGet, "/schedules?term=Second%20Term&day=Friday&roomId=R1&page=2&limit=5", nil, nil)

	handler.List(c)

	assertStatus(t, rec, http.StatusOK)
	assert.Equal(t, models.Term("Second Term"), fake.lastFilter.Term)
	assert.Equal(t, models.DayOfWeek("Friday"), fake.lastFilter.DayOfWeek)
	assert.Equal(t, "R1", fake.lastFilter.RoomID)
	assert.Equal(t, 2, fake.lastFilter.Page)
	assert.Equal(t, 5, fake.lastFilter.PageSize)
}

func TestScheduleHandlerExportStreamsAttachment(t *testing.T) {
	fake := &fakeScheduleSrv{}
	handler := NewScheduleHandler(fake)
	c, rec := newTestContext(http.MethodGet, "/schedules/export", nil, nil)

	handler.Export(c)

	assertStatus(t, rec, http.StatusOK)
	assert.Equal(t, "csv", fake.lastFormat)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "timetable.csv")
}

func TestScheduleHandlerMySchedule(t *testing.T) {
	fake := &fakeScheduleSrv{}
	handler := NewScheduleHandler(fake)

	c, rec := newTestContext(http.MethodGet, "/me/schedule", nil, nil)
	handler.MySchedule(c)
	assertStatus(t, rec, http.StatusUnauthorized)

	claims := &models.JWTClaims{UserID: 4, Role: models.RoleTeacher, EntityID: "T001"}
	c, rec = newTestContext(http.MethodGet, "/me/schedule?term=First%20Term", nil, claims)
	handler.MySchedule(c)
	assertStatus(t, rec, http.StatusOK)
	assert.Equal(t, "T001", fake.principal.EntityID)
	assert.Equal(t, "First Term", fake.rawTerm)
	envelope := decodeEnvelope(t, rec)
	assert.JSONEq(t, `[]`, string(envelope.Data))
	assert.Equal(t, "First Term", envelope.Meta["term"])
}
