package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/export"
)

type timetableSourceStub struct {
	sessions []models.ClassSessionDetail
	err      error
	filter   models.ClassSessionFilter
}

func (s *timetableSourceStub) ListAll(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, error) {
	s.filter = filter
	return s.sessions, s.err
}

func exportFixture() []models.ClassSessionDetail {
	teacher := "Ada"
	return []models.ClassSessionDetail{
		{
			ClassSession: models.ClassSession{ID: "s1", CourseID: "C1", RoomID: "R101", DayOfWeek: models.Monday, StartTime: models.MustClock("09:00"), EndTime: models.MustClock("10:00"), Term: models.FirstTerm},
			CourseName:   "Algebra",
			TeacherName:  &teacher,
		},
		{
			ClassSession: models.ClassSession{ID: "s2", CourseID: "C2", RoomID: "R102", DayOfWeek: models.Tuesday, StartTime: models.MustClock("13:00"), EndTime: models.MustClock("14:30"), Term: models.FirstTerm},
			CourseName:   "Biology",
		},
	}
}

func newExportServiceForTest(source *timetableSourceStub) *ExportService {
	svc := NewExportService(source, zap.NewNop(), export.NewCSVRenderer(false), export.NewPDFRenderer())
	svc.now = func() time.Time { return time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceTimetableCSV(t *testing.T) {
	source := &timetableSourceStub{sessions: exportFixture()}
	svc := newExportServiceForTest(source)

	result, err := svc.Timetable(context.Background(), models.ClassSessionFilter{Term: models.FirstTerm}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "timetable-20240902.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, models.FirstTerm, source.filter.Term)

	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Term,Day,Start,End,Course,Teacher,Room", lines[0])
	assert.Equal(t, "First Term,Monday,09:00,10:00,Algebra,Ada,R101", lines[1])
	assert.Equal(t, "First Term,Tuesday,13:00,14:30,Biology,,R102", lines[2])
}

func TestExportServiceTimetablePDF(t *testing.T) {
	svc := newExportServiceForTest(&timetableSourceStub{sessions: exportFixture()})

	result, err := svc.Timetable(context.Background(), models.ClassSessionFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Payload, []byte("%PDF")))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportServiceForTest(&timetableSourceStub{})

	_, err := svc.Timetable(context.Background(), models.ClassSessionFilter{}, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceStorageFailure(t *testing.T) {
	svc := newExportServiceForTest(&timetableSourceStub{err: errors.New("db down")})

	_, err := svc.Timetable(context.Background(), models.ClassSessionFilter{}, "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
