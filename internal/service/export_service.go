package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/export"
)

type timetableSource interface {
	ListAll(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, error)
}

type csvRenderer interface {
	Render(table *export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(table *export.Table, title string) ([]byte, error)
}

// ExportResult is a rendered file ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders class session listings as downloadable files.
type ExportService struct {
	sessions timetableSource
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(sessions timetableSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVRenderer(true)
	}
	if pdf == nil {
		pdf = export.NewPDFRenderer()
	}
	return &ExportService{sessions: sessions, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

var (
	timetableColumns = []string{"Term", "Day", "Start", "End", "Course", "Teacher", "Room"}
	timetableWidths  = []float64{1.2, 1.2, 0.7, 0.7, 2.4, 2, 0.8}
)

// Timetable renders every session matching filter in the requested format.
func (s *ExportService) Timetable(ctx context.Context, filter models.ClassSessionFilter, rawFormat string) (*ExportResult, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Validation(err, "format must be csv or pdf")
	}

	sessions, err := s.sessions.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class sessions")
	}

	table := export.NewTable(timetableColumns...)
	table.Widths = timetableWidths
	for _, session := range sessions {
		teacher := ""
		if session.TeacherName != nil {
			teacher = *session.TeacherName
		}
		if err := table.AddRow(string(session.Term), string(session.DayOfWeek), session.StartTime.String(),
			session.EndTime.String(), session.CourseName, teacher, session.RoomID); err != nil {
			return nil, appErrors.Internal(err, "failed to build timetable export")
		}
	}

	var payload []byte
	switch format {
	case export.FormatPDF:
		title := "Class Timetable"
		if filter.Term != "" {
			title = fmt.Sprintf("Class Timetable - %s", filter.Term)
		}
		payload, err = s.pdf.Render(table, title)
	default:
		payload, err = s.csv.Render(table)
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render timetable export")
	}

	s.logger.Info("timetable exported", zap.String("format", string(format)), zap.Int("rows", len(sessions)))
	filename := format.Filename(fmt.Sprintf("timetable-%s", s.now().UTC().Format("20060102")))
	return &ExportResult{Filename: filename, ContentType: format.ContentType(), Payload: payload}, nil
}
