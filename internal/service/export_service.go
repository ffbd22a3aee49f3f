package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tutorhive/availability-api/internal/models"
	appErrors "github.com/tutorhive/availability-api/pkg/errors"
	"github.com/tutorhive/availability-api/pkg/export"
)

// Export formats accepted by the schedule export endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var errExportDisabled = appErrors.New("EXPORT_DISABLED", http.StatusForbidden, "schedule export is disabled")

type calendarProvider interface {
	GetCalendar(ctx context.Context, filter models.CalendarFilter) (*CalendarResponse, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered schedule ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders expanded calendar windows as downloadable files.
type ExportService struct {
	calendar calendarProvider
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	enabled  bool
}

// NewExportService constructs an ExportService.
func NewExportService(calendar calendarProvider, enabled bool, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{calendar: calendar, csv: csv, pdf: pdf, logger: logger, enabled: enabled}
}

// ExportCalendar expands the window and renders it in the requested format.
func (s *ExportService) ExportCalendar(ctx context.Context, filter models.CalendarFilter, format string) (*ExportFile, error) {
	if !s.enabled {
		return nil, errExportDisabled
	}
	format = strings.ToLower(strings.TrimSpace(format))

	resp, err := s.calendar.GetCalendar(ctx, filter)
	if err != nil {
		return nil, err
	}
	dataset := buildCalendarDataset(resp)
	title := fmt.Sprintf("Availability for %s (%s to %s)", resp.TutorID, resp.From, resp.To)

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedExportFmt, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("availability_%s_%s_%s_%s.%s",
		resp.TutorID, resp.From, resp.To, time.Now().UTC().Format("20060102_150405"), format)

	s.logger.Info("calendar exported",
		zap.String("tutor_id", resp.TutorID),
		zap.String("format", format),
		zap.Int("slots", len(resp.Slots)))

	return &ExportFile{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func buildCalendarDataset(resp *CalendarResponse) export.Dataset {
	headers := []string{"Date", "Weekday", "Start (UTC)", "End (UTC)", "Local Start", "Local End", "Timezone", "Course", "Kind"}
	rows := make([]map[string]string, 0, len(resp.Slots))
	for _, slot := range resp.Slots {
		course := ""
		if slot.CourseID != nil {
			course = *slot.CourseID
		}
		kind := "fixed"
		if slot.IsVirtual {
			kind = "recurring"
		}
		localStart, localEnd, label := slot.LocalStartTime, slot.LocalEndTime, slot.TimezoneLabel
		if localStart == "" {
			localStart, localEnd, label = slot.StartTime, slot.EndTime, "UTC"
		}
		rows = append(rows, map[string]string{
			"Date":        slot.Date.Format(models.DateLayout),
			"Weekday":     time.Weekday(slot.DayOfWeek).String(),
			"Start (UTC)": slot.StartTime,
			"End (UTC)":   slot.EndTime,
			"Local Start": localStart,
			"Local End":   localEnd,
			"Timezone":    label,
			"Course":      course,
			"Kind":        kind,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
