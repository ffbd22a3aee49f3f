package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorhive/availability-api/internal/models"
	appErrors "github.com/tutorhive/availability-api/pkg/errors"
	"github.com/tutorhive/availability-api/pkg/export"
)

type calendarStub struct {
	resp *CalendarResponse
}

func (s calendarStub) GetCalendar(ctx context.Context, filter models.CalendarFilter) (*CalendarResponse, error) {
	return s.resp, nil
}

func newExportServiceForTest(enabled bool) *ExportService {
	course := "math-101"
	stub := calendarStub{resp: &CalendarResponse{
		TutorID:  "tutor-1",
		From:     "2024-01-08",
		To:       "2024-01-14",
		Timezone: "America/New_York",
		Slots: []CalendarSlot{
			{
				AvailabilityInstance: models.AvailabilityInstance{
					Date:         time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC),
					DayOfWeek:    1,
					StartTime:    "14:00",
					EndTime:      "15:00",
					TutorID:      "tutor-1",
					CourseID:     &course,
					SourceRuleID: "rule-1",
					IsVirtual:    true,
				},
				LocalStartTime: "09:00",
				LocalEndTime:   "10:00",
				TimezoneLabel:  "EST",
			},
		},
	}}
	return NewExportService(stub, enabled, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
}

func TestExportServiceExportCSV(t *testing.T) {
	svc := newExportServiceForTest(true)
	file, err := svc.ExportCalendar(context.Background(), models.CalendarFilter{TutorID: "tutor-1"}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Contains(t, file.Filename, "availability_tutor-1_2024-01-08_2024-01-14")

	body := string(file.Payload)
	assert.Contains(t, body, "Date,Weekday,Start (UTC)")
	assert.Contains(t, body, "2024-01-08,Monday,14:00,15:00,09:00,10:00,EST,math-101,recurring")
}

func TestExportServiceExportPDF(t *testing.T) {
	svc := newExportServiceForTest(true)
	file, err := svc.ExportCalendar(context.Background(), models.CalendarFilter{TutorID: "tutor-1"}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.NotEmpty(t, file.Payload)
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc := newExportServiceForTest(true)
	_, err := svc.ExportCalendar(context.Background(), models.CalendarFilter{TutorID: "tutor-1"}, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedExportFmt.Code, appErrors.FromError(err).Code)
}

func TestExportServiceDisabled(t *testing.T) {
	svc := newExportServiceForTest(false)
	_, err := svc.ExportCalendar(context.Background(), models.CalendarFilter{TutorID: "tutor-1"}, "csv")
	require.Error(t, err)
	assert.Equal(t, "EXPORT_DISABLED", appErrors.FromError(err).Code)
}
