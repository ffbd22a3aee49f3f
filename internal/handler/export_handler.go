package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/availability-api/internal/models"
	"github.com/tutorhive/availability-api/internal/service"
	"github.com/tutorhive/availability-api/pkg/response"
)

type exportService interface {
	ExportCalendar(ctx context.Context, filter models.CalendarFilter, format string) (*service.ExportFile, error)
}

// ExportHandler serves downloadable schedule exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Export godoc
// @Summary Download a tutor's expanded schedule as CSV or PDF
// @Tags Availability
// @Produce octet-stream
// @Param id path string true "Tutor ID"
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Param timezone query string false "Display timezone (IANA name)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /tutors/{id}/availability/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	filter := models.CalendarFilter{
		TutorID:  c.Param("id"),
		Timezone: c.Query("timezone"),
	}

	from, err := parseOptionalDate(c.Query("from"))
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := parseOptionalDate(c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if from == nil {
		today := time.Now().UTC()
		from = &today
	}
	if to == nil {
		end := from.AddDate(0, 0, defaultCalendarDays-1)
		to = &end
	}
	filter.From = *from
	filter.To = *to

	format := c.DefaultQuery("format", service.ExportFormatCSV)
	file, err := h.service.ExportCalendar(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}
