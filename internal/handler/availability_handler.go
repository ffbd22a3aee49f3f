package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/availability-api/internal/models"
	"github.com/tutorhive/availability-api/internal/service"
	appErrors "github.com/tutorhive/availability-api/pkg/errors"
	"github.com/tutorhive/availability-api/pkg/response"
)

// defaultCalendarDays is the window served when the caller gives no bounds.
const defaultCalendarDays = 28

type availabilityService interface {
	GetCalendar(ctx context.Context, filter models.CalendarFilter) (*service.CalendarResponse, error)
	CreateRule(ctx context.Context, req service.CreateRuleRequest) (*models.AvailabilityRule, error)
	CreateSingleSlot(ctx context.Context, req service.CreateSlotRequest) (*models.AvailabilityRule, error)
	UpdateRule(ctx context.Context, ruleID string, req service.UpdateRuleRequest) (*service.RuleMutationResult, error)
	DeleteRule(ctx context.Context, ruleID string, req service.DeleteRuleRequest) (*service.RuleMutationResult, error)
	CheckConflicts(ctx context.Context, req service.ConflictCheckRequest) (*models.ConflictResult, error)
	ImportLegacyPayload(ctx context.Context, tutorID string, raw []byte, timezone string) (*service.ImportResult, error)
}

// AvailabilityHandler exposes the availability calendar and rule endpoints.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

type createRuleBody struct {
	TutorID     string  `json:"tutor_id" binding:"required"`
	CourseID    *string `json:"course_id"`
	Weekdays    []int   `json:"recurrence_days" binding:"required"`
	StartTime   string  `json:"start_time" binding:"required"`
	EndTime     string  `json:"end_time" binding:"required"`
	Timezone    string  `json:"timezone"`
	SeriesStart string  `json:"series_start" binding:"required"`
	SeriesEnd   string  `json:"series_end" binding:"required"`
	Force       bool    `json:"force"`
}

type createSlotBody struct {
	TutorID   string  `json:"tutor_id" binding:"required"`
	CourseID  *string `json:"course_id"`
	Date      string  `json:"date" binding:"required"`
	StartTime string  `json:"start_time" binding:"required"`
	EndTime   string  `json:"end_time" binding:"required"`
	Timezone  string  `json:"timezone"`
	Force     bool    `json:"force"`
}

type updateRuleBody struct {
	Scope       string  `json:"scope" binding:"required"`
	TargetDate  string  `json:"target_date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	CourseID    *string `json:"course_id"`
	ClearCourse bool    `json:"clear_course"`
	Weekdays    []int   `json:"recurrence_days"`
	Force       bool    `json:"force"`
}

type deleteRuleBody struct {
	Scope      string `json:"scope" binding:"required"`
	TargetDate string `json:"target_date"`
}

type conflictCheckBody struct {
	TutorID   string `json:"tutor_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Timezone  string `json:"timezone"`
	ExcludeID string `json:"exclude_id"`
}

// GetCalendar godoc
// @Summary Expanded availability calendar for a tutor
// @Tags Availability
// @Produce json
// @Param id path string true "Tutor ID"
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Param timezone query string false "Display timezone (IANA name)"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/availability [get]
func (h *AvailabilityHandler) GetCalendar(c *gin.Context) {
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

	calendar, err := h.service.GetCalendar(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil, map[string]interface{}{
		"slot_count": len(calendar.Slots),
	})
}

// CreateRule godoc
// @Summary Create a recurring availability series
// @Tags Availability
// @Accept json
// @Produce json
// @Param request body createRuleBody true "Rule definition (local wall-clock times)"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /availability/rules [post]
func (h *AvailabilityHandler) CreateRule(c *gin.Context) {
	var body createRuleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload"))
		return
	}
	seriesStart, err := parseRequiredDate(body.SeriesStart, "series_start")
	if err != nil {
		response.Error(c, err)
		return
	}
	seriesEnd, err := parseRequiredDate(body.SeriesEnd, "series_end")
	if err != nil {
		response.Error(c, err)
		return
	}

	rule, err := h.service.CreateRule(c.Request.Context(), service.CreateRuleRequest{
		TutorID:     body.TutorID,
		CourseID:    body.CourseID,
		Weekdays:    body.Weekdays,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
		Timezone:    body.Timezone,
		SeriesStart: seriesStart,
		SeriesEnd:   seriesEnd,
		Force:       body.Force,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// CreateSlot godoc
// @Summary Create a one-off availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param request body createSlotBody true "Slot definition (local wall-clock times)"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /availability/slots [post]
func (h *AvailabilityHandler) CreateSlot(c *gin.Context) {
	var body createSlotBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload"))
		return
	}
	date, err := parseRequiredDate(body.Date, "date")
	if err != nil {
		response.Error(c, err)
		return
	}

	rule, err := h.service.CreateSingleSlot(c.Request.Context(), service.CreateSlotRequest{
		TutorID:   body.TutorID,
		CourseID:  body.CourseID,
		Date:      date,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Timezone:  body.Timezone,
		Force:     body.Force,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// UpdateRule godoc
// @Summary Apply a scoped edit to an availability rule
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param request body updateRuleBody true "Scoped edit (single, future or series)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /availability/rules/{id} [put]
func (h *AvailabilityHandler) UpdateRule(c *gin.Context) {
	var body updateRuleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule update payload"))
		return
	}
	targetDate, err := parseOptionalDate(body.TargetDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	req := service.UpdateRuleRequest{
		Scope:       body.Scope,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
		CourseID:    body.CourseID,
		ClearCourse: body.ClearCourse,
		Weekdays:    body.Weekdays,
		Force:       body.Force,
	}
	if targetDate != nil {
		req.TargetDate = *targetDate
	}

	result, err := h.service.UpdateRule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DeleteRule godoc
// @Summary Delete an availability rule, instance or future portion
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param request body deleteRuleBody true "Scoped delete (single, future or series)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /availability/rules/{id} [delete]
func (h *AvailabilityHandler) DeleteRule(c *gin.Context) {
	var body deleteRuleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule delete payload"))
		return
	}
	targetDate, err := parseOptionalDate(body.TargetDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	req := service.DeleteRuleRequest{Scope: body.Scope}
	if targetDate != nil {
		req.TargetDate = *targetDate
	}

	result, err := h.service.DeleteRule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CheckConflicts godoc
// @Summary Check a candidate slot for overlap without persisting it
// @Tags Availability
// @Accept json
// @Produce json
// @Param request body conflictCheckBody true "Candidate slot"
// @Success 200 {object} response.Envelope
// @Router /availability/conflicts/check [post]
func (h *AvailabilityHandler) CheckConflicts(c *gin.Context) {
	var body conflictCheckBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload"))
		return
	}
	date, err := parseRequiredDate(body.Date, "date")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.CheckConflicts(c.Request.Context(), service.ConflictCheckRequest{
		TutorID:   body.TutorID,
		Date:      date,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Timezone:  body.Timezone,
		ExcludeID: body.ExcludeID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Import godoc
// @Summary Import availability from a legacy payload
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Tutor ID"
// @Param timezone query string false "Timezone for records without one"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /tutors/{id}/availability/import [post]
func (h *AvailabilityHandler) Import(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read payload"))
		return
	}

	result, err := h.service.ImportLegacyPayload(c.Request.Context(), c.Param("id"), raw, c.Query("timezone"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}
	return &parsed, nil
}

func parseRequiredDate(raw, field string) (time.Time, error) {
	parsed, err := parseOptionalDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	if parsed == nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, field+" is required")
	}
	return *parsed, nil
}
