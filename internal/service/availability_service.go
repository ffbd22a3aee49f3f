package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorhive/availability-api/internal/models"
	"github.com/tutorhive/availability-api/internal/schedule"
	appErrors "github.com/tutorhive/availability-api/pkg/errors"
	"github.com/tutorhive/availability-api/pkg/jobs"
)

// PrewarmJobType labels queued cache prewarm tasks.
const PrewarmJobType = "calendar_prewarm"

// AvailabilityRuleRepository abstracts rule persistence.
type AvailabilityRuleRepository interface {
	ListByTutor(ctx context.Context, tutorID string, from, to time.Time) ([]models.AvailabilityRule, error)
	FindByID(ctx context.Context, id string) (*models.AvailabilityRule, error)
	Create(ctx context.Context, rule *models.AvailabilityRule) error
	Update(ctx context.Context, rule *models.AvailabilityRule) error
	Delete(ctx context.Context, id string) error
}

// SessionReader provides read access to booked sessions.
type SessionReader interface {
	ListByTutor(ctx context.Context, tutorID string, from, to time.Time) ([]models.BookedSession, error)
}

type prewarmQueue interface {
	Enqueue(job jobs.Job) error
}

// AvailabilityConfig tunes the scheduling boundaries.
type AvailabilityConfig struct {
	DefaultTimezone string
	MaxWindowDays   int
	CacheTTL        time.Duration
	PrewarmDays     int
}

// CreateRuleRequest carries a new recurring availability series. Clocks are
// the tutor's local wall-clock times; conversion to canonical UTC happens on
// the way in, anchored on the series start date.
type CreateRuleRequest struct {
	TutorID     string    `json:"tutor_id" validate:"required"`
	CourseID    *string   `json:"course_id"`
	Weekdays    []int     `json:"recurrence_days" validate:"required,min=1"`
	StartTime   string    `json:"start_time" validate:"required"`
	EndTime     string    `json:"end_time" validate:"required"`
	Timezone    string    `json:"timezone"`
	SeriesStart time.Time `json:"series_start" validate:"required"`
	SeriesEnd   time.Time `json:"series_end" validate:"required"`
	Force       bool      `json:"force"`
}

// CreateSlotRequest carries a one-off availability slot.
type CreateSlotRequest struct {
	TutorID   string    `json:"tutor_id" validate:"required"`
	CourseID  *string   `json:"course_id"`
	Date      time.Time `json:"date" validate:"required"`
	StartTime string    `json:"start_time" validate:"required"`
	EndTime   string    `json:"end_time" validate:"required"`
	Timezone  string    `json:"timezone"`
	Force     bool      `json:"force"`
}

// UpdateRuleRequest carries a scoped series edit. Nil fields stay untouched.
type UpdateRuleRequest struct {
	Scope       string    `json:"scope" validate:"required"`
	TargetDate  time.Time `json:"target_date"`
	StartTime   *string   `json:"start_time"`
	EndTime     *string   `json:"end_time"`
	CourseID    *string   `json:"course_id"`
	ClearCourse bool      `json:"clear_course"`
	Weekdays    []int     `json:"recurrence_days"`
	Force       bool      `json:"force"`
}

// DeleteRuleRequest carries a scoped series delete.
type DeleteRuleRequest struct {
	Scope      string    `json:"scope" validate:"required"`
	TargetDate time.Time `json:"target_date"`
}

// ConflictCheckRequest probes a candidate slot without persisting anything.
type ConflictCheckRequest struct {
	TutorID   string    `json:"tutor_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	StartTime string    `json:"start_time" validate:"required"`
	EndTime   string    `json:"end_time" validate:"required"`
	Timezone  string    `json:"timezone"`
	ExcludeID string    `json:"exclude_id"`
}

// RuleMutationResult reports which records a scoped mutation touched.
type RuleMutationResult struct {
	Updated       *models.AvailabilityRule `json:"updated,omitempty"`
	Created       *models.AvailabilityRule `json:"created,omitempty"`
	DeletedRuleID string                   `json:"deleted_rule_id,omitempty"`
}

// CalendarSlot is one expanded instance plus its display-time projection.
type CalendarSlot struct {
	models.AvailabilityInstance
	LocalStartTime string `json:"local_start_time,omitempty"`
	LocalEndTime   string `json:"local_end_time,omitempty"`
	LocalDayOffset int    `json:"local_day_offset,omitempty"`
	TimezoneLabel  string `json:"timezone_label,omitempty"`
}

// CalendarResponse is a fully expanded availability window.
type CalendarResponse struct {
	TutorID  string         `json:"tutor_id"`
	From     string         `json:"from"`
	To       string         `json:"to"`
	Timezone string         `json:"timezone"`
	Slots    []CalendarSlot `json:"slots"`
}

// ImportResult summarizes a legacy payload import.
type ImportResult struct {
	Imported int      `json:"imported"`
	RuleIDs  []string `json:"rule_ids"`
}

// AvailabilityService owns the rule lifecycle: expansion into calendars,
// creation with conflict checks, scoped edits and legacy imports. Mutations on
// the same rule (and creates for the same tutor) are serialized with in-process
// locks so concurrent edits cannot interleave their read-resolve-write cycles.
type AvailabilityService struct {
	rules    AvailabilityRuleRepository
	sessions SessionReader
	cache    *CacheService
	metrics  *MetricsService
	queue    prewarmQueue
	validate *validator.Validate
	logger   *zap.Logger
	cfg      AvailabilityConfig

	locks sync.Map
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(rules AvailabilityRuleRepository, sessions SessionReader, cache *CacheService, metrics *MetricsService, cfg AvailabilityConfig, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "UTC"
	}
	if cfg.MaxWindowDays <= 0 {
		cfg.MaxWindowDays = 366
	}
	if cfg.PrewarmDays <= 0 {
		cfg.PrewarmDays = 28
	}
	return &AvailabilityService{
		rules:    rules,
		sessions: sessions,
		cache:    cache,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
		cfg:      cfg,
	}
}

// SetPrewarmQueue wires the background queue used to refresh caches after
// mutations. Optional; without it mutations only invalidate.
func (s *AvailabilityService) SetPrewarmQueue(queue prewarmQueue) {
	s.queue = queue
}

// GetCalendar expands every rule intersecting the window into concrete slots,
// sorted by date and start time, with display times projected into the
// requested timezone.
func (s *AvailabilityService) GetCalendar(ctx context.Context, filter models.CalendarFilter) (*CalendarResponse, error) {
	if filter.TutorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tutor id is required")
	}
	from := schedule.DateOnly(filter.From)
	to := schedule.DateOnly(filter.To)
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "window end date is before the start date")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > s.cfg.MaxWindowDays {
		return nil, appErrors.Clone(appErrors.ErrWindowTooLarge, fmt.Sprintf("window spans %d days, maximum is %d", days, s.cfg.MaxWindowDays))
	}
	timezone := filter.Timezone
	if timezone == "" {
		timezone = s.cfg.DefaultTimezone
	}

	key := CalendarCacheKey(filter.TutorID, from, to, timezone)
	var cached CalendarResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	started := time.Now()
	instances, err := s.expandWindow(ctx, filter.TutorID, from, to)
	if err != nil {
		return nil, err
	}

	slots := make([]CalendarSlot, 0, len(instances))
	for _, inst := range instances {
		slot, err := s.localizeSlot(inst, timezone)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	if s.metrics != nil {
		s.metrics.ObserveExpansion(time.Since(started), len(slots))
	}

	resp := &CalendarResponse{
		TutorID:  filter.TutorID,
		From:     from.Format(models.DateLayout),
		To:       to.Format(models.DateLayout),
		Timezone: timezone,
		Slots:    slots,
	}
	if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("calendar cache write failed", zap.String("tutor_id", filter.TutorID), zap.Error(err))
	}
	return resp, nil
}

// CreateRule validates and persists a recurring series. Unless forced, every
// instance in the series is checked for overlap with existing availability and
// booked sessions first.
func (s *AvailabilityService) CreateRule(ctx context.Context, req CreateRuleRequest) (*models.AvailabilityRule, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability rule request")
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = s.cfg.DefaultTimezone
	}
	if err := checkClockOrder(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	startUTC, err := schedule.LocalToUTC(req.StartTime, timezone, req.SeriesStart)
	if err != nil {
		return nil, err
	}
	endUTC, err := schedule.LocalToUTC(req.EndTime, timezone, req.SeriesStart)
	if err != nil {
		return nil, err
	}

	rule := models.AvailabilityRule{
		TutorID:          req.TutorID,
		CourseID:         req.CourseID,
		IsRecurring:      true,
		Weekdays:         append([]int(nil), req.Weekdays...),
		StartTime:        startUTC,
		EndTime:          endUTC,
		OriginalTimezone: timezone,
		SeriesStart:      schedule.DateOnly(req.SeriesStart),
		SeriesEnd:        schedule.DateOnly(req.SeriesEnd),
	}
	if err := schedule.ValidateRule(rule); err != nil {
		return nil, err
	}

	unlock := s.lock("tutor:" + req.TutorID)
	defer unlock()

	if !req.Force {
		if err := s.ensureNoConflicts(ctx, rule, ""); err != nil {
			return nil, err
		}
	}
	if err := s.rules.Create(ctx, &rule); err != nil {
		return nil, err
	}
	s.afterMutation(ctx, rule.TutorID)
	s.logger.Info("availability rule created",
		zap.String("rule_id", rule.ID),
		zap.String("tutor_id", rule.TutorID),
		zap.Ints("recurrence_days", rule.Weekdays))
	return &rule, nil
}

// CreateSingleSlot persists a one-off slot as a non-recurring rule spanning a
// single day.
func (s *AvailabilityService) CreateSingleSlot(ctx context.Context, req CreateSlotRequest) (*models.AvailabilityRule, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability slot request")
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = s.cfg.DefaultTimezone
	}
	if err := checkClockOrder(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	startUTC, err := schedule.LocalToUTC(req.StartTime, timezone, req.Date)
	if err != nil {
		return nil, err
	}
	endUTC, err := schedule.LocalToUTC(req.EndTime, timezone, req.Date)
	if err != nil {
		return nil, err
	}

	// The slot keeps the tutor's local calendar date even when the UTC clocks
	// wrap past midnight.
	date := schedule.DateOnly(req.Date)
	rule := models.AvailabilityRule{
		TutorID:          req.TutorID,
		CourseID:         req.CourseID,
		IsRecurring:      false,
		StartTime:        startUTC,
		EndTime:          endUTC,
		OriginalTimezone: timezone,
		SeriesStart:      date,
		SeriesEnd:        date,
	}
	if err := schedule.ValidateRule(rule); err != nil {
		return nil, err
	}

	unlock := s.lock("tutor:" + req.TutorID)
	defer unlock()

	if !req.Force {
		if err := s.ensureNoConflicts(ctx, rule, ""); err != nil {
			return nil, err
		}
	}
	if err := s.rules.Create(ctx, &rule); err != nil {
		return nil, err
	}
	s.afterMutation(ctx, rule.TutorID)
	return &rule, nil
}

// UpdateRule applies a scoped edit to a rule. Single-date edits materialize
// overrides, future edits split the series, series edits patch shared fields.
func (s *AvailabilityService) UpdateRule(ctx context.Context, ruleID string, req UpdateRuleRequest) (*RuleMutationResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule update request")
	}
	scope, err := schedule.ParseEditScope(req.Scope)
	if err != nil {
		return nil, err
	}
	if scope != schedule.ScopeSeries && req.TargetDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target_date is required for single and future scopes")
	}

	unlock := s.lock("rule:" + ruleID)
	defer unlock()

	rule, err := s.findRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	refDate := req.TargetDate
	if refDate.IsZero() {
		refDate = rule.SeriesStart
	}
	if req.StartTime != nil && req.EndTime != nil {
		if err := checkClockOrder(*req.StartTime, *req.EndTime); err != nil {
			return nil, err
		}
	}
	patch := schedule.RulePatch{
		CourseID:    req.CourseID,
		ClearCourse: req.ClearCourse,
		Weekdays:    req.Weekdays,
	}
	if req.StartTime != nil {
		utc, err := schedule.LocalToUTC(*req.StartTime, rule.OriginalTimezone, refDate)
		if err != nil {
			return nil, err
		}
		patch.StartTime = &utc
	}
	if req.EndTime != nil {
		utc, err := schedule.LocalToUTC(*req.EndTime, rule.OriginalTimezone, refDate)
		if err != nil {
			return nil, err
		}
		patch.EndTime = &utc
	}

	resolution, err := schedule.ResolveUpdate(*rule, scope, req.TargetDate, patch)
	if err != nil {
		return nil, err
	}

	// Force skips the overlap check only; the resolved rules must still satisfy
	// the structural invariants before anything is written.
	for _, changed := range []*models.AvailabilityRule{resolution.Updated, resolution.Created} {
		if changed == nil {
			continue
		}
		if err := schedule.ValidateRule(*changed); err != nil {
			return nil, err
		}
		if !req.Force {
			if err := s.ensureNoConflicts(ctx, *changed, rule.ID); err != nil {
				return nil, err
			}
		}
	}

	result, err := s.persistResolution(ctx, resolution)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, rule.TutorID)
	s.logger.Info("availability rule updated",
		zap.String("rule_id", ruleID),
		zap.String("scope", string(scope)),
		zap.String("tutor_id", rule.TutorID))
	return result, nil
}

// DeleteRule removes a rule, an instance or the future part of a series
// depending on the requested scope.
func (s *AvailabilityService) DeleteRule(ctx context.Context, ruleID string, req DeleteRuleRequest) (*RuleMutationResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule delete request")
	}
	scope, err := schedule.ParseEditScope(req.Scope)
	if err != nil {
		return nil, err
	}
	if scope != schedule.ScopeSeries && req.TargetDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target_date is required for single and future scopes")
	}

	unlock := s.lock("rule:" + ruleID)
	defer unlock()

	rule, err := s.findRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	resolution, err := schedule.ResolveDelete(*rule, scope, req.TargetDate)
	if err != nil {
		return nil, err
	}
	result, err := s.persistResolution(ctx, resolution)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, rule.TutorID)
	s.logger.Info("availability rule deleted",
		zap.String("rule_id", ruleID),
		zap.String("scope", string(scope)),
		zap.String("tutor_id", rule.TutorID))
	return result, nil
}

// CheckConflicts probes a candidate slot against existing availability and
// booked sessions without persisting anything.
func (s *AvailabilityService) CheckConflicts(ctx context.Context, req ConflictCheckRequest) (*models.ConflictResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check request")
	}

	startClock, endClock := req.StartTime, req.EndTime
	var err error
	if req.Timezone != "" {
		if startClock, err = schedule.LocalToUTC(req.StartTime, req.Timezone, req.Date); err != nil {
			return nil, err
		}
		if endClock, err = schedule.LocalToUTC(req.EndTime, req.Timezone, req.Date); err != nil {
			return nil, err
		}
	} else {
		if startClock, err = schedule.NormalizeClock(req.StartTime); err != nil {
			return nil, err
		}
		if endClock, err = schedule.NormalizeClock(req.EndTime); err != nil {
			return nil, err
		}
	}

	date := schedule.DateOnly(req.Date)
	cand := schedule.Candidate{
		TutorID:   req.TutorID,
		Date:      date,
		StartTime: startClock,
		EndTime:   endClock,
		ExcludeID: req.ExcludeID,
	}

	// Slots on the neighbouring days can wrap into the candidate's day, so the
	// comparison set covers one day on each side.
	slots, err := s.expandWindow(ctx, req.TutorID, date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListByTutor(ctx, req.TutorID, date.AddDate(0, 0, -1), date.AddDate(0, 0, 2))
	if err != nil {
		return nil, err
	}

	result, err := schedule.DetectConflicts(cand, slots, sessions)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordConflictCheck(result.HasConflict)
	}
	return &result, nil
}

// ImportLegacyPayload accepts any recognized availability payload shape,
// normalizes it and persists each record as a rule. Dated records become
// one-off slots, weekday-only records become recurring series starting today.
func (s *AvailabilityService) ImportLegacyPayload(ctx context.Context, tutorID string, raw []byte, timezone string) (*ImportResult, error) {
	if tutorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tutor id is required")
	}
	instances, err := schedule.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if timezone == "" {
		timezone = s.cfg.DefaultTimezone
	}

	today := schedule.DateOnly(time.Now().UTC())
	result := &ImportResult{}

	unlock := s.lock("tutor:" + tutorID)
	defer unlock()

	for i, inst := range instances {
		if inst.TutorID != "" && inst.TutorID != tutorID {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("record %d belongs to a different tutor", i))
		}
		recordTZ := inst.OriginalTimezone
		if recordTZ == "" {
			recordTZ = timezone
		}

		refDate := inst.Date
		if refDate.IsZero() {
			refDate = today
		}
		if err := checkClockOrder(inst.StartTime, inst.EndTime); err != nil {
			return nil, err
		}
		startUTC, err := schedule.LocalToUTC(inst.StartTime, recordTZ, refDate)
		if err != nil {
			return nil, err
		}
		endUTC, err := schedule.LocalToUTC(inst.EndTime, recordTZ, refDate)
		if err != nil {
			return nil, err
		}

		rule := models.AvailabilityRule{
			TutorID:          tutorID,
			CourseID:         inst.CourseID,
			StartTime:        startUTC,
			EndTime:          endUTC,
			OriginalTimezone: recordTZ,
		}
		if inst.Date.IsZero() {
			rule.IsRecurring = true
			rule.Weekdays = []int{inst.DayOfWeek}
			rule.SeriesStart = today
			rule.SeriesEnd = today.AddDate(0, 0, s.cfg.MaxWindowDays-1)
		} else {
			rule.SeriesStart = schedule.DateOnly(inst.Date)
			rule.SeriesEnd = rule.SeriesStart
		}
		if err := schedule.ValidateRule(rule); err != nil {
			return nil, err
		}
		if err := s.rules.Create(ctx, &rule); err != nil {
			return nil, err
		}
		result.Imported++
		result.RuleIDs = append(result.RuleIDs, rule.ID)
	}

	s.afterMutation(ctx, tutorID)
	s.logger.Info("legacy availability imported",
		zap.String("tutor_id", tutorID),
		zap.Int("imported", result.Imported))
	return result, nil
}

// PrewarmTutor refreshes the cached calendar for the near-term window. It is
// the handler behind queued prewarm jobs.
func (s *AvailabilityService) PrewarmTutor(ctx context.Context, tutorID string) error {
	today := schedule.DateOnly(time.Now().UTC())
	_, err := s.GetCalendar(ctx, models.CalendarFilter{
		TutorID: tutorID,
		From:    today,
		To:      today.AddDate(0, 0, s.cfg.PrewarmDays-1),
	})
	return err
}

// HandlePrewarmJob adapts PrewarmTutor to the queue handler signature.
func (s *AvailabilityService) HandlePrewarmJob(ctx context.Context, job jobs.Job) error {
	tutorID, ok := job.Payload.(string)
	if !ok || tutorID == "" {
		return fmt.Errorf("prewarm job %s has no tutor id", job.ID)
	}
	return s.PrewarmTutor(ctx, tutorID)
}

func (s *AvailabilityService) expandWindow(ctx context.Context, tutorID string, from, to time.Time) ([]models.AvailabilityInstance, error) {
	rules, err := s.rules.ListByTutor(ctx, tutorID, from, to)
	if err != nil {
		return nil, err
	}
	instances := []models.AvailabilityInstance{}
	for _, rule := range rules {
		expanded, err := schedule.Expand(rule, from, to)
		if err != nil {
			return nil, err
		}
		instances = append(instances, expanded...)
	}
	sort.SliceStable(instances, func(i, j int) bool {
		if !instances[i].Date.Equal(instances[j].Date) {
			return instances[i].Date.Before(instances[j].Date)
		}
		return instances[i].StartTime < instances[j].StartTime
	})
	return instances, nil
}

func (s *AvailabilityService) localizeSlot(inst models.AvailabilityInstance, timezone string) (CalendarSlot, error) {
	slot := CalendarSlot{AvailabilityInstance: inst}
	if timezone == "" || timezone == "UTC" {
		return slot, nil
	}
	localStart, err := schedule.UTCToLocal(inst.StartTime, timezone, inst.Date)
	if err != nil {
		return slot, err
	}
	localEnd, err := schedule.UTCToLocal(inst.EndTime, timezone, inst.Date)
	if err != nil {
		return slot, err
	}
	offset, err := schedule.DayOffset(inst.StartTime, localStart)
	if err != nil {
		return slot, err
	}
	label, err := schedule.ZoneAbbreviation(timezone, inst.Date)
	if err != nil {
		return slot, err
	}
	slot.LocalStartTime = localStart
	slot.LocalEndTime = localEnd
	slot.LocalDayOffset = offset
	slot.TimezoneLabel = label
	return slot, nil
}

// ensureNoConflicts expands the candidate rule and checks every instance
// against the tutor's other availability and booked sessions. The scan is
// clamped to the configured maximum window from the series start.
func (s *AvailabilityService) ensureNoConflicts(ctx context.Context, rule models.AvailabilityRule, excludeID string) error {
	from := schedule.DateOnly(rule.SeriesStart)
	to := schedule.DateOnly(rule.SeriesEnd)
	if limit := from.AddDate(0, 0, s.cfg.MaxWindowDays-1); to.After(limit) {
		to = limit
	}

	candidates, err := schedule.Expand(rule, from, to)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	existing, err := s.expandWindow(ctx, rule.TutorID, from, to)
	if err != nil {
		return err
	}
	sessions, err := s.sessions.ListByTutor(ctx, rule.TutorID, from, to.AddDate(0, 0, 2))
	if err != nil {
		return err
	}

	for _, cand := range candidates {
		result, err := schedule.DetectConflicts(schedule.Candidate{
			TutorID:   rule.TutorID,
			Date:      cand.Date,
			StartTime: cand.StartTime,
			EndTime:   cand.EndTime,
			ExcludeID: excludeID,
		}, existing, sessions)
		if err != nil {
			return err
		}
		if result.HasConflict {
			if s.metrics != nil {
				s.metrics.RecordConflictCheck(true)
			}
			return appErrors.Clone(appErrors.ErrOverlapConflict, fmt.Sprintf("slot on %s overlaps existing availability or a booked session", cand.Date.Format(models.DateLayout)))
		}
	}
	if s.metrics != nil {
		s.metrics.RecordConflictCheck(false)
	}
	return nil
}

func (s *AvailabilityService) persistResolution(ctx context.Context, resolution schedule.Resolution) (*RuleMutationResult, error) {
	result := &RuleMutationResult{}
	if resolution.Updated != nil {
		if err := s.rules.Update(ctx, resolution.Updated); err != nil {
			return nil, err
		}
		result.Updated = resolution.Updated
	}
	if resolution.Created != nil {
		if err := s.rules.Create(ctx, resolution.Created); err != nil {
			return nil, err
		}
		result.Created = resolution.Created
	}
	if resolution.DeletedRuleID != "" {
		if err := s.rules.Delete(ctx, resolution.DeletedRuleID); err != nil {
			return nil, err
		}
		result.DeletedRuleID = resolution.DeletedRuleID
	}
	return result, nil
}

func (s *AvailabilityService) findRule(ctx context.Context, id string) (*models.AvailabilityRule, error) {
	rule, err := s.rules.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability rule")
	}
	return rule, nil
}

func (s *AvailabilityService) afterMutation(ctx context.Context, tutorID string) {
	if err := s.cache.Invalidate(ctx, TutorCachePattern(tutorID)); err != nil {
		s.logger.Warn("calendar cache invalidation failed", zap.String("tutor_id", tutorID), zap.Error(err))
	}
	if s.queue == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: PrewarmJobType, Payload: tutorID}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("prewarm enqueue failed", zap.String("tutor_id", tutorID), zap.Error(err))
	}
}

// checkClockOrder rejects a zero-length slot while the clocks are still local
// wall-clock times. Canonical UTC clocks may legitimately wrap past midnight
// for evening slots, so equal clocks are only distinguishable from a
// wrapped-but-valid pair before conversion.
func checkClockOrder(start, end string) error {
	startClock, err := schedule.NormalizeClock(start)
	if err != nil {
		return err
	}
	endClock, err := schedule.NormalizeClock(end)
	if err != nil {
		return err
	}
	if startClock == endClock {
		return appErrors.Clone(appErrors.ErrInvalidAvailability, "start time must be before end time")
	}
	return nil
}

func (s *AvailabilityService) lock(key string) func() {
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
