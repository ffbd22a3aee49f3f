package schedule

import (
	"fmt"
	"time"

	"github.com/tutorhive/availability-api/internal/models"
	appErrors "github.com/tutorhive/availability-api/pkg/errors"
)

// EditScope selects how much of a recurring series a mutation affects.
type EditScope string

const (
	// ScopeSingle touches one date only, materializing an override or exception.
	ScopeSingle EditScope = "single"
	// ScopeFuture splits the series at the target date.
	ScopeFuture EditScope = "future"
	// ScopeSeries mutates the shared fields of the whole series.
	ScopeSeries EditScope = "series"
)

// ParseEditScope validates a scope selector from the wire.
func ParseEditScope(raw string) (EditScope, error) {
	switch EditScope(raw) {
	case ScopeSingle, ScopeFuture, ScopeSeries:
		return EditScope(raw), nil
	default:
		return "", appErrors.Clone(appErrors.ErrInvalidEditScope, fmt.Sprintf("unknown edit scope %q", raw))
	}
}

// RulePatch carries the requested field changes. Nil pointers leave the field
// untouched; ClearCourse resets the course binding to "any course". Weekdays
// apply only under the series and future scopes.
type RulePatch struct {
	StartTime   *string
	EndTime     *string
	CourseID    *string
	ClearCourse bool
	Weekdays    []int
}

// Resolution is the persisted outcome of an edit-scope operation: at most one
// rule to update, one to create (a future split) and one to delete. The input
// rule is never mutated.
type Resolution struct {
	Updated       *models.AvailabilityRule
	Created       *models.AvailabilityRule
	DeletedRuleID string
}

// ResolveUpdate computes the record set a scoped update produces.
func ResolveUpdate(rule models.AvailabilityRule, scope EditScope, targetDate time.Time, patch RulePatch) (Resolution, error) {
	if err := checkScope(rule, scope); err != nil {
		return Resolution{}, err
	}
	target := DateOnly(targetDate)

	switch scope {
	case ScopeSingle:
		return resolveSingleUpdate(rule, target, patch)
	case ScopeFuture:
		return resolveFutureUpdate(rule, target, patch)
	default:
		updated := applyPatch(rule.Clone(), patch)
		return Resolution{Updated: &updated}, nil
	}
}

// ResolveDelete computes the record set a scoped delete produces.
func ResolveDelete(rule models.AvailabilityRule, scope EditScope, targetDate time.Time) (Resolution, error) {
	if err := checkScope(rule, scope); err != nil {
		return Resolution{}, err
	}
	target := DateOnly(targetDate)

	switch scope {
	case ScopeSingle:
		if !rule.IsRecurring {
			return Resolution{DeletedRuleID: rule.ID}, nil
		}
		if err := checkInstanceDate(rule, target); err != nil {
			return Resolution{}, err
		}
		updated := rule.Clone()
		dateKey := target.Format(models.DateLayout)
		updated.Exceptions = append(updated.Exceptions, dateKey)
		delete(updated.Overrides, dateKey)
		return Resolution{Updated: &updated}, nil

	case ScopeFuture:
		if target.After(DateOnly(rule.SeriesEnd)) {
			return Resolution{}, appErrors.Clone(appErrors.ErrNoFutureInstances, "target date is past the end of the series")
		}
		// Deleting from the first instance onward removes the whole series.
		if !target.After(DateOnly(rule.SeriesStart)) {
			return Resolution{DeletedRuleID: rule.ID}, nil
		}
		updated := truncateBefore(rule, target)
		return Resolution{Updated: &updated}, nil

	default:
		// Series delete removes the rule and its overrides/exceptions atomically.
		return Resolution{DeletedRuleID: rule.ID}, nil
	}
}

func resolveSingleUpdate(rule models.AvailabilityRule, target time.Time, patch RulePatch) (Resolution, error) {
	updated := rule.Clone()

	if !rule.IsRecurring {
		updated = applyPatch(updated, patch)
		return Resolution{Updated: &updated}, nil
	}

	if err := checkInstanceDate(rule, target); err != nil {
		return Resolution{}, err
	}

	override := models.SlotOverride{StartTime: rule.StartTime, EndTime: rule.EndTime, CourseID: rule.CourseID}
	if existing, ok := rule.Overrides[target.Format(models.DateLayout)]; ok {
		override = existing
	}
	if patch.StartTime != nil {
		override.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		override.EndTime = *patch.EndTime
	}
	if patch.ClearCourse {
		override.CourseID = nil
	} else if patch.CourseID != nil {
		override.CourseID = patch.CourseID
	}

	if updated.Overrides == nil {
		updated.Overrides = make(map[string]models.SlotOverride, 1)
	}
	updated.Overrides[target.Format(models.DateLayout)] = override
	return Resolution{Updated: &updated}, nil
}

func resolveFutureUpdate(rule models.AvailabilityRule, target time.Time, patch RulePatch) (Resolution, error) {
	if target.After(DateOnly(rule.SeriesEnd)) {
		return Resolution{}, appErrors.Clone(appErrors.ErrNoFutureInstances, "target date is past the end of the series")
	}

	// From the first instance onward there is no past to preserve, so the
	// change collapses into a whole-series update.
	if !target.After(DateOnly(rule.SeriesStart)) {
		updated := applyPatch(rule.Clone(), patch)
		return Resolution{Updated: &updated}, nil
	}

	past := truncateBefore(rule, target)

	future := rule.Clone()
	future.ID = ""
	future.SeriesStart = target
	future.SeriesEnd = DateOnly(rule.SeriesEnd)
	future.Exceptions, future.Overrides = partitionFrom(rule, target)
	future = applyPatch(future, patch)

	return Resolution{Updated: &past, Created: &future}, nil
}

// truncateBefore ends the series on the day before target, keeping only the
// exceptions and overrides that still fall inside the shortened span.
func truncateBefore(rule models.AvailabilityRule, target time.Time) models.AvailabilityRule {
	updated := rule.Clone()
	updated.SeriesEnd = target.AddDate(0, 0, -1)

	kept := updated.Exceptions[:0]
	for _, dateKey := range updated.Exceptions {
		if dateKey < target.Format(models.DateLayout) {
			kept = append(kept, dateKey)
		}
	}
	updated.Exceptions = kept
	for dateKey := range updated.Overrides {
		if dateKey >= target.Format(models.DateLayout) {
			delete(updated.Overrides, dateKey)
		}
	}
	return updated
}

// partitionFrom collects the exceptions and overrides on or after target, for
// transfer onto the future half of a split.
func partitionFrom(rule models.AvailabilityRule, target time.Time) ([]string, map[string]models.SlotOverride) {
	cutoff := target.Format(models.DateLayout)
	var exceptions []string
	for _, dateKey := range rule.Exceptions {
		if dateKey >= cutoff {
			exceptions = append(exceptions, dateKey)
		}
	}
	var overrides map[string]models.SlotOverride
	for dateKey, override := range rule.Overrides {
		if dateKey >= cutoff {
			if overrides == nil {
				overrides = make(map[string]models.SlotOverride)
			}
			overrides[dateKey] = override
		}
	}
	return exceptions, overrides
}

func applyPatch(rule models.AvailabilityRule, patch RulePatch) models.AvailabilityRule {
	if patch.StartTime != nil {
		rule.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		rule.EndTime = *patch.EndTime
	}
	if patch.ClearCourse {
		rule.CourseID = nil
	} else if patch.CourseID != nil {
		rule.CourseID = patch.CourseID
	}
	if patch.Weekdays != nil && rule.IsRecurring {
		rule.Weekdays = append([]int(nil), patch.Weekdays...)
	}
	return rule
}

func checkScope(rule models.AvailabilityRule, scope EditScope) error {
	if _, err := ParseEditScope(string(scope)); err != nil {
		return err
	}
	if !rule.IsRecurring && scope != ScopeSingle {
		return appErrors.Clone(appErrors.ErrInvalidEditScope, fmt.Sprintf("scope %q requires a recurring series", scope))
	}
	return nil
}

// checkInstanceDate verifies the target date actually is an instance of the
// rule: inside the series span, on a matching weekday and not excepted.
func checkInstanceDate(rule models.AvailabilityRule, target time.Time) error {
	if target.Before(DateOnly(rule.SeriesStart)) || target.After(DateOnly(rule.SeriesEnd)) {
		return appErrors.Clone(appErrors.ErrInvalidAvailability, "target date is outside the series span")
	}
	matches := false
	for _, day := range rule.Weekdays {
		if day == int(target.Weekday()) {
			matches = true
			break
		}
	}
	if !matches {
		return appErrors.Clone(appErrors.ErrInvalidAvailability, "target date does not fall on a recurrence weekday")
	}
	if rule.HasException(target.Format(models.DateLayout)) {
		return appErrors.Clone(appErrors.ErrNotFound, "target date was removed from the series")
	}
	return nil
}
