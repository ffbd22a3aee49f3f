package schedule

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tutorhive/availability-api/internal/models"
	appErrors "github.com/tutorhive/availability-api/pkg/errors"
)

// Normalize reconciles the availability payload shapes produced by different
// generations of the platform into the canonical instance representation. Two
// shapes are accepted: a flat list of instance records, and the legacy object
// keyed by weekday name with per-day slot lists. Field spellings vary between
// producers ("startTime", "start_time", "start", "from", ...) and are folded
// into one shape here; weekday values always come out Sunday-first.
//
// An empty list is valid input and yields an empty result. A shape that cannot
// be recognized fails with a typed error so callers can tell "no data" apart
// from "cannot parse".
func Normalize(raw []byte) ([]models.AvailabilityInstance, error) {
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnrecognizedFormat.Code, appErrors.ErrUnrecognizedFormat.Status, "availability payload is not valid JSON")
	}
	return normalizeValue(value)
}

func normalizeValue(value interface{}) ([]models.AvailabilityInstance, error) {
	switch v := value.(type) {
	case []interface{}:
		return normalizeFlat(v)
	case map[string]interface{}:
		return normalizeObject(v)
	default:
		return nil, appErrors.Clone(appErrors.ErrUnrecognizedFormat, "availability payload must be a list or an object")
	}
}

// Envelope keys some producers wrap their instance lists in.
var wrapperKeys = []string{"data", "items", "results", "availability", "slots"}

func normalizeObject(obj map[string]interface{}) ([]models.AvailabilityInstance, error) {
	for _, key := range wrapperKeys {
		if inner, ok := obj[key]; ok {
			return normalizeValue(inner)
		}
	}

	// Legacy shape: every key names a weekday.
	for key := range obj {
		if !IsWeekdayName(key) {
			return nil, appErrors.Clone(appErrors.ErrUnrecognizedFormat, fmt.Sprintf("availability object has non-weekday key %q", key))
		}
	}
	if len(obj) == 0 {
		return []models.AvailabilityInstance{}, nil
	}

	instances := []models.AvailabilityInstance{}
	for key, dayValue := range obj {
		day, err := WeekdayFromName(key)
		if err != nil {
			return nil, err
		}
		slots, ok := dayValue.([]interface{})
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrUnrecognizedFormat, fmt.Sprintf("weekday %q does not hold a slot list", key))
		}
		for i, slot := range slots {
			record, ok := slot.(map[string]interface{})
			if !ok {
				return nil, appErrors.Clone(appErrors.ErrUnrecognizedFormat, fmt.Sprintf("weekday %q slot %d is not an object", key, i))
			}
			inst, err := instanceFromRecord(record)
			if err != nil {
				return nil, err
			}
			if inst.Date.IsZero() {
				inst.DayOfWeek = day
			}
			instances = append(instances, inst)
		}
	}
	return instances, nil
}

func normalizeFlat(list []interface{}) ([]models.AvailabilityInstance, error) {
	instances := []models.AvailabilityInstance{}
	for i, item := range list {
		record, ok := item.(map[string]interface{})
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrUnrecognizedFormat, fmt.Sprintf("availability record %d is not an object", i))
		}
		inst, err := instanceFromRecord(record)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

func instanceFromRecord(record map[string]interface{}) (models.AvailabilityInstance, error) {
	var inst models.AvailabilityInstance

	start, ok := stringField(record, "start_time", "startTime", "start", "from")
	if !ok {
		return inst, appErrors.Clone(appErrors.ErrUnrecognizedFormat, "record is missing a start time")
	}
	end, ok := stringField(record, "end_time", "endTime", "end", "to")
	if !ok {
		return inst, appErrors.Clone(appErrors.ErrUnrecognizedFormat, "record is missing an end time")
	}
	var err error
	if inst.StartTime, err = NormalizeClock(start); err != nil {
		return inst, err
	}
	if inst.EndTime, err = NormalizeClock(end); err != nil {
		return inst, err
	}

	if rawDate, ok := stringField(record, "date", "slot_date", "slotDate", "session_date", "sessionDate"); ok {
		date, err := parseDate(rawDate)
		if err != nil {
			return inst, err
		}
		inst.Date = date
		inst.DayOfWeek = int(date.Weekday())
	} else if day, ok, err := weekdayField(record); err != nil {
		return inst, err
	} else if ok {
		inst.DayOfWeek = day
	} else {
		return inst, appErrors.Clone(appErrors.ErrUnrecognizedFormat, "record has neither a date nor a weekday")
	}

	if tz, ok := stringField(record, "original_timezone", "originalTimezone", "timezone", "time_zone", "tz"); ok {
		inst.OriginalTimezone = tz
	}
	if tutor, ok := stringField(record, "tutor_id", "tutorId", "teacher_id", "teacherId"); ok {
		inst.TutorID = tutor
	}
	if course, ok := stringField(record, "course_id", "courseId", "subject_id", "subjectId"); ok && course != "" {
		inst.CourseID = &course
	}
	if ruleID, ok := stringField(record, "source_rule_id", "sourceRuleId", "rule_id", "ruleId", "availability_id", "availabilityId"); ok {
		inst.SourceRuleID = ruleID
	}

	return inst, nil
}

// weekdayField accepts either a numeric Sunday-first index or a weekday name.
func weekdayField(record map[string]interface{}) (int, bool, error) {
	for _, key := range []string{"day_of_week", "dayOfWeek", "weekday", "dow", "day"} {
		value, ok := record[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			day := int(v)
			if err := CheckWeekday(day); err != nil {
				return 0, false, err
			}
			return day, true, nil
		case string:
			day, err := WeekdayFromName(v)
			if err != nil {
				return 0, false, err
			}
			return day, true, nil
		}
	}
	return 0, false, nil
}

func stringField(record map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := record[key]; ok {
			if s, ok := value.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(models.DateLayout, raw); err == nil {
		return DateOnly(t), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return DateOnly(t), nil
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrUnrecognizedFormat, fmt.Sprintf("unparseable date %q", raw))
}
