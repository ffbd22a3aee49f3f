package schedule

import (
	"fmt"
	"time"

	appErrors "github.com/tutorhive/availability-api/pkg/errors"
)

// Timezone conversion operates on HH:MM clocks plus a reference calendar date.
// The date matters: a zone's UTC offset is not a constant, so the conversion
// must use the offset in force on that specific date (daylight saving).
//
// Conversions never adjust the date component. Storage is UTC time-of-day, but
// the semantic day a slot belongs to is the tutor's local day, and all date
// bookkeeping (expansion, exceptions, overrides) is keyed by that local date.
// Callers that care about a slot crossing midnight in UTC detect it with
// DayOffset.

// LocalToUTC interprets clock as wall-clock time in the given IANA zone on
// refDate and returns the equivalent UTC time of day.
func LocalToUTC(clock, zone string, refDate time.Time) (string, error) {
	loc, err := loadZone(zone)
	if err != nil {
		return "", err
	}
	minutes, err := parseClock(clock)
	if err != nil {
		return "", err
	}
	local := time.Date(refDate.Year(), refDate.Month(), refDate.Day(), minutes/60, minutes%60, 0, 0, loc)
	return local.UTC().Format("15:04"), nil
}

// UTCToLocal is the inverse of LocalToUTC.
func UTCToLocal(clock, zone string, refDate time.Time) (string, error) {
	loc, err := loadZone(zone)
	if err != nil {
		return "", err
	}
	minutes, err := parseClock(clock)
	if err != nil {
		return "", err
	}
	utc := time.Date(refDate.Year(), refDate.Month(), refDate.Day(), minutes/60, minutes%60, 0, 0, time.UTC)
	return utc.In(loc).Format("15:04"), nil
}

// ZoneAbbreviation returns the short display label ("CDT", "WIB") for the zone
// on the given date. Zones without a name yield their numeric offset form.
func ZoneAbbreviation(zone string, refDate time.Time) (string, error) {
	loc, err := loadZone(zone)
	if err != nil {
		return "", err
	}
	// Noon avoids ambiguity on transition days.
	abbr, _ := time.Date(refDate.Year(), refDate.Month(), refDate.Day(), 12, 0, 0, 0, loc).Zone()
	return abbr, nil
}

// DayOffset reports whether converting before → after crossed a calendar-day
// boundary: -1 when the converted clock fell on the previous day, +1 on the
// next day, 0 otherwise. A jump of more than half a day cannot come from any
// real UTC offset, so it identifies a wrap.
func DayOffset(before, after string) (int, error) {
	b, err := parseClock(before)
	if err != nil {
		return 0, err
	}
	a, err := parseClock(after)
	if err != nil {
		return 0, err
	}
	diff := a - b
	switch {
	case diff > minutesPerDay/2:
		return -1, nil
	case diff < -minutesPerDay/2:
		return 1, nil
	default:
		return 0, nil
	}
}

func loadZone(zone string) (*time.Location, error) {
	if zone == "" {
		return nil, appErrors.Clone(appErrors.ErrUnknownTimezone, "timezone identifier is empty")
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnknownTimezone.Code, appErrors.ErrUnknownTimezone.Status, fmt.Sprintf("unrecognized timezone %q", zone))
	}
	return loc, nil
}
