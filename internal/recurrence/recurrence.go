package recurrence

import (
	"fmt"
	"sort"
	"time"

	"gatherly/internal/models"
)

// DateKeyLayout is the canonical occurrence date format
const DateKeyLayout = "2006-01-02"

// safetyCap bounds expansion of malformed rules
const safetyCap = 500

// ParseDateKey parses a YYYY-MM-DD date key
func ParseDateKey(dateKey string) (time.Time, error) {
	t, err := time.Parse(DateKeyLayout, dateKey)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", dateKey, err)
	}
	return t, nil
}

// FormatDateKey formats a time as a date key
func FormatDateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// Expand enumerates the ascending date keys of an event's series.
// Finite series (OccurrenceCount set) are expanded fully; ongoing series are
// windowed to the horizonDays following `from`. Custom series return their
// date list.
func Expand(e *models.Event, from time.Time, horizonDays int) ([]string, error) {
	start, err := ParseDateKey(e.StartDate)
	if err != nil {
		return nil, err
	}

	var horizonEnd time.Time
	limit := safetyCap
	if e.OccurrenceCount != nil {
		if *e.OccurrenceCount < limit {
			limit = *e.OccurrenceCount
		}
	} else {
		horizonEnd = from.AddDate(0, 0, horizonDays)
	}

	switch e.RecurrenceRule {
	case models.RecurrenceNone, "":
		return []string{e.StartDate}, nil

	case models.RecurrenceCustom:
		return expandCustom(e.CustomDates)

	case models.RecurrenceWeekly:
		interval := e.RecurrenceInterval
		if interval < 1 {
			interval = 1
		}
		step := 7 * interval
		first := firstOnOrAfter(start, time.Weekday(e.RecurrenceWeekday))
		if !horizonEnd.IsZero() {
			// Ongoing series walk from the window, not the series start, so a
			// long-lived series stays expandable past the safety cap. Counted
			// series must walk from the start to honor their count.
			if days := int(dayFloor(from).Sub(first).Hours() / 24); days > 0 {
				first = first.AddDate(0, 0, (days+step-1)/step*step)
			}
		}
		var dates []string
		for d := first; len(dates) < limit; d = d.AddDate(0, 0, step) {
			if !horizonEnd.IsZero() && d.After(horizonEnd) {
				break
			}
			dates = append(dates, FormatDateKey(d))
		}
		return dates, nil

	case models.RecurrenceMonthly:
		var dates []string
		cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		if !horizonEnd.IsZero() {
			// Same windowing as weekly: ongoing series start at from's month
			if windowStart := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); windowStart.After(cursor) {
				cursor = windowStart
			}
		}
		for months := 0; len(dates) < limit && months < safetyCap; months++ {
			d, ok := nthWeekdayOfMonth(cursor.Year(), cursor.Month(), time.Weekday(e.RecurrenceWeekday), e.RecurrenceOrdinal)
			cursor = cursor.AddDate(0, 1, 0)
			if !ok || d.Before(start) {
				continue
			}
			if !horizonEnd.IsZero() && d.After(horizonEnd) {
				break
			}
			dates = append(dates, FormatDateKey(d))
		}
		return dates, nil

	default:
		return nil, fmt.Errorf("unknown recurrence rule: %s", e.RecurrenceRule)
	}
}

// IsOccurrence reports whether dateKey is a date the event's series produces.
// Ongoing series are checked without a horizon so far-future signups on valid
// dates are accepted.
func IsOccurrence(e *models.Event, dateKey string) (bool, error) {
	target, err := ParseDateKey(dateKey)
	if err != nil {
		return false, err
	}

	// Expand to a window covering the target; finite series are fully expanded
	// either way.
	horizon := int(target.Sub(time.Now().UTC()).Hours()/24) + 7
	if horizon < 7 {
		horizon = 7
	}
	dates, err := Expand(e, time.Now().UTC(), horizon)
	if err != nil {
		return false, err
	}
	for _, d := range dates {
		if d == dateKey {
			return true, nil
		}
	}
	return false, nil
}

// Upcoming filters expanded dates to those on or after `from`
func Upcoming(e *models.Event, from time.Time, horizonDays int) ([]string, error) {
	dates, err := Expand(e, from, horizonDays)
	if err != nil {
		return nil, err
	}
	fromKey := FormatDateKey(from)
	var upcoming []string
	for _, d := range dates {
		if d >= fromKey {
			upcoming = append(upcoming, d)
		}
	}
	return upcoming, nil
}

// expandCustom sorts and dedups an explicit date list
func expandCustom(customDates []string) ([]string, error) {
	seen := make(map[string]bool)
	var dates []string
	for _, d := range customDates {
		if _, err := ParseDateKey(d); err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

// dayFloor truncates t to its UTC calendar date
func dayFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// firstOnOrAfter returns the first date with the given weekday on or after t
func firstOnOrAfter(t time.Time, weekday time.Weekday) time.Time {
	offset := (int(weekday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset)
}

// nthWeekdayOfMonth returns the nth (1..4, or -1 for last) weekday of a month.
// ok is false when the month has no such day (e.g. a fifth Friday).
func nthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, ordinal int) (time.Time, bool) {
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	if ordinal == -1 {
		lastOfMonth := firstOfMonth.AddDate(0, 1, -1)
		offset := (int(lastOfMonth.Weekday()) - int(weekday) + 7) % 7
		return lastOfMonth.AddDate(0, 0, -offset), true
	}

	if ordinal < 1 || ordinal > 4 {
		return time.Time{}, false
	}

	first := firstOnOrAfter(firstOfMonth, weekday)
	d := first.AddDate(0, 0, 7*(ordinal-1))
	if d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}
