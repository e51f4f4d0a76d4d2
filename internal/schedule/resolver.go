// Package schedule classifies a reservation date and clock time under the
// shift that governs that moment.  It operates on shifts already loaded from
// the repository layer so the matching rules stay pure and testable.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/floorops/restaurant-reservation/internal/model"
)

// NearestTolerance is how far outside every shift's nominal window a
// reservation may fall and still be attached to the closest shift.  Callers
// must surface this to clients: a booking up to 60 minutes before a shift
// opens (or after it closes) succeeds as a best-effort assignment.
const NearestTolerance = 60

// ErrNoShiftsForDay is returned when no active shift is configured for the
// requested weekday or date range.
var ErrNoShiftsForDay = errors.New("no shifts available for this day")

// ErrOutsideShiftWindow is returned when the requested time is more than
// NearestTolerance minutes away from every candidate shift's start.
var ErrOutsideShiftWindow = errors.New("reservation time is outside all shift timings")

// Result reports which shift was selected and whether the match was exact
// containment or the nearest-start fallback.
type Result struct {
	Shift   *model.Shift
	Nearest bool
}

// ParseClock converts an "HH:MM" string to minutes since midnight.  It
// rejects malformed input and out-of-range components.
func ParseClock(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	return h*60 + m, nil
}

// Candidates filters shifts down to those that could govern the given date:
// active Recurring shifts whose weekday list contains the date's weekday,
// plus active Special shifts whose inclusive date range covers it.
func Candidates(shifts []model.Shift, date time.Time) []model.Shift {
	weekday := date.Weekday().String()
	day := truncateToDay(date)
	out := make([]model.Shift, 0, len(shifts))
	for _, s := range shifts {
		if !s.IsActive {
			continue
		}
		switch s.Type {
		case model.ShiftTypeRecurring:
			if s.RunsOn(weekday) {
				out = append(out, s)
			}
		case model.ShiftTypeSpecial:
			if s.StartDate == nil || s.EndDate == nil {
				continue
			}
			if !day.Before(truncateToDay(*s.StartDate)) && !day.After(truncateToDay(*s.EndDate)) {
				out = append(out, s)
			}
		}
	}
	return out
}

// Resolve picks the shift governing the given date and "HH:MM" time.
//
// An exact match means startMinutes <= t < endMinutes: the interval is
// half-open, so a reservation exactly at a shift's end time does not belong
// to it.  When no shift contains the time, the candidate whose start is
// closest wins, provided the distance is within NearestTolerance; candidates
// are scanned in ascending shift-id order so distance ties resolve
// deterministically to the lowest id.
func Resolve(shifts []model.Shift, date time.Time, hhmm string) (Result, error) {
	cands := Candidates(shifts, date)
	if len(cands) == 0 {
		return Result{}, ErrNoShiftsForDay
	}
	t, err := ParseClock(hhmm)
	if err != nil {
		return Result{}, err
	}

	sort.Slice(cands, func(i, j int) bool { return cands[i].ID < cands[j].ID })

	for i := range cands {
		start, err := ParseClock(cands[i].StartTime)
		if err != nil {
			continue
		}
		end, err := ParseClock(cands[i].EndTime)
		if err != nil {
			continue
		}
		if t >= start && t < end {
			return Result{Shift: &cands[i]}, nil
		}
	}

	// Nearest-start fallback.
	best := -1
	bestDiff := 0
	for i := range cands {
		start, err := ParseClock(cands[i].StartTime)
		if err != nil {
			continue
		}
		diff := t - start
		if diff < 0 {
			diff = -diff
		}
		if best == -1 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	if best == -1 || bestDiff > NearestTolerance {
		return Result{}, ErrOutsideShiftWindow
	}
	return Result{Shift: &cands[best], Nearest: true}, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
