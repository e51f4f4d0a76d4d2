package model

import (
	"strings"
	"time"
)

// Shift types. Recurring shifts repeat on a set of weekdays; Special shifts
// apply only inside their start/end date range.
const (
	ShiftTypeRecurring = "Recurring"
	ShiftTypeSpecial   = "Special"
)

// Shift represents a named service window (e.g. "Dinner 18:00-22:00") that
// reservations are classified under.  This struct corresponds to a row in
// the `shifts` table.  StartTime and EndTime are "HH:MM" strings local to
// the restaurant; no timezone conversion is applied.  StartTime must be
// strictly before EndTime within a single day - overnight wraparound is not
// supported.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – restaurant that owns this shift.
//  Name         – display name of the shift.
//  Type         – Recurring or Special.
//  DaysActive   – weekday names the shift runs on (Recurring only).
//  StartDate    – first date the shift applies (Special only, inclusive).
//  EndDate      – last date the shift applies (Special only, inclusive).
//  StartTime    – daily opening time "HH:MM".
//  EndTime      – daily closing time "HH:MM".
//  SlotInterval – booking granularity in minutes.
//  BufferTime   – turnover buffer in minutes.
//  MinPartySize – smallest bookable party.
//  MaxPartySize – largest bookable party.
//  IsActive     – soft-disable flag; inactive shifts never match.
type Shift struct {
	ID           uint64     // shifts.id
	RestaurantID uint64     // shifts.restaurant_id
	Name         string     // shifts.name
	Type         string     // shifts.type
	DaysActive   []string   // shifts.days_active (CSV in the DB)
	StartDate    *time.Time // shifts.start_date (nullable)
	EndDate      *time.Time // shifts.end_date (nullable)
	StartTime    string     // shifts.start_time "HH:MM"
	EndTime      string     // shifts.end_time "HH:MM"
	SlotInterval uint32     // shifts.slot_interval
	BufferTime   uint32     // shifts.buffer_time
	MinPartySize uint32     // shifts.min_party_size
	MaxPartySize uint32     // shifts.max_party_size
	IsActive     bool       // shifts.is_active
	CreatedAt    time.Time  // shifts.created_at
	UpdatedAt    time.Time  // shifts.updated_at
}

// RunsOn reports whether a Recurring shift is active on the given weekday
// name ("Monday"..."Sunday"). Comparison is case-insensitive.
func (s *Shift) RunsOn(weekday string) bool {
	for _, d := range s.DaysActive {
		if strings.EqualFold(d, weekday) {
			return true
		}
	}
	return false
}

// JoinDays serializes a weekday list to the CSV form stored in the DB.
func JoinDays(days []string) string { return strings.Join(days, ",") }

// SplitDays parses the CSV days_active column back into a slice.  An empty
// column yields an empty slice, not a one-element slice of "".
func SplitDays(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return []string{}
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
