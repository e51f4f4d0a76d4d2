package model

import "time"

// Reservation statuses.  Canceled, No-show and Finished are terminal: they
// free the table slot and can never be changed again.
const (
	ResPending   = "Pending"
	ResConfirmed = "Confirmed"
	ResSeated    = "Seated"
	ResCanceled  = "Canceled"
	ResNoShow    = "No-show"
	ResFinished  = "Finished"
)

// TerminalStatuses lists the statuses excluded from the double-booking
// conflict set.
var TerminalStatuses = []string{ResCanceled, ResNoShow, ResFinished}

// IsTerminalStatus reports whether a status occupies no table slot.
func IsTerminalStatus(s string) bool {
	return s == ResCanceled || s == ResNoShow || s == ResFinished
}

// Reservation records a guest booking for a table at a given date and time.
// TableID is nullable: a reservation with no table is waitlisted and takes
// part in no conflict checks.  ShiftID caches the shift resolved at creation
// and is only recomputed when the date or time changes.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – restaurant the booking belongs to.
//  TableID      – assigned table, nil when waitlisted.
//  ShiftID      – shift the booking was classified under.
//  Date         – calendar date (time-of-day stripped).
//  Time         – "HH:MM" local clock time.
//  PartySize    – number of guests.
//  Status       – Pending, Confirmed, Seated, Canceled, No-show or Finished.
//  GuestName    – primary contact name.
//  GuestEmail   – optional contact email.
//  GuestPhone   – optional contact phone.
//  Notes        – free-text staff notes.
type Reservation struct {
	ID           uint64    // reservations.id
	RestaurantID uint64    // reservations.restaurant_id
	TableID      *uint64   // reservations.table_id (nullable)
	ShiftID      uint64    // reservations.shift_id
	Date         time.Time // reservations.res_date
	Time         string    // reservations.res_time "HH:MM"
	PartySize    uint32    // reservations.party_size
	Status       string    // reservations.status
	GuestName    string    // reservations.guest_name
	GuestEmail   *string   // reservations.guest_email (nullable)
	GuestPhone   *string   // reservations.guest_phone (nullable)
	Notes        *string   // reservations.notes (nullable)
	CreatedAt    time.Time // reservations.created_at
	UpdatedAt    time.Time // reservations.updated_at
}
