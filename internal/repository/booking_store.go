package repository

// BookingStore combines the shift, table and reservation repositories into
// the single persistence surface the booking manager drives: shift lookup
// for resolution, table lookup for restaurant scoping, and the
// conflict-gated reservation writes.
type BookingStore struct {
	*ShiftRepo
	*TableRepo
	*ReservationRepo
}

// NewBookingStore constructs a BookingStore over one DB handle's repos.
func NewBookingStore(shifts *ShiftRepo, tables *TableRepo, reservations *ReservationRepo) *BookingStore {
	return &BookingStore{ShiftRepo: shifts, TableRepo: tables, ReservationRepo: reservations}
}
