// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation reaches the
// Confirmed status.  It carries enough information for downstream consumers
// to log or notify without querying the primary database.  Delivery is
// best-effort: a publish failure never rolls back the reservation write.
type ReservationConfirmedEvent struct {
	ReservationID uint64  `json:"reservation_id"`
	RestaurantID  uint64  `json:"restaurant_id"`
	TableID       *uint64 `json:"table_id,omitempty"`
	ShiftID       uint64  `json:"shift_id"`
	ShiftName     string  `json:"shift_name"`
	Date          string  `json:"date"` // YYYY-MM-DD
	Time          string  `json:"time"` // HH:MM
	PartySize     uint32  `json:"party_size"`
	GuestName     string  `json:"guest_name"`
	ConfirmedAt   string  `json:"confirmed_at"`
}
