package model

import "time"

// Block scopes.  Exactly one scope mode applies per block: the whole
// restaurant, one named room, or an explicit table list.
const (
	BlockScopeFull   = "FULL"
	BlockScopeRoom   = "ROOM"
	BlockScopeTables = "TABLES"
)

// Block is an administratively defined suppression interval during which
// some or all tables cannot be booked (maintenance, private events).  Blocks
// are consulted read-only by the availability engine and never mutated by
// the booking flow.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – restaurant the block belongs to.
//  Reason       – why the block exists.
//  Scope        – FULL, ROOM or TABLES.
//  RoomName     – room restricted by a ROOM block.
//  TableIDs     – tables restricted by a TABLES block.
//  ShiftIDs     – optional shift restriction; empty means all shifts.
//  StartDate    – first blocked date (inclusive).
//  EndDate      – last blocked date (inclusive).
//  DaysActive   – optional recurring weekday subset within the range.
//  IsActive     – soft enable/disable.
type Block struct {
	ID           uint64    // blocks.id
	RestaurantID uint64    // blocks.restaurant_id
	Reason       string    // blocks.reason
	Scope        string    // blocks.scope
	RoomName     *string   // blocks.room_name (ROOM scope only)
	TableIDs     []uint64  // block_tables rows (TABLES scope only)
	ShiftIDs     []uint64  // block_shifts rows
	StartDate    time.Time // blocks.start_date
	EndDate      time.Time // blocks.end_date
	DaysActive   []string  // blocks.days_active (CSV in the DB)
	Note         *string   // blocks.note (nullable)
	IsActive     bool      // blocks.is_active
	CreatedAt    time.Time // blocks.created_at
	UpdatedAt    time.Time // blocks.updated_at
}
