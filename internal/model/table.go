package model

import "time"

// Table statuses.  A table is OutOfService either because staff locked it
// (LockedBy/LockReason are set) or because it was merged away into a
// cluster; the two causes are distinguished by MergeGroupID.
const (
	TableAvailable    = "Available"
	TableReserved     = "Reserved"
	TableSeated       = "Seated"
	TableOutOfService = "OutOfService"
)

// Table describes a physical table on the restaurant floor.  Tables are
// uniquely identified by (restaurant_id, table_number).  Merged tables share
// one MergeGroupID; membership of the cluster is looked up by that id rather
// than stored as a peer list on every row, so a merge or unmerge can never
// leave the cluster in a half-updated state.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – restaurant that owns the table.
//  TableNumber  – human label, unique per restaurant.
//  RoomName     – dining area the table sits in.
//  Capacity     – seat count.
//  Status       – Available, Reserved, Seated or OutOfService.
//  MergeGroupID – cluster id when merged (nil otherwise).
//  LockedBy     – staff user who locked the table (nil when not locked).
//  LockReason   – free-text reason recorded at lock time.
type Table struct {
	ID           uint64    // tables.id
	RestaurantID uint64    // tables.restaurant_id
	TableNumber  string    // tables.table_number
	RoomName     string    // tables.room_name
	Capacity     uint32    // tables.capacity
	Status       string    // tables.status
	MergeGroupID *uint64   // tables.merge_group_id (nullable)
	LockedBy     *uint64   // tables.locked_by (nullable)
	LockReason   *string   // tables.lock_reason (nullable)
	CreatedAt    time.Time // tables.created_at
	UpdatedAt    time.Time // tables.updated_at
}

// IsJoined reports whether the table currently belongs to a merge cluster.
func (t *Table) IsJoined() bool { return t.MergeGroupID != nil }
