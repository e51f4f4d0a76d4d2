package model

import "time"

// Restaurant is relevant here only as the partition key every other entity
// is scoped by.  This struct corresponds to a row in the `restaurants` table.
type Restaurant struct {
	ID        uint64    // restaurants.id
	Name      string    // restaurants.name
	Phone     *string   // restaurants.phone (nullable)
	Email     *string   // restaurants.email (nullable)
	CreatedAt time.Time // restaurants.created_at
	UpdatedAt time.Time // restaurants.updated_at
}
