package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/floorops/restaurant-reservation/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tbl(id uint64, room string) model.Table {
	return model.Table{ID: id, RestaurantID: 1, RoomName: room, Status: model.TableAvailable}
}

func TestOverlayExplicitTables(t *testing.T) {
	b := model.Block{
		ID: 1, RestaurantID: 1, Scope: model.BlockScopeTables,
		TableIDs:  []uint64{10},
		StartDate: day(2024, time.June, 10), EndDate: day(2024, time.June, 12),
		IsActive: true,
	}
	o := NewOverlay([]model.Block{b})
	t1 := tbl(10, "Main Dining")
	t2 := tbl(11, "Main Dining")

	assert.True(t, o.IsBlocked(&t1, day(2024, time.June, 11), 0))
	assert.False(t, o.IsBlocked(&t2, day(2024, time.June, 11), 0))
	// Outside the range the block no longer applies.
	assert.False(t, o.IsBlocked(&t1, day(2024, time.June, 13), 0))
}

func TestOverlayFullRestaurantShortCircuits(t *testing.T) {
	b := model.Block{
		ID: 1, RestaurantID: 1, Scope: model.BlockScopeFull,
		StartDate: day(2024, time.June, 10), EndDate: day(2024, time.June, 10),
		IsActive: true,
	}
	o := NewOverlay([]model.Block{b})
	tables := []model.Table{tbl(1, "Bar"), tbl(2, "Terrace"), tbl(3, "Main Dining")}

	assert.True(t, o.FullBlock(day(2024, time.June, 10), 0))
	blocked := o.BlockedTableIDs(tables, day(2024, time.June, 10), 0)
	assert.Len(t, blocked, 3)
}

func TestOverlayRoomScope(t *testing.T) {
	room := "Terrace"
	b := model.Block{
		ID: 1, RestaurantID: 1, Scope: model.BlockScopeRoom, RoomName: &room,
		StartDate: day(2024, time.June, 1), EndDate: day(2024, time.June, 30),
		IsActive: true,
	}
	o := NewOverlay([]model.Block{b})
	terrace := tbl(4, "Terrace")
	bar := tbl(5, "Bar")

	assert.True(t, o.IsBlocked(&terrace, day(2024, time.June, 15), 0))
	assert.False(t, o.IsBlocked(&bar, day(2024, time.June, 15), 0))
}

func TestOverlayDaysActiveSubset(t *testing.T) {
	b := model.Block{
		ID: 1, RestaurantID: 1, Scope: model.BlockScopeFull,
		StartDate: day(2024, time.June, 1), EndDate: day(2024, time.June, 30),
		DaysActive: []string{"Monday"},
		IsActive:   true,
	}
	o := NewOverlay([]model.Block{b})

	assert.True(t, o.FullBlock(day(2024, time.June, 10), 0))  // Monday
	assert.False(t, o.FullBlock(day(2024, time.June, 11), 0)) // Tuesday
}

func TestOverlayInactiveBlockIgnored(t *testing.T) {
	b := model.Block{
		ID: 1, RestaurantID: 1, Scope: model.BlockScopeFull,
		StartDate: day(2024, time.June, 10), EndDate: day(2024, time.June, 10),
		IsActive: false,
	}
	o := NewOverlay([]model.Block{b})
	assert.False(t, o.FullBlock(day(2024, time.June, 10), 0))
}

func TestOverlayShiftRestriction(t *testing.T) {
	b := model.Block{
		ID: 1, RestaurantID: 1, Scope: model.BlockScopeFull,
		ShiftIDs:  []uint64{7},
		StartDate: day(2024, time.June, 10), EndDate: day(2024, time.June, 10),
		IsActive: true,
	}
	o := NewOverlay([]model.Block{b})

	assert.True(t, o.FullBlock(day(2024, time.June, 10), 7))
	assert.False(t, o.FullBlock(day(2024, time.June, 10), 8))
	// shiftID zero means "no shift filter": the block still applies.
	assert.True(t, o.FullBlock(day(2024, time.June, 10), 0))
}
