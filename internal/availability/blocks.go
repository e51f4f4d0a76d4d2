// Package availability answers "which tables are free for this party, at
// this time" by composing the block overlay, table state and existing
// reservations for a resolved shift.
package availability

import (
	"time"

	"github.com/floorops/restaurant-reservation/internal/model"
)

// blockCoversDate reports whether the block's date range and optional
// weekday subset include the given calendar date.  DaysActive empty means
// the block applies on every day of its range.
func blockCoversDate(b *model.Block, date time.Time) bool {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(b.StartDate.Year(), b.StartDate.Month(), b.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(b.EndDate.Year(), b.EndDate.Month(), b.EndDate.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(start) || day.After(end) {
		return false
	}
	if len(b.DaysActive) == 0 {
		return true
	}
	weekday := day.Weekday().String()
	for _, d := range b.DaysActive {
		if d == weekday {
			return true
		}
	}
	return false
}

// blockCoversShift reports whether the block restricts the given shift.  An
// empty ShiftIDs list means the block applies to every shift.  shiftID zero
// means the caller is not filtering by shift.
func blockCoversShift(b *model.Block, shiftID uint64) bool {
	if len(b.ShiftIDs) == 0 || shiftID == 0 {
		return true
	}
	for _, id := range b.ShiftIDs {
		if id == shiftID {
			return true
		}
	}
	return false
}

// Overlay evaluates a set of loaded blocks against tables and dates.  It
// holds no state beyond the block slice, so one Overlay can serve every
// table on a floor for a single availability query.
type Overlay struct {
	blocks []model.Block
}

// NewOverlay wraps the given blocks.  Inactive blocks are dropped up front.
func NewOverlay(blocks []model.Block) *Overlay {
	active := make([]model.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.IsActive {
			active = append(active, b)
		}
	}
	return &Overlay{blocks: active}
}

// FullBlock reports whether a whole-restaurant block covers the date and
// shift.  Full blocks short-circuit availability: every table is blocked
// without enumerating table ids.
func (o *Overlay) FullBlock(date time.Time, shiftID uint64) bool {
	for i := range o.blocks {
		b := &o.blocks[i]
		if b.Scope == model.BlockScopeFull && blockCoversDate(b, date) && blockCoversShift(b, shiftID) {
			return true
		}
	}
	return false
}

// IsBlocked reports whether one table is suppressed on the given date.  A
// block applies when it is active, the date falls inside its range, and the
// table is in scope: whole restaurant, the table's room, or the explicit
// table list.
func (o *Overlay) IsBlocked(table *model.Table, date time.Time, shiftID uint64) bool {
	for i := range o.blocks {
		b := &o.blocks[i]
		if !blockCoversDate(b, date) || !blockCoversShift(b, shiftID) {
			continue
		}
		switch b.Scope {
		case model.BlockScopeFull:
			return true
		case model.BlockScopeRoom:
			if b.RoomName != nil && *b.RoomName == table.RoomName {
				return true
			}
		case model.BlockScopeTables:
			for _, id := range b.TableIDs {
				if id == table.ID {
					return true
				}
			}
		}
	}
	return false
}

// BlockedTableIDs returns the set of table ids suppressed on the given date
// and shift.  When a full-restaurant block applies, every table id is
// returned via the short-circuit path.
func (o *Overlay) BlockedTableIDs(tables []model.Table, date time.Time, shiftID uint64) map[uint64]struct{} {
	out := make(map[uint64]struct{})
	if o.FullBlock(date, shiftID) {
		for _, t := range tables {
			out[t.ID] = struct{}{}
		}
		return out
	}
	for i := range tables {
		if o.IsBlocked(&tables[i], date, shiftID) {
			out[tables[i].ID] = struct{}{}
		}
	}
	return out
}
