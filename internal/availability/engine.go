package availability

import (
	"context"
	"errors"
	"time"

	"github.com/floorops/restaurant-reservation/internal/model"
)

// ErrShiftNotFound indicates the requested shift does not exist or belongs
// to a different restaurant.
var ErrShiftNotFound = errors.New("shift not found")

// ErrNoTables indicates the restaurant has no tables configured at all.
var ErrNoTables = errors.New("no tables for restaurant")

// ShiftSource loads a single shift.
type ShiftSource interface {
	GetShift(ctx context.Context, id uint64) (*model.Shift, error)
}

// TableSource lists every table of a restaurant.
type TableSource interface {
	TablesByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Table, error)
}

// BlockSource lists blocks whose date range touches the given date.
type BlockSource interface {
	BlocksForDate(ctx context.Context, restaurantID uint64, date time.Time) ([]model.Block, error)
}

// ReservationSource lists table ids held by non-terminal reservations whose
// time falls inside [startTime, endTime) on the given date.
type ReservationSource interface {
	ReservedTableIDs(ctx context.Context, restaurantID uint64, date time.Time, startTime, endTime string) ([]uint64, error)
}

// Engine composes the shift resolver's output, the block overlay, table
// state and existing reservations into the set of bookable tables.
type Engine struct {
	shifts       ShiftSource
	tables       TableSource
	blocks       BlockSource
	reservations ReservationSource
}

// NewEngine constructs an Engine.  All sources must be non-nil.
func NewEngine(shifts ShiftSource, tables TableSource, blocks BlockSource, reservations ReservationSource) *Engine {
	if shifts == nil || tables == nil || blocks == nil || reservations == nil {
		panic("nil source passed to availability.NewEngine")
	}
	return &Engine{shifts: shifts, tables: tables, blocks: blocks, reservations: reservations}
}

// AvailableTables returns the tables free for booking on the given date and
// shift: all tables minus blocked ones, minus tables already reserved inside
// the shift window by a non-terminal reservation, minus tables currently
// OutOfService.  A table under an active full-restaurant block is excluded
// regardless of its own reservation state.
func (e *Engine) AvailableTables(ctx context.Context, restaurantID uint64, date time.Time, shiftID uint64) ([]model.Table, error) {
	shift, err := e.shifts.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil || shift.RestaurantID != restaurantID {
		return nil, ErrShiftNotFound
	}

	tables, err := e.tables.TablesByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, ErrNoTables
	}

	blocks, err := e.blocks.BlocksForDate(ctx, restaurantID, date)
	if err != nil {
		return nil, err
	}
	blocked := NewOverlay(blocks).BlockedTableIDs(tables, date, shiftID)

	reservedIDs, err := e.reservations.ReservedTableIDs(ctx, restaurantID, date, shift.StartTime, shift.EndTime)
	if err != nil {
		return nil, err
	}
	reserved := make(map[uint64]struct{}, len(reservedIDs))
	for _, id := range reservedIDs {
		reserved[id] = struct{}{}
	}

	free := make([]model.Table, 0, len(tables))
	for _, t := range tables {
		if t.Status == model.TableOutOfService {
			continue
		}
		if _, ok := blocked[t.ID]; ok {
			continue
		}
		if _, ok := reserved[t.ID]; ok {
			continue
		}
		free = append(free, t)
	}
	return free, nil
}
