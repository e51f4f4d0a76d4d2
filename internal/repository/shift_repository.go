package repository

import (
	"context"
	"database/sql"

	"github.com/floorops/restaurant-reservation/internal/model"
)

// ShiftRepo encapsulates database operations for shifts.
type ShiftRepo struct {
	db *sql.DB
}

// NewShiftRepo constructs a ShiftRepo given a DB handle.
func NewShiftRepo(db *sql.DB) *ShiftRepo {
	return &ShiftRepo{db: db}
}

const shiftColumns = `id, restaurant_id, name, type, days_active, start_date, end_date,
	start_time, end_time, slot_interval, buffer_time, min_party_size, max_party_size,
	is_active, created_at, updated_at`

func scanShift(row interface{ Scan(...any) error }) (*model.Shift, error) {
	var (
		s         model.Shift
		days      string
		startDate sql.NullTime
		endDate   sql.NullTime
	)
	err := row.Scan(&s.ID, &s.RestaurantID, &s.Name, &s.Type, &days, &startDate, &endDate,
		&s.StartTime, &s.EndTime, &s.SlotInterval, &s.BufferTime, &s.MinPartySize, &s.MaxPartySize,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.DaysActive = model.SplitDays(days)
	if startDate.Valid {
		s.StartDate = &startDate.Time
	}
	if endDate.Valid {
		s.EndDate = &endDate.Time
	}
	return &s, nil
}

// Create inserts a new shift and populates its ID.
func (r *ShiftRepo) Create(ctx context.Context, s *model.Shift) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO shifts (restaurant_id, name, type, days_active, start_date, end_date,
			start_time, end_time, slot_interval, buffer_time, min_party_size, max_party_size, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RestaurantID, s.Name, s.Type, model.JoinDays(s.DaysActive), nullDate(s.StartDate), nullDate(s.EndDate),
		s.StartTime, s.EndTime, s.SlotInterval, s.BufferTime, s.MinPartySize, s.MaxPartySize, s.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Update overwrites every editable column of the shift.
func (r *ShiftRepo) Update(ctx context.Context, s *model.Shift) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shifts SET name = ?, type = ?, days_active = ?, start_date = ?, end_date = ?,
			start_time = ?, end_time = ?, slot_interval = ?, buffer_time = ?,
			min_party_size = ?, max_party_size = ?, is_active = ?
		 WHERE id = ? AND restaurant_id = ?`,
		s.Name, s.Type, model.JoinDays(s.DaysActive), nullDate(s.StartDate), nullDate(s.EndDate),
		s.StartTime, s.EndTime, s.SlotInterval, s.BufferTime,
		s.MinPartySize, s.MaxPartySize, s.IsActive, s.ID, s.RestaurantID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetShift loads one shift by id.
func (r *ShiftRepo) GetShift(ctx context.Context, id uint64) (*model.Shift, error) {
	s, err := scanShift(r.db.QueryRowContext(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

// ActiveShifts returns every active shift of the restaurant, ordered by id
// so nearest-match tie-breaking downstream is deterministic.
func (r *ShiftRepo) ActiveShifts(ctx context.Context, restaurantID uint64) ([]model.Shift, error) {
	return r.list(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE restaurant_id = ? AND is_active = 1 ORDER BY id`,
		restaurantID)
}

// ListByRestaurant returns all shifts of a restaurant, active or not.
func (r *ShiftRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Shift, error) {
	return r.list(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE restaurant_id = ? ORDER BY id`,
		restaurantID)
}

func (r *ShiftRepo) list(ctx context.Context, query string, args ...any) ([]model.Shift, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Delete removes a shift row.  Callers must first verify no non-terminal
// reservation still references the shift; the schema has no FK for it.
func (r *ShiftRepo) Delete(ctx context.Context, id, restaurantID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM shifts WHERE id = ? AND restaurant_id = ?`, id, restaurantID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
