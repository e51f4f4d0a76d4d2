package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/floorops/restaurant-reservation/internal/model"
)

// ReservationRepo encapsulates database operations for reservations.  The
// slot-writing methods (Insert, UpdateSlot) hold the double-booking
// invariant: at most one non-terminal reservation per (table, date, time).
// MySQL cannot express a partial unique index over non-terminal statuses, so
// each write locks the target table row with SELECT ... FOR UPDATE, re-runs
// the conflict query and inserts inside one transaction.  Concurrent
// identical requests serialize on the row lock and the loser gets
// ErrTableConflict.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo constructs a ReservationRepo given a DB handle.
func NewReservationRepo(db *sql.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

const reservationColumns = `id, restaurant_id, table_id, shift_id, res_date, res_time,
	party_size, status, guest_name, guest_email, guest_phone, notes, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var (
		res     model.Reservation
		tableID sql.NullInt64
		email   sql.NullString
		phone   sql.NullString
		notes   sql.NullString
	)
	err := row.Scan(&res.ID, &res.RestaurantID, &tableID, &res.ShiftID, &res.Date, &res.Time,
		&res.PartySize, &res.Status, &res.GuestName, &email, &phone, &notes, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tableID.Valid {
		v := uint64(tableID.Int64)
		res.TableID = &v
	}
	if email.Valid {
		res.GuestEmail = &email.String
	}
	if phone.Valid {
		res.GuestPhone = &phone.String
	}
	if notes.Valid {
		res.Notes = &notes.String
	}
	return &res, nil
}

// lockTableRowTx takes the InnoDB row lock that serializes conflicting
// bookings for one table.  ErrNotFound when the table does not exist.
func lockTableRowTx(ctx context.Context, tx *sql.Tx, tableID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM tables WHERE id = ? FOR UPDATE`, tableID).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}

// slotTakenTx reports whether a non-terminal reservation other than
// excludeID already occupies the (table, date, time) slot.  Must run after
// lockTableRowTx in the same transaction.
func slotTakenTx(ctx context.Context, tx *sql.Tx, tableID uint64, date time.Time, hhmm string, excludeID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE table_id = ? AND res_date = ? AND res_time = ?
		   AND status NOT IN (?, ?, ?) AND id <> ?`,
		tableID, date.Format(dateLayout), hhmm,
		model.ResCanceled, model.ResNoShow, model.ResFinished, excludeID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert persists a new reservation.  When a table is assigned the write is
// gated on the conflict check under the table row lock; a reservation
// created directly as Confirmed also marks the table Reserved in the same
// transaction.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if res.TableID != nil {
		if err = lockTableRowTx(ctx, tx, *res.TableID); err != nil {
			return err
		}
		taken, err := slotTakenTx(ctx, tx, *res.TableID, res.Date, res.Time, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrTableConflict
		}
	}

	out, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (restaurant_id, table_id, shift_id, res_date, res_time,
			party_size, status, guest_name, guest_email, guest_phone, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RestaurantID, nullID(res.TableID), res.ShiftID, res.Date.Format(dateLayout), res.Time,
		res.PartySize, res.Status, res.GuestName, res.GuestEmail, res.GuestPhone, res.Notes)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	if res.Status == model.ResConfirmed && res.TableID != nil {
		if _, err = tx.ExecContext(ctx,
			`UPDATE tables SET status = ? WHERE id = ? AND locked_by IS NULL`,
			model.TableReserved, *res.TableID); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateSlot moves a reservation to a new table, date or time, re-running
// the conflict check (excluding the reservation's own row) under the new
// table's row lock.
func (r *ReservationRepo) UpdateSlot(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if res.TableID != nil {
		if err = lockTableRowTx(ctx, tx, *res.TableID); err != nil {
			return err
		}
		taken, err := slotTakenTx(ctx, tx, *res.TableID, res.Date, res.Time, res.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrTableConflict
		}
	}

	out, err := tx.ExecContext(ctx,
		`UPDATE reservations SET table_id = ?, shift_id = ?, res_date = ?, res_time = ?
		 WHERE id = ?`,
		nullID(res.TableID), res.ShiftID, res.Date.Format(dateLayout), res.Time, res.ID)
	if err != nil {
		return err
	}
	if err = requireRow(out); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SetStatus updates the reservation status and applies the table
// side-effect (Reserved, Seated or back to Available) in one transaction.
// tableStatus may be empty to leave the table untouched.  A table locked
// by staff keeps its lock regardless.
func (r *ReservationRepo) SetStatus(ctx context.Context, id uint64, status, tableStatus string) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	out, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return nil, err
	}
	if err = requireRow(out); err != nil {
		return nil, err
	}

	res, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	if tableStatus != "" && res.TableID != nil {
		if _, err = tx.ExecContext(ctx,
			`UPDATE tables SET status = ? WHERE id = ? AND locked_by IS NULL`,
			tableStatus, *res.TableID); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}

// UpdateDetails edits the guest-facing fields without touching the slot.
func (r *ReservationRepo) UpdateDetails(ctx context.Context, res *model.Reservation) error {
	out, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET party_size = ?, guest_name = ?, guest_email = ?,
			guest_phone = ?, notes = ?
		 WHERE id = ?`,
		res.PartySize, res.GuestName, res.GuestEmail, res.GuestPhone, res.Notes, res.ID)
	if err != nil {
		return err
	}
	return requireRow(out)
}

// Reservation loads one reservation by id.
func (r *ReservationRepo) Reservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return res, err
}

// ListForDay returns a restaurant's reservations, optionally filtered to
// one date, ordered by time then id.
func (r *ReservationRepo) ListForDay(ctx context.Context, restaurantID uint64, date *time.Time) ([]model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE restaurant_id = ?`
	args := []any{restaurantID}
	if date != nil {
		query += ` AND res_date = ?`
		args = append(args, date.Format(dateLayout))
	}
	query += ` ORDER BY res_date, res_time, id`
	return r.list(ctx, query, args...)
}

// ListRange returns reservations whose date falls in [from, to], used by
// the calendar view.
func (r *ReservationRepo) ListRange(ctx context.Context, restaurantID uint64, from, to time.Time) ([]model.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE restaurant_id = ? AND res_date BETWEEN ? AND ?
		 ORDER BY res_date, res_time, id`,
		restaurantID, from.Format(dateLayout), to.Format(dateLayout))
}

// ReservedTableIDs lists the table ids held by non-terminal reservations
// whose time falls inside [startTime, endTime) on the given date.  "HH:MM"
// strings compare correctly as text.
func (r *ReservationRepo) ReservedTableIDs(ctx context.Context, restaurantID uint64, date time.Time, startTime, endTime string) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT table_id FROM reservations
		 WHERE restaurant_id = ? AND res_date = ? AND table_id IS NOT NULL
		   AND res_time >= ? AND res_time < ?
		   AND status NOT IN (?, ?, ?)`,
		restaurantID, date.Format(dateLayout), startTime, endTime,
		model.ResCanceled, model.ResNoShow, model.ResFinished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ActiveCountByShift counts non-terminal reservations referencing a shift,
// used to refuse shift deletion while bookings depend on it.
func (r *ReservationRepo) ActiveCountByShift(ctx context.Context, shiftID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE shift_id = ? AND status NOT IN (?, ?, ?)`,
		shiftID, model.ResCanceled, model.ResNoShow, model.ResFinished).Scan(&n)
	return n, err
}

// Delete removes a reservation row.
func (r *ReservationRepo) Delete(ctx context.Context, id, restaurantID uint64) error {
	out, err := r.db.ExecContext(ctx,
		`DELETE FROM reservations WHERE id = ? AND restaurant_id = ?`, id, restaurantID)
	if err != nil {
		return err
	}
	return requireRow(out)
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
