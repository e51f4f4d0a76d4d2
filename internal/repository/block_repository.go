package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/floorops/restaurant-reservation/internal/model"
)

// BlockRepo encapsulates database operations for blocks.  Scope membership
// (table and shift lists) lives in the block_tables and block_shifts join
// tables and is written together with the block row in one transaction.
type BlockRepo struct {
	db *sql.DB
}

// NewBlockRepo constructs a BlockRepo given a DB handle.
func NewBlockRepo(db *sql.DB) *BlockRepo {
	return &BlockRepo{db: db}
}

const blockColumns = `id, restaurant_id, reason, scope, room_name, start_date, end_date,
	days_active, note, is_active, created_at, updated_at`

func scanBlock(row interface{ Scan(...any) error }) (*model.Block, error) {
	var (
		b        model.Block
		roomName sql.NullString
		days     string
		note     sql.NullString
	)
	err := row.Scan(&b.ID, &b.RestaurantID, &b.Reason, &b.Scope, &roomName, &b.StartDate, &b.EndDate,
		&days, &note, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if roomName.Valid {
		b.RoomName = &roomName.String
	}
	if note.Valid {
		b.Note = &note.String
	}
	b.DaysActive = model.SplitDays(days)
	return &b, nil
}

// Create inserts the block and its join rows in one transaction.
func (r *BlockRepo) Create(ctx context.Context, b *model.Block) error {
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

	out, err := tx.ExecContext(ctx,
		`INSERT INTO blocks (restaurant_id, reason, scope, room_name, start_date, end_date,
			days_active, note, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.RestaurantID, b.Reason, b.Scope, b.RoomName,
		b.StartDate.Format(dateLayout), b.EndDate.Format(dateLayout),
		model.JoinDays(b.DaysActive), b.Note, b.IsActive)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	if err = insertBlockJoinsTx(ctx, tx, b); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update rewrites the block row and replaces its join rows.
func (r *BlockRepo) Update(ctx context.Context, b *model.Block) error {
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

	out, err := tx.ExecContext(ctx,
		`UPDATE blocks SET reason = ?, scope = ?, room_name = ?, start_date = ?, end_date = ?,
			days_active = ?, note = ?, is_active = ?
		 WHERE id = ? AND restaurant_id = ?`,
		b.Reason, b.Scope, b.RoomName,
		b.StartDate.Format(dateLayout), b.EndDate.Format(dateLayout),
		model.JoinDays(b.DaysActive), b.Note, b.IsActive, b.ID, b.RestaurantID)
	if err != nil {
		return err
	}
	if err = requireRow(out); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM block_tables WHERE block_id = ?`, b.ID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM block_shifts WHERE block_id = ?`, b.ID); err != nil {
		return err
	}
	if err = insertBlockJoinsTx(ctx, tx, b); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func insertBlockJoinsTx(ctx context.Context, tx *sql.Tx, b *model.Block) error {
	if b.Scope == model.BlockScopeTables && len(b.TableIDs) > 0 {
		query := `INSERT INTO block_tables (block_id, table_id) VALUES `
		args := make([]any, 0, len(b.TableIDs)*2)
		for i, tableID := range b.TableIDs {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, b.ID, tableID)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if len(b.ShiftIDs) > 0 {
		query := `INSERT INTO block_shifts (block_id, shift_id) VALUES `
		args := make([]any, 0, len(b.ShiftIDs)*2)
		for i, shiftID := range b.ShiftIDs {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, b.ID, shiftID)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

// GetByID loads one block with its scope membership.
func (r *BlockRepo) GetByID(ctx context.Context, id uint64) (*model.Block, error) {
	b, err := scanBlock(r.db.QueryRowContext(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err = r.loadJoins(ctx, []*model.Block{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByRestaurant returns all blocks of a restaurant with membership.
func (r *BlockRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Block, error) {
	return r.list(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE restaurant_id = ? ORDER BY start_date, id`,
		restaurantID)
}

// BlocksForDate returns the active blocks whose date range touches the
// given date.  Weekday filtering stays in the overlay so the query can use
// the (restaurant_id, start_date, end_date) index.
func (r *BlockRepo) BlocksForDate(ctx context.Context, restaurantID uint64, date time.Time) ([]model.Block, error) {
	day := date.Format(dateLayout)
	return r.list(ctx,
		`SELECT `+blockColumns+` FROM blocks
		 WHERE restaurant_id = ? AND is_active = 1 AND start_date <= ? AND end_date >= ?
		 ORDER BY id`,
		restaurantID, day, day)
}

// ListRange returns blocks overlapping [from, to], used by the calendar.
func (r *BlockRepo) ListRange(ctx context.Context, restaurantID uint64, from, to time.Time) ([]model.Block, error) {
	return r.list(ctx,
		`SELECT `+blockColumns+` FROM blocks
		 WHERE restaurant_id = ? AND start_date <= ? AND end_date >= ?
		 ORDER BY start_date, id`,
		restaurantID, to.Format(dateLayout), from.Format(dateLayout))
}

// Delete removes a block; the join rows cascade.
func (r *BlockRepo) Delete(ctx context.Context, id, restaurantID uint64) error {
	out, err := r.db.ExecContext(ctx,
		`DELETE FROM blocks WHERE id = ? AND restaurant_id = ?`, id, restaurantID)
	if err != nil {
		return err
	}
	return requireRow(out)
}

func (r *BlockRepo) list(ctx context.Context, query string, args ...any) ([]model.Block, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	ptrs := make([]*model.Block, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err = r.loadJoins(ctx, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

// loadJoins populates TableIDs and ShiftIDs for the given blocks in two
// batched queries.
func (r *BlockRepo) loadJoins(ctx context.Context, blocks []*model.Block) error {
	if len(blocks) == 0 {
		return nil
	}
	byID := make(map[uint64]*model.Block, len(blocks))
	ids := make([]uint64, 0, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
		ids = append(ids, b.ID)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT block_id, table_id FROM block_tables WHERE block_id IN (`+placeholders(len(ids))+`)`,
		idArgs(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var blockID, tableID uint64
		if err := rows.Scan(&blockID, &tableID); err != nil {
			return err
		}
		byID[blockID].TableIDs = append(byID[blockID].TableIDs, tableID)
	}
	if err = rows.Err(); err != nil {
		return err
	}

	shiftRows, err := r.db.QueryContext(ctx,
		`SELECT block_id, shift_id FROM block_shifts WHERE block_id IN (`+placeholders(len(ids))+`)`,
		idArgs(ids)...)
	if err != nil {
		return err
	}
	defer shiftRows.Close()
	for shiftRows.Next() {
		var blockID, shiftID uint64
		if err := shiftRows.Scan(&blockID, &shiftID); err != nil {
			return err
		}
		byID[blockID].ShiftIDs = append(byID[blockID].ShiftIDs, shiftID)
	}
	return shiftRows.Err()
}
