package repository

import (
	"context"
	"database/sql"

	"github.com/floorops/restaurant-reservation/internal/model"
)

// TableRepo encapsulates database operations for tables and their merge
// clusters.  Cluster mutations run inside one transaction so a half-updated
// cluster can never be observed.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo given a DB handle.
func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

const tableColumns = `id, restaurant_id, table_number, room_name, capacity, status,
	merge_group_id, locked_by, lock_reason, created_at, updated_at`

func scanTable(row interface{ Scan(...any) error }) (*model.Table, error) {
	var (
		t          model.Table
		mergeGroup sql.NullInt64
		lockedBy   sql.NullInt64
		lockReason sql.NullString
	)
	err := row.Scan(&t.ID, &t.RestaurantID, &t.TableNumber, &t.RoomName, &t.Capacity, &t.Status,
		&mergeGroup, &lockedBy, &lockReason, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if mergeGroup.Valid {
		v := uint64(mergeGroup.Int64)
		t.MergeGroupID = &v
	}
	if lockedBy.Valid {
		v := uint64(lockedBy.Int64)
		t.LockedBy = &v
	}
	if lockReason.Valid {
		t.LockReason = &lockReason.String
	}
	return &t, nil
}

// Create inserts a new table and populates its ID.  The unique key on
// (restaurant_id, table_number) surfaces as ErrConflict.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tables (restaurant_id, table_number, room_name, capacity, status)
		 VALUES (?, ?, ?, ?, ?)`,
		t.RestaurantID, t.TableNumber, t.RoomName, t.Capacity, t.Status)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// Update overwrites the editable layout columns.  Status, lock and merge
// fields change only through their dedicated operations.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tables SET table_number = ?, room_name = ?, capacity = ?
		 WHERE id = ? AND restaurant_id = ?`,
		t.TableNumber, t.RoomName, t.Capacity, t.ID, t.RestaurantID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return requireRow(res)
}

// Table loads one table by id.
func (r *TableRepo) Table(ctx context.Context, id uint64) (*model.Table, error) {
	t, err := scanTable(r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

// TablesByRestaurant lists every table of a restaurant ordered by number.
func (r *TableRepo) TablesByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Table, error) {
	return r.list(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE restaurant_id = ? ORDER BY table_number`,
		restaurantID)
}

// TablesByIDs loads the given tables; missing ids are simply absent from
// the result.
func (r *TableRepo) TablesByIDs(ctx context.Context, ids []uint64) ([]model.Table, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE id IN (`+placeholders(len(ids))+`)`,
		idArgs(ids)...)
}

// ClusterMembers lists every table carrying the given merge group id.
func (r *TableRepo) ClusterMembers(ctx context.Context, groupID uint64) ([]model.Table, error) {
	return r.list(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE merge_group_id = ?`, groupID)
}

func (r *TableRepo) list(ctx context.Context, query string, args ...any) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// MergeInto mints a merge group id and stamps it on the primary and every
// member table, marking the members OutOfService so only the primary takes
// bookings for the cluster.  All writes share one transaction.
func (r *TableRepo) MergeInto(ctx context.Context, restaurantID, primaryID uint64, memberIDs []uint64) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO merge_groups (restaurant_id) VALUES (?)`, restaurantID)
	if err != nil {
		return 0, err
	}
	groupID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE tables SET merge_group_id = ? WHERE id = ?`, groupID, primaryID); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE tables SET merge_group_id = ?, status = ? WHERE id IN (`+placeholders(len(memberIDs))+`)`,
		append([]any{groupID, model.TableOutOfService}, idArgs(memberIDs)...)...); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(groupID), nil
}

// ClearMergeGroup dissolves a cluster: every member loses its merge group
// id, and members that were OutOfService only because of the merge (not
// locked by staff) return to Available.  One transaction, all-or-nothing.
func (r *TableRepo) ClearMergeGroup(ctx context.Context, groupID uint64) error {
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

	if _, err = tx.ExecContext(ctx,
		`UPDATE tables
		 SET merge_group_id = NULL,
		     status = CASE WHEN status = ? AND locked_by IS NULL THEN ? ELSE status END
		 WHERE merge_group_id = ?`,
		model.TableOutOfService, model.TableAvailable, groupID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM merge_groups WHERE id = ?`, groupID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SetLock marks the table OutOfService and records who locked it and why.
func (r *TableRepo) SetLock(ctx context.Context, id, lockedBy uint64, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tables SET status = ?, locked_by = ?, lock_reason = ? WHERE id = ?`,
		model.TableOutOfService, lockedBy, reason, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ClearLock releases a manual lock.  The table returns to Available unless
// it is a merged-away cluster member, which stays OutOfService until the
// cluster dissolves.  The locked_by guard keeps ClearLock from touching a
// member that was never locked.
func (r *TableRepo) ClearLock(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tables SET status = CASE WHEN merge_group_id IS NULL THEN ? ELSE status END,
		        locked_by = NULL, lock_reason = NULL
		 WHERE id = ? AND locked_by IS NOT NULL`,
		model.TableAvailable, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a table row.  Reservations keep a plain FK to tables, so
// deleting a table that bookings reference surfaces as ErrConflict.
func (r *TableRepo) Delete(ctx context.Context, id, restaurantID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tables WHERE id = ? AND restaurant_id = ?`, id, restaurantID)
	if err != nil {
		if isFKViolation(err) {
			return ErrConflict
		}
		return err
	}
	return requireRow(res)
}
