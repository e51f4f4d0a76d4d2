// Package floor manages the physical table layout: merge clusters for large
// parties and manual out-of-service locks.
package floor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/floorops/restaurant-reservation/internal/metrics"
	"github.com/floorops/restaurant-reservation/internal/model"
)

// ErrMergeTooFew is returned when fewer than two tables are asked to merge.
var ErrMergeTooFew = errors.New("merge needs at least two tables")

// ErrCrossRestaurant is returned when the tables of a merge belong to more
// than one restaurant.
var ErrCrossRestaurant = errors.New("tables belong to different restaurants")

// ErrAlreadyMerged is returned when a table in a merge request already
// belongs to a cluster.
var ErrAlreadyMerged = errors.New("table already belongs to a merge cluster")

// ErrNotMerged is returned when unmerge targets a table outside any cluster.
var ErrNotMerged = errors.New("table is not merged")

// ErrSeatedConflict is returned when an unmerge would break up a cluster
// with a seated guest and force was not supplied.
var ErrSeatedConflict = errors.New("cluster has a seated table")

// ErrAlreadyOccupied is returned when a lock targets a Reserved or Seated
// table without force.
var ErrAlreadyOccupied = errors.New("table is reserved or seated")

// ErrNotLocked is returned when unlock targets a table that is not
// OutOfService.
var ErrNotLocked = errors.New("table is not locked")

// Store is the persistence surface for table layout changes.  MergeInto and
// ClearMergeGroup each apply their whole cluster update in one transaction:
// a half-updated cluster is an invariant violation, so the writes are
// all-or-nothing at the storage layer.
type Store interface {
	Table(ctx context.Context, id uint64) (*model.Table, error)
	TablesByIDs(ctx context.Context, ids []uint64) ([]model.Table, error)
	ClusterMembers(ctx context.Context, groupID uint64) ([]model.Table, error)
	// MergeInto mints a cluster id, stamps it on every table and marks the
	// non-primary members OutOfService, all in one transaction.
	MergeInto(ctx context.Context, restaurantID, primaryID uint64, memberIDs []uint64) (uint64, error)
	// ClearMergeGroup clears the cluster id on every member and restores
	// unlocked OutOfService members to Available, in one transaction.
	ClearMergeGroup(ctx context.Context, groupID uint64) error
	SetLock(ctx context.Context, id uint64, lockedBy uint64, reason string) error
	ClearLock(ctx context.Context, id uint64) error
}

// Service runs the table merge and lock operations.
type Service struct {
	store Store
	log   zerolog.Logger
}

// NewService constructs a Service.
func NewService(store Store, log zerolog.Logger) *Service {
	if store == nil {
		panic("nil store passed to floor.NewService")
	}
	return &Service{store: store, log: log}
}

// Merge joins the primary table with the given members into one bookable
// cluster.  All tables must exist, belong to the same restaurant and not
// already be merged.  The primary keeps its status and takes bookings for
// the combined cluster; every other member goes OutOfService.
func (s *Service) Merge(ctx context.Context, primaryID uint64, memberIDs []uint64) (uint64, error) {
	ids := append([]uint64{primaryID}, memberIDs...)
	seen := make(map[uint64]struct{}, len(ids))
	unique := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) < 2 {
		return 0, ErrMergeTooFew
	}

	tables, err := s.store.TablesByIDs(ctx, unique)
	if err != nil {
		return 0, err
	}
	if len(tables) != len(unique) {
		return 0, fmt.Errorf("merge: %d of %d tables missing", len(unique)-len(tables), len(unique))
	}
	restaurantID := tables[0].RestaurantID
	for i := range tables {
		if tables[i].RestaurantID != restaurantID {
			return 0, ErrCrossRestaurant
		}
		if tables[i].IsJoined() {
			return 0, fmt.Errorf("%w: table %d", ErrAlreadyMerged, tables[i].ID)
		}
	}

	groupID, err := s.store.MergeInto(ctx, restaurantID, primaryID, unique[1:])
	if err != nil {
		return 0, err
	}
	metrics.IncTableOperation("merge")
	s.log.Info().Uint64("merge_group_id", groupID).Uint64("primary_id", primaryID).Int("size", len(unique)).Msg("tables merged")
	return groupID, nil
}

// Unmerge dissolves the whole cluster the table belongs to.  When any
// member is currently Seated the call is refused unless force is set.
func (s *Service) Unmerge(ctx context.Context, tableID uint64, force bool) error {
	table, err := s.store.Table(ctx, tableID)
	if err != nil {
		return err
	}
	if !table.IsJoined() {
		return ErrNotMerged
	}
	members, err := s.store.ClusterMembers(ctx, *table.MergeGroupID)
	if err != nil {
		return err
	}
	if !force {
		for i := range members {
			if members[i].Status == model.TableSeated {
				return fmt.Errorf("%w: table %d", ErrSeatedConflict, members[i].ID)
			}
		}
	}
	if err := s.store.ClearMergeGroup(ctx, *table.MergeGroupID); err != nil {
		return err
	}
	metrics.IncTableOperation("unmerge")
	s.log.Info().Uint64("merge_group_id", *table.MergeGroupID).Int("size", len(members)).Bool("force", force).Msg("tables unmerged")
	return nil
}

// Lock takes the table out of service, recording who locked it and why.
// A Reserved or Seated table is refused unless force is set.
func (s *Service) Lock(ctx context.Context, tableID, lockedBy uint64, reason string, force bool) error {
	table, err := s.store.Table(ctx, tableID)
	if err != nil {
		return err
	}
	if !force && (table.Status == model.TableReserved || table.Status == model.TableSeated) {
		return fmt.Errorf("%w: status %s", ErrAlreadyOccupied, table.Status)
	}
	if err := s.store.SetLock(ctx, tableID, lockedBy, reason); err != nil {
		return err
	}
	metrics.IncTableOperation("lock")
	s.log.Info().Uint64("table_id", tableID).Uint64("locked_by", lockedBy).Str("reason", reason).Msg("table locked")
	return nil
}

// Unlock returns a manually locked table to Available.  The table must be
// OutOfService because of a staff lock; a merged-away cluster member is
// OutOfService too but carries no lock, and only Unmerge may free it.
func (s *Service) Unlock(ctx context.Context, tableID uint64) error {
	table, err := s.store.Table(ctx, tableID)
	if err != nil {
		return err
	}
	if table.Status != model.TableOutOfService {
		return fmt.Errorf("%w: status %s", ErrNotLocked, table.Status)
	}
	if table.LockedBy == nil {
		return fmt.Errorf("%w: out of service by merge", ErrNotLocked)
	}
	if err := s.store.ClearLock(ctx, tableID); err != nil {
		return err
	}
	metrics.IncTableOperation("unlock")
	s.log.Info().Uint64("table_id", tableID).Msg("table unlocked")
	return nil
}
