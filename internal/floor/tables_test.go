package floor

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorops/restaurant-reservation/internal/model"
	"github.com/floorops/restaurant-reservation/internal/repository"
)

// fakeStore keeps tables in a map and applies cluster writes atomically,
// matching the single-transaction guarantee of the MySQL repository.
type fakeStore struct {
	nextGroup uint64
	tables    map[uint64]*model.Table
}

func newFakeStore(tables ...model.Table) *fakeStore {
	s := &fakeStore{tables: map[uint64]*model.Table{}}
	for i := range tables {
		cp := tables[i]
		s.tables[cp.ID] = &cp
	}
	return s
}

func (s *fakeStore) Table(_ context.Context, id uint64) (*model.Table, error) {
	t, ok := s.tables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) TablesByIDs(_ context.Context, ids []uint64) ([]model.Table, error) {
	out := make([]model.Table, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.tables[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *fakeStore) ClusterMembers(_ context.Context, groupID uint64) ([]model.Table, error) {
	var out []model.Table
	for _, t := range s.tables {
		if t.MergeGroupID != nil && *t.MergeGroupID == groupID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *fakeStore) MergeInto(_ context.Context, _ uint64, primaryID uint64, memberIDs []uint64) (uint64, error) {
	s.nextGroup++
	g := s.nextGroup
	s.tables[primaryID].MergeGroupID = &g
	for _, id := range memberIDs {
		s.tables[id].MergeGroupID = &g
		s.tables[id].Status = model.TableOutOfService
	}
	return g, nil
}

func (s *fakeStore) ClearMergeGroup(_ context.Context, groupID uint64) error {
	for _, t := range s.tables {
		if t.MergeGroupID == nil || *t.MergeGroupID != groupID {
			continue
		}
		t.MergeGroupID = nil
		if t.Status == model.TableOutOfService && t.LockedBy == nil {
			t.Status = model.TableAvailable
		}
	}
	return nil
}

func (s *fakeStore) SetLock(_ context.Context, id, lockedBy uint64, reason string) error {
	t := s.tables[id]
	t.Status = model.TableOutOfService
	t.LockedBy = &lockedBy
	t.LockReason = &reason
	return nil
}

func (s *fakeStore) ClearLock(_ context.Context, id uint64) error {
	t := s.tables[id]
	if t.MergeGroupID == nil {
		t.Status = model.TableAvailable
	}
	t.LockedBy = nil
	t.LockReason = nil
	return nil
}

func tbl(id uint64, status string) model.Table {
	return model.Table{ID: id, RestaurantID: 1, TableNumber: "T" + string(rune('0'+id)), Status: status}
}

func TestMergeUnmergeRoundTrip(t *testing.T) {
	store := newFakeStore(tbl(1, model.TableAvailable), tbl(2, model.TableAvailable), tbl(3, model.TableAvailable))
	svc := NewService(store, zerolog.Nop())

	groupID, err := svc.Merge(context.Background(), 1, []uint64{2, 3})
	require.NoError(t, err)
	require.NotZero(t, groupID)

	// Primary stays bookable, other members go out of service.
	assert.Equal(t, model.TableAvailable, store.tables[1].Status)
	assert.Equal(t, model.TableOutOfService, store.tables[2].Status)
	assert.Equal(t, model.TableOutOfService, store.tables[3].Status)
	for _, id := range []uint64{1, 2, 3} {
		require.NotNil(t, store.tables[id].MergeGroupID)
		assert.Equal(t, groupID, *store.tables[id].MergeGroupID)
	}

	// Unmerging any member dissolves the whole cluster.
	require.NoError(t, svc.Unmerge(context.Background(), 2, false))
	for _, id := range []uint64{1, 2, 3} {
		assert.Nil(t, store.tables[id].MergeGroupID)
		assert.Equal(t, model.TableAvailable, store.tables[id].Status)
	}
}

func TestMergeValidation(t *testing.T) {
	svc := NewService(newFakeStore(tbl(1, model.TableAvailable), tbl(2, model.TableAvailable)), zerolog.Nop())

	_, err := svc.Merge(context.Background(), 1, nil)
	assert.ErrorIs(t, err, ErrMergeTooFew)

	_, err = svc.Merge(context.Background(), 1, []uint64{1})
	assert.ErrorIs(t, err, ErrMergeTooFew)

	_, err = svc.Merge(context.Background(), 1, []uint64{2, 9})
	assert.Error(t, err)
}

func TestMergeCrossRestaurant(t *testing.T) {
	other := tbl(2, model.TableAvailable)
	other.RestaurantID = 5
	svc := NewService(newFakeStore(tbl(1, model.TableAvailable), other), zerolog.Nop())

	_, err := svc.Merge(context.Background(), 1, []uint64{2})
	assert.ErrorIs(t, err, ErrCrossRestaurant)
}

func TestMergeAlreadyMerged(t *testing.T) {
	store := newFakeStore(tbl(1, model.TableAvailable), tbl(2, model.TableAvailable), tbl(3, model.TableAvailable))
	svc := NewService(store, zerolog.Nop())

	_, err := svc.Merge(context.Background(), 1, []uint64{2})
	require.NoError(t, err)

	_, err = svc.Merge(context.Background(), 2, []uint64{3})
	assert.ErrorIs(t, err, ErrAlreadyMerged)
}

func TestUnmergeNotMerged(t *testing.T) {
	svc := NewService(newFakeStore(tbl(1, model.TableAvailable)), zerolog.Nop())
	assert.ErrorIs(t, svc.Unmerge(context.Background(), 1, false), ErrNotMerged)
}

func TestUnmergeSeatedNeedsForce(t *testing.T) {
	store := newFakeStore(tbl(1, model.TableSeated), tbl(2, model.TableAvailable))
	svc := NewService(store, zerolog.Nop())

	_, err := svc.Merge(context.Background(), 1, []uint64{2})
	require.NoError(t, err)

	err = svc.Unmerge(context.Background(), 2, false)
	assert.ErrorIs(t, err, ErrSeatedConflict)

	require.NoError(t, svc.Unmerge(context.Background(), 2, true))
	assert.Nil(t, store.tables[1].MergeGroupID)
	assert.Nil(t, store.tables[2].MergeGroupID)
	// A seated table stays seated through a forced unmerge.
	assert.Equal(t, model.TableSeated, store.tables[1].Status)
}

func TestLockRefusesOccupiedWithoutForce(t *testing.T) {
	store := newFakeStore(tbl(1, model.TableReserved))
	svc := NewService(store, zerolog.Nop())

	err := svc.Lock(context.Background(), 1, 9, "broken leg", false)
	assert.ErrorIs(t, err, ErrAlreadyOccupied)

	require.NoError(t, svc.Lock(context.Background(), 1, 9, "broken leg", true))
	assert.Equal(t, model.TableOutOfService, store.tables[1].Status)
	require.NotNil(t, store.tables[1].LockedBy)
	assert.Equal(t, uint64(9), *store.tables[1].LockedBy)
	require.NotNil(t, store.tables[1].LockReason)
	assert.Equal(t, "broken leg", *store.tables[1].LockReason)
}

func TestLockAvailableTable(t *testing.T) {
	store := newFakeStore(tbl(1, model.TableAvailable))
	svc := NewService(store, zerolog.Nop())

	require.NoError(t, svc.Lock(context.Background(), 1, 9, "deep clean", false))
	assert.Equal(t, model.TableOutOfService, store.tables[1].Status)
}

func TestUnlock(t *testing.T) {
	store := newFakeStore(tbl(1, model.TableAvailable))
	svc := NewService(store, zerolog.Nop())

	assert.ErrorIs(t, svc.Unlock(context.Background(), 1), ErrNotLocked)

	require.NoError(t, svc.Lock(context.Background(), 1, 9, "paint", false))
	require.NoError(t, svc.Unlock(context.Background(), 1))
	assert.Equal(t, model.TableAvailable, store.tables[1].Status)
	assert.Nil(t, store.tables[1].LockedBy)
	assert.Nil(t, store.tables[1].LockReason)
}

func TestUnlockRefusesMergedMember(t *testing.T) {
	store := newFakeStore(tbl(1, model.TableAvailable), tbl(2, model.TableAvailable))
	svc := NewService(store, zerolog.Nop())

	_, err := svc.Merge(context.Background(), 1, []uint64{2})
	require.NoError(t, err)

	// Member 2 is OutOfService only because it was merged away; it carries
	// no lock, so Unlock must not free it from the cluster.
	err = svc.Unlock(context.Background(), 2)
	assert.ErrorIs(t, err, ErrNotLocked)
	assert.Equal(t, model.TableOutOfService, store.tables[2].Status)
	require.NotNil(t, store.tables[2].MergeGroupID)

	// A lock stacked on top of the merge is releasable, but releasing it
	// keeps the member out of service inside the cluster.
	require.NoError(t, svc.Lock(context.Background(), 2, 9, "wobbly", false))
	require.NoError(t, svc.Unlock(context.Background(), 2))
	assert.Equal(t, model.TableOutOfService, store.tables[2].Status)
	assert.Nil(t, store.tables[2].LockedBy)
	require.NotNil(t, store.tables[2].MergeGroupID)
}

func TestLockMissingTable(t *testing.T) {
	svc := NewService(newFakeStore(), zerolog.Nop())
	assert.ErrorIs(t, svc.Lock(context.Background(), 42, 9, "x", false), repository.ErrNotFound)
}
