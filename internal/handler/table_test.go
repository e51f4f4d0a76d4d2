package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorops/restaurant-reservation/internal/model"
	"github.com/floorops/restaurant-reservation/internal/repository"
)

type fakeTableStore struct {
	tables []model.Table
}

func (s *fakeTableStore) Create(_ context.Context, _ *model.Table) error { return nil }
func (s *fakeTableStore) Update(_ context.Context, _ *model.Table) error { return nil }
func (s *fakeTableStore) Delete(_ context.Context, _, _ uint64) error    { return nil }

func (s *fakeTableStore) Table(_ context.Context, id uint64) (*model.Table, error) {
	for i := range s.tables {
		if s.tables[i].ID == id {
			return &s.tables[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeTableStore) TablesByRestaurant(_ context.Context, restaurantID uint64) ([]model.Table, error) {
	out := make([]model.Table, 0, len(s.tables))
	for _, t := range s.tables {
		if t.RestaurantID == restaurantID {
			out = append(out, t)
		}
	}
	return out, nil
}

func floorTables() *fakeTableStore {
	group := uint64(4)
	staff := uint64(9)
	reason := "repainting"
	return &fakeTableStore{tables: []model.Table{
		{ID: 1, RestaurantID: 1, TableNumber: "T1", Status: model.TableAvailable},
		{ID: 2, RestaurantID: 1, TableNumber: "T2", Status: model.TableAvailable, MergeGroupID: &group},
		{ID: 3, RestaurantID: 1, TableNumber: "T3", Status: model.TableOutOfService, MergeGroupID: &group},
		{ID: 4, RestaurantID: 1, TableNumber: "T4", Status: model.TableOutOfService, LockedBy: &staff, LockReason: &reason},
	}}
}

func listTables(t *testing.T, h *TableHandler, target string) []map[string]any {
	t.Helper()
	c, rec := staffContext(t, target)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Tables []map[string]any `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Tables
}

func TestTableListFilters(t *testing.T) {
	h := NewTableHandler(floorTables(), nil, nil)

	all := listTables(t, h, "/v1/tables")
	assert.Len(t, all, 4)

	merged := listTables(t, h, "/v1/tables?merged=true")
	require.Len(t, merged, 2)
	for _, m := range merged {
		assert.Equal(t, true, m["is_joined"])
	}

	locked := listTables(t, h, "/v1/tables?locked=true")
	require.Len(t, locked, 1)
	assert.Equal(t, "T4", locked[0]["table_number"])
	assert.Equal(t, "repainting", locked[0]["lock_reason"])
}
