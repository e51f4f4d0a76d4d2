package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorops/restaurant-reservation/internal/model"
	"github.com/floorops/restaurant-reservation/internal/queue"
	"github.com/floorops/restaurant-reservation/internal/repository"
)

// fakeStore is an in-memory Store that enforces the double-booking invariant
// under a mutex, the same guarantee the MySQL repository gives with a row
// lock inside a transaction.
type fakeStore struct {
	mu     sync.Mutex
	nextID uint64
	shifts []model.Shift
	tables map[uint64]*model.Table
	byID   map[uint64]*model.Reservation
}

// newFakeStore seeds tables 1..5 under restaurant 1; tests that need a
// table elsewhere add it explicitly.
func newFakeStore(shifts ...model.Shift) *fakeStore {
	s := &fakeStore{shifts: shifts, tables: map[uint64]*model.Table{}, byID: map[uint64]*model.Reservation{}}
	for id := uint64(1); id <= 5; id++ {
		s.tables[id] = &model.Table{ID: id, RestaurantID: 1, Status: model.TableAvailable}
	}
	return s
}

func (s *fakeStore) ActiveShifts(_ context.Context, _ uint64) ([]model.Shift, error) {
	return s.shifts, nil
}

func (s *fakeStore) Table(_ context.Context, id uint64) (*model.Table, error) {
	t, ok := s.tables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) Reservation(_ context.Context, id uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) slotTaken(r *model.Reservation) bool {
	if r.TableID == nil {
		return false
	}
	for _, other := range s.byID {
		if other.ID == r.ID || other.TableID == nil {
			continue
		}
		if *other.TableID == *r.TableID &&
			other.Date.Equal(r.Date) && other.Time == r.Time &&
			!model.IsTerminalStatus(other.Status) {
			return true
		}
	}
	return false
}

func (s *fakeStore) Insert(_ context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slotTaken(r) {
		return repository.ErrTableConflict
	}
	s.nextID++
	r.ID = s.nextID
	cp := *r
	s.byID[r.ID] = &cp
	return nil
}

func (s *fakeStore) UpdateSlot(_ context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[r.ID]; !ok {
		return repository.ErrNotFound
	}
	if s.slotTaken(r) {
		return repository.ErrTableConflict
	}
	cp := *r
	s.byID[r.ID] = &cp
	return nil
}

func (s *fakeStore) SetStatus(_ context.Context, id uint64, status, _ string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.Status = status
	cp := *r
	return &cp, nil
}

func (s *fakeStore) ActiveCountByShift(_ context.Context, shiftID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.byID {
		if r.ShiftID == shiftID && !model.IsTerminalStatus(r.Status) {
			n++
		}
	}
	return n, nil
}

func dinnerShift() model.Shift {
	return model.Shift{
		ID:           7,
		RestaurantID: 1,
		Name:         "Dinner",
		Type:         model.ShiftTypeRecurring,
		DaysActive:   []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		StartTime:    "17:00",
		EndTime:      "23:00",
		IsActive:     true,
	}
}

func monday() time.Time {
	return time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
}

func uptr(v uint64) *uint64 { return &v }

func TestCreateDefaultsToPending(t *testing.T) {
	store := newFakeStore(dinnerShift())
	mgr := NewManager(store, nil, zerolog.Nop())

	res, shift, err := mgr.Create(context.Background(), CreateRequest{
		RestaurantID: 1,
		TableID:      uptr(3),
		Date:         monday(),
		Time:         "19:00",
		PartySize:    4,
		GuestName:    "Dana Reyes",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ResPending, res.Status)
	assert.Equal(t, uint64(7), res.ShiftID)
	assert.Equal(t, "Dinner", shift.Name)
	assert.NotZero(t, res.ID)
}

func TestCreateValidation(t *testing.T) {
	store := newFakeStore(dinnerShift())
	mgr := NewManager(store, nil, zerolog.Nop())

	cases := []struct {
		name string
		req  CreateRequest
	}{
		{"missing restaurant", CreateRequest{Date: monday(), Time: "19:00", PartySize: 2, GuestName: "A"}},
		{"missing date", CreateRequest{RestaurantID: 1, Time: "19:00", PartySize: 2, GuestName: "A"}},
		{"bad time", CreateRequest{RestaurantID: 1, Date: monday(), Time: "7pm", PartySize: 2, GuestName: "A"}},
		{"zero party", CreateRequest{RestaurantID: 1, Date: monday(), Time: "19:00", GuestName: "A"}},
		{"missing guest", CreateRequest{RestaurantID: 1, Date: monday(), Time: "19:00", PartySize: 2}},
		{"bad initial status", CreateRequest{RestaurantID: 1, Date: monday(), Time: "19:00", PartySize: 2, GuestName: "A", Status: model.ResSeated}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := mgr.Create(context.Background(), tc.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateRejectsForeignTable(t *testing.T) {
	store := newFakeStore(dinnerShift())
	store.tables[77] = &model.Table{ID: 77, RestaurantID: 2, Status: model.TableAvailable}
	mgr := NewManager(store, nil, zerolog.Nop())

	// A table id owned by another restaurant reads as not found.
	_, _, err := mgr.Create(context.Background(), CreateRequest{
		RestaurantID: 1, TableID: uptr(77), Date: monday(), Time: "19:00",
		PartySize: 2, GuestName: "Ada",
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, _, err = mgr.Create(context.Background(), CreateRequest{
		RestaurantID: 1, TableID: uptr(999), Date: monday(), Time: "19:00",
		PartySize: 2, GuestName: "Ada",
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRescheduleRejectsForeignTable(t *testing.T) {
	store := newFakeStore(dinnerShift())
	store.tables[77] = &model.Table{ID: 77, RestaurantID: 2, Status: model.TableAvailable}
	mgr := NewManager(store, nil, zerolog.Nop())

	res, _, err := mgr.Create(context.Background(), CreateRequest{
		RestaurantID: 1, TableID: uptr(3), Date: monday(), Time: "19:00",
		PartySize: 2, GuestName: "Ada",
	})
	require.NoError(t, err)

	_, err = mgr.Reschedule(context.Background(), res.ID, uptr(77), monday(), "19:30")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// The reservation keeps its original slot after the refused move.
	kept, err := store.Reservation(context.Background(), res.ID)
	require.NoError(t, err)
	require.NotNil(t, kept.TableID)
	assert.Equal(t, uint64(3), *kept.TableID)
	assert.Equal(t, "19:00", kept.Time)
}

func TestCreateRejectsDoubleBooking(t *testing.T) {
	store := newFakeStore(dinnerShift())
	mgr := NewManager(store, nil, zerolog.Nop())

	req := CreateRequest{
		RestaurantID: 1,
		TableID:      uptr(3),
		Date:         monday(),
		Time:         "19:00",
		PartySize:    2,
		GuestName:    "First",
		Status:       model.ResConfirmed,
	}
	_, _, err := mgr.Create(context.Background(), req)
	require.NoError(t, err)

	req.GuestName = "Second"
	_, _, err = mgr.Create(context.Background(), req)
	assert.ErrorIs(t, err, repository.ErrTableConflict)
}

func TestCreateAllowsSlotAfterCancellation(t *testing.T) {
	store := newFakeStore(dinnerShift())
	mgr := NewManager(store, nil, zerolog.Nop())

	req := CreateRequest{
		RestaurantID: 1,
		TableID:      uptr(3),
		Date:         monday(),
		Time:         "19:00",
		PartySize:    2,
		GuestName:    "First",
	}
	first, _, err := mgr.Create(context.Background(), req)
	require.NoError(t, err)
	_, err = mgr.UpdateStatus(context.Background(), first.ID, model.ResCanceled)
	require.NoError(t, err)

	req.GuestName = "Second"
	_, _, err = mgr.Create(context.Background(), req)
	assert.NoError(t, err)
}

func TestCreateWaitlistedNeverConflicts(t *testing.T) {
	store := newFakeStore(dinnerShift())
	mgr := NewManager(store, nil, zerolog.Nop())

	req := CreateRequest{
		RestaurantID: 1,
		Date:         monday(),
		Time:         "19:00",
		PartySize:    2,
		GuestName:    "Walk-in",
	}
	_, _, err := mgr.Create(context.Background(), req)
	require.NoError(t, err)
	req.GuestName = "Another walk-in"
	_, _, err = mgr.Create(context.Background(), req)
	assert.NoError(t, err)
}

func TestConcurrentCreateSameSlotOneWinner(t *testing.T) {
	store := newFakeStore(dinnerShift())
	mgr := NewManager(store, nil, zerolog.Nop())

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = mgr.Create(context.Background(), CreateRequest{
				RestaurantID: 1,
				TableID:      uptr(3),
				Date:         monday(),
				Time:         "19:00",
				PartySize:    2,
				GuestName:    "Racer",
				Status:       model.ResConfirmed,
			})
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repository.ErrTableConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)
}

func TestCreateConfirmedPublishesEvent(t *testing.T) {
	store := newFakeStore(dinnerShift())
	var got *queue.ReservationConfirmedEvent
	publish := func(_ context.Context, ev queue.ReservationConfirmedEvent) error {
		got = &ev
		return nil
	}
	mgr := NewManager(store, publish, zerolog.Nop())

	res, _, err := mgr.Create(context.Background(), CreateRequest{
		RestaurantID: 1,
		TableID:      uptr(3),
		Date:         monday(),
		Time:         "19:00",
		PartySize:    4,
		GuestName:    "Dana Reyes",
		Status:       model.ResConfirmed,
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res.ID, got.ReservationID)
	assert.Equal(t, "Dinner", got.ShiftName)
	assert.Equal(t, "2024-06-10", got.Date)
	assert.Equal(t, "19:00", got.Time)
}

func TestCreatePublishFailureDoesNotFailBooking(t *testing.T) {
	store := newFakeStore(dinnerShift())
	publish := func(_ context.Context, _ queue.ReservationConfirmedEvent) error {
		return errors.New("broker down")
	}
	mgr := NewManager(store, publish, zerolog.Nop())

	_, _, err := mgr.Create(context.Background(), CreateRequest{
		RestaurantID: 1,
		Date:         monday(),
		Time:         "19:00",
		PartySize:    2,
		GuestName:    "Dana Reyes",
		Status:       model.ResConfirmed,
	})
	assert.NoError(t, err)
}

func TestUpdateStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{model.ResPending, model.ResConfirmed, true},
		{model.ResPending, model.ResCanceled, true},
		{model.ResPending, model.ResSeated, false},
		{model.ResConfirmed, model.ResSeated, true},
		{model.ResConfirmed, model.ResCanceled, true},
		{model.ResConfirmed, model.ResNoShow, true},
		{model.ResConfirmed, model.ResFinished, false},
		{model.ResSeated, model.ResFinished, true},
		{model.ResSeated, model.ResCanceled, false},
		{model.ResCanceled, model.ResConfirmed, false},
		{model.ResNoShow, model.ResPending, false},
		{model.ResFinished, model.ResSeated, false},
	}
	for _, tc := range cases {
		t.Run(tc.from+"_to_"+tc.to, func(t *testing.T) {
			store := newFakeStore(dinnerShift())
			store.byID[1] = &model.Reservation{ID: 1, RestaurantID: 1, ShiftID: 7, Status: tc.from}
			store.nextID = 1
			mgr := NewManager(store, nil, zerolog.Nop())

			updated, err := mgr.UpdateStatus(context.Background(), 1, tc.to)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, updated.Status)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	mgr := NewManager(newFakeStore(), nil, zerolog.Nop())
	_, err := mgr.UpdateStatus(context.Background(), 1, "Arrived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusNotFound(t *testing.T) {
	mgr := NewManager(newFakeStore(), nil, zerolog.Nop())
	_, err := mgr.UpdateStatus(context.Background(), 99, model.ResConfirmed)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRescheduleReResolvesShift(t *testing.T) {
	lunch := model.Shift{
		ID: 4, RestaurantID: 1, Name: "Lunch", Type: model.ShiftTypeRecurring,
		DaysActive: []string{"Monday"}, StartTime: "11:00", EndTime: "15:00", IsActive: true,
	}
	store := newFakeStore(lunch, dinnerShift())
	mgr := NewManager(store, nil, zerolog.Nop())

	res, _, err := mgr.Create(context.Background(), CreateRequest{
		RestaurantID: 1, TableID: uptr(3), Date: monday(), Time: "19:00",
		PartySize: 2, GuestName: "Dana",
	})
	require.NoError(t, err)
	require.Equal(t, uint64(7), res.ShiftID)

	moved, err := mgr.Reschedule(context.Background(), res.ID, uptr(3), monday(), "12:30")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), moved.ShiftID)
	assert.Equal(t, "12:30", moved.Time)
}

func TestRescheduleDoesNotConflictWithItself(t *testing.T) {
	store := newFakeStore(dinnerShift())
	mgr := NewManager(store, nil, zerolog.Nop())

	res, _, err := mgr.Create(context.Background(), CreateRequest{
		RestaurantID: 1, TableID: uptr(3), Date: monday(), Time: "19:00",
		PartySize: 2, GuestName: "Dana",
	})
	require.NoError(t, err)

	// Same table, same slot: the reservation's own row is not a conflict.
	_, err = mgr.Reschedule(context.Background(), res.ID, uptr(3), monday(), "19:00")
	assert.NoError(t, err)
}

func TestRescheduleRejectsTakenSlot(t *testing.T) {
	store := newFakeStore(dinnerShift())
	mgr := NewManager(store, nil, zerolog.Nop())

	_, _, err := mgr.Create(context.Background(), CreateRequest{
		RestaurantID: 1, TableID: uptr(3), Date: monday(), Time: "19:00",
		PartySize: 2, GuestName: "Holder",
	})
	require.NoError(t, err)
	other, _, err := mgr.Create(context.Background(), CreateRequest{
		RestaurantID: 1, TableID: uptr(4), Date: monday(), Time: "19:00",
		PartySize: 2, GuestName: "Mover",
	})
	require.NoError(t, err)

	_, err = mgr.Reschedule(context.Background(), other.ID, uptr(3), monday(), "19:00")
	assert.ErrorIs(t, err, repository.ErrTableConflict)
}

func TestRescheduleTerminalRefused(t *testing.T) {
	store := newFakeStore(dinnerShift())
	store.byID[1] = &model.Reservation{ID: 1, RestaurantID: 1, ShiftID: 7, Status: model.ResFinished}
	store.nextID = 1
	mgr := NewManager(store, nil, zerolog.Nop())

	_, err := mgr.Reschedule(context.Background(), 1, uptr(3), monday(), "19:00")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestShiftReferenced(t *testing.T) {
	store := newFakeStore(dinnerShift())
	mgr := NewManager(store, nil, zerolog.Nop())

	res, _, err := mgr.Create(context.Background(), CreateRequest{
		RestaurantID: 1, Date: monday(), Time: "19:00", PartySize: 2, GuestName: "Dana",
	})
	require.NoError(t, err)

	used, err := mgr.ShiftReferenced(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, used)

	_, err = mgr.UpdateStatus(context.Background(), res.ID, model.ResCanceled)
	require.NoError(t, err)

	used, err = mgr.ShiftReferenced(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, used)
}

func TestTableStatusSideEffects(t *testing.T) {
	got, change := TableStatusFor(model.ResConfirmed)
	assert.True(t, change)
	assert.Equal(t, model.TableReserved, got)

	got, change = TableStatusFor(model.ResSeated)
	assert.True(t, change)
	assert.Equal(t, model.TableSeated, got)

	for _, terminal := range model.TerminalStatuses {
		got, change = TableStatusFor(terminal)
		assert.True(t, change)
		assert.Equal(t, model.TableAvailable, got)
	}

	_, change = TableStatusFor(model.ResPending)
	assert.False(t, change)
}
