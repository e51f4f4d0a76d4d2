package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/floorops/restaurant-reservation/internal/metrics"
	"github.com/floorops/restaurant-reservation/internal/model"
	"github.com/floorops/restaurant-reservation/internal/queue"
	"github.com/floorops/restaurant-reservation/internal/repository"
	"github.com/floorops/restaurant-reservation/internal/schedule"
)

// ErrValidation wraps malformed or missing input, caught before touching
// persistence.
var ErrValidation = errors.New("validation failed")

// ErrNotFound is returned when the reservation id does not exist.
var ErrNotFound = errors.New("reservation not found")

// ErrInvalidStatus is returned when the requested status is not one of the
// six reservation statuses.
var ErrInvalidStatus = errors.New("invalid status")

// ErrInvalidTransition is returned when the requested status change is not a
// legal edge of the state machine (including any change out of a terminal
// status).
var ErrInvalidTransition = errors.New("illegal status transition")

// ErrShiftInUse is returned when a shift delete is refused because
// non-terminal reservations still reference it.
var ErrShiftInUse = errors.New("shift still referenced by reservations")

// Store is the persistence surface the lifecycle manager drives.  Insert and
// UpdateSlot must hold the double-booking invariant atomically: when the
// reservation has a table assigned they lock the table row, check for a
// non-terminal reservation on the same (table, date, time) and write, all
// inside one transaction, returning repository.ErrTableConflict to losers.
// SetStatus must apply the reservation status and the table side-effect in
// one transaction.
type Store interface {
	ActiveShifts(ctx context.Context, restaurantID uint64) ([]model.Shift, error)
	Table(ctx context.Context, id uint64) (*model.Table, error)
	Reservation(ctx context.Context, id uint64) (*model.Reservation, error)
	Insert(ctx context.Context, r *model.Reservation) error
	UpdateSlot(ctx context.Context, r *model.Reservation) error
	SetStatus(ctx context.Context, id uint64, status, tableStatus string) (*model.Reservation, error)
	ActiveCountByShift(ctx context.Context, shiftID uint64) (int, error)
}

// Publisher sends a confirmed-reservation event to the broker.  It is
// invoked outside the transaction boundary; errors are logged and dropped.
type Publisher func(ctx context.Context, ev queue.ReservationConfirmedEvent) error

// Manager owns the reservation state machine and the create/update flow.
type Manager struct {
	store   Store
	publish Publisher
	log     zerolog.Logger
}

// NewManager constructs a Manager.  publish may be nil to disable events.
func NewManager(store Store, publish Publisher, log zerolog.Logger) *Manager {
	if store == nil {
		panic("nil store passed to booking.NewManager")
	}
	return &Manager{store: store, publish: publish, log: log}
}

// CreateRequest carries the fields needed to create a reservation.  TableID
// nil means the guest is waitlisted without a table.  Status may be empty
// (defaults to Pending) or Confirmed for bookings taken directly by staff.
type CreateRequest struct {
	RestaurantID uint64
	TableID      *uint64
	Date         time.Time
	Time         string
	PartySize    uint32
	GuestName    string
	GuestEmail   *string
	GuestPhone   *string
	Notes        *string
	Status       string
}

func (req *CreateRequest) validate() error {
	if req.RestaurantID == 0 {
		return fmt.Errorf("%w: restaurantId is required", ErrValidation)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if _, err := schedule.ParseClock(req.Time); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.PartySize == 0 {
		return fmt.Errorf("%w: partySize must be positive", ErrValidation)
	}
	if req.GuestName == "" {
		return fmt.Errorf("%w: guestName is required", ErrValidation)
	}
	switch req.Status {
	case "", model.ResPending, model.ResConfirmed:
	default:
		return fmt.Errorf("%w: initial status must be Pending or Confirmed", ErrValidation)
	}
	return nil
}

// Create validates the request, resolves the governing shift, gates on the
// double-booking conflict and persists the reservation.  The assigned shift
// is cached on the reservation and only recomputed on date/time edits.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*model.Reservation, *model.Shift, error) {
	if err := req.validate(); err != nil {
		return nil, nil, err
	}
	shifts, err := m.store.ActiveShifts(ctx, req.RestaurantID)
	if err != nil {
		return nil, nil, err
	}
	resolved, err := schedule.Resolve(shifts, req.Date, req.Time)
	if err != nil {
		return nil, nil, err
	}
	if err := m.checkTableScope(ctx, req.TableID, req.RestaurantID); err != nil {
		return nil, nil, err
	}

	status := req.Status
	if status == "" {
		status = model.ResPending
	}
	res := &model.Reservation{
		RestaurantID: req.RestaurantID,
		TableID:      req.TableID,
		ShiftID:      resolved.Shift.ID,
		Date:         req.Date,
		Time:         req.Time,
		PartySize:    req.PartySize,
		Status:       status,
		GuestName:    req.GuestName,
		GuestEmail:   req.GuestEmail,
		GuestPhone:   req.GuestPhone,
		Notes:        req.Notes,
	}
	if err := m.store.Insert(ctx, res); err != nil {
		if isConflict(err) {
			metrics.IncReservationConflict()
		}
		return nil, nil, err
	}
	metrics.IncReservationCreated(status)
	m.log.Info().
		Uint64("reservation_id", res.ID).
		Uint64("shift_id", resolved.Shift.ID).
		Str("status", status).
		Bool("nearest_shift", resolved.Nearest).
		Msg("reservation created")

	if status == model.ResConfirmed {
		m.emitConfirmed(ctx, res, resolved.Shift)
	}
	return res, resolved.Shift, nil
}

// Reschedule moves an existing reservation to a new table, date or time.
// The shift is re-resolved and the conflict check re-run excluding the
// reservation's own id.  Terminal reservations cannot be rescheduled.
func (m *Manager) Reschedule(ctx context.Context, id uint64, tableID *uint64, date time.Time, hhmm string) (*model.Reservation, error) {
	res, err := m.store.Reservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if model.IsTerminalStatus(res.Status) {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, res.Status)
	}
	if _, err := schedule.ParseClock(hhmm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	shifts, err := m.store.ActiveShifts(ctx, res.RestaurantID)
	if err != nil {
		return nil, err
	}
	resolved, err := schedule.Resolve(shifts, date, hhmm)
	if err != nil {
		return nil, err
	}
	if err := m.checkTableScope(ctx, tableID, res.RestaurantID); err != nil {
		return nil, err
	}
	res.TableID = tableID
	res.Date = date
	res.Time = hhmm
	res.ShiftID = resolved.Shift.ID
	if err := m.store.UpdateSlot(ctx, res); err != nil {
		if isConflict(err) {
			metrics.IncReservationConflict()
		}
		return nil, err
	}
	m.log.Info().Uint64("reservation_id", id).Uint64("shift_id", resolved.Shift.ID).Msg("reservation rescheduled")
	return res, nil
}

// UpdateStatus applies a status change after validating it against the
// state machine, and records the table side-effect (Reserved on confirm,
// Seated on check-in, Available on every terminal status) in the same
// transaction.
func (m *Manager) UpdateStatus(ctx context.Context, id uint64, newStatus string) (*model.Reservation, error) {
	if !KnownStatus(newStatus) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}
	res, err := m.store.Reservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(res.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, newStatus)
	}
	tableStatus, _ := TableStatusFor(newStatus)
	updated, err := m.store.SetStatus(ctx, id, newStatus, tableStatus)
	if err != nil {
		return nil, err
	}
	metrics.IncStatusTransition(newStatus)
	m.log.Info().Uint64("reservation_id", id).Str("from", res.Status).Str("to", newStatus).Msg("reservation status updated")

	if newStatus == model.ResConfirmed {
		m.emitConfirmed(ctx, updated, nil)
	}
	return updated, nil
}

// ShiftReferenced reports whether any non-terminal reservation still points
// at the shift.  Shift deletion must be refused while this returns true;
// the database does not enforce it.
func (m *Manager) ShiftReferenced(ctx context.Context, shiftID uint64) (bool, error) {
	n, err := m.store.ActiveCountByShift(ctx, shiftID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// checkTableScope verifies an assigned table exists and belongs to the
// reservation's restaurant.  A table from another restaurant reads as not
// found, never as a hint that the id exists elsewhere.
func (m *Manager) checkTableScope(ctx context.Context, tableID *uint64, restaurantID uint64) error {
	if tableID == nil {
		return nil
	}
	table, err := m.store.Table(ctx, *tableID)
	if err != nil {
		return err
	}
	if table.RestaurantID != restaurantID {
		return fmt.Errorf("table %d: %w", *tableID, repository.ErrNotFound)
	}
	return nil
}

func (m *Manager) emitConfirmed(ctx context.Context, res *model.Reservation, shift *model.Shift) {
	if m.publish == nil {
		return
	}
	ev := queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		RestaurantID:  res.RestaurantID,
		TableID:       res.TableID,
		ShiftID:       res.ShiftID,
		Date:          res.Date.Format("2006-01-02"),
		Time:          res.Time,
		PartySize:     res.PartySize,
		GuestName:     res.GuestName,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if shift != nil {
		ev.ShiftName = shift.Name
	}
	if err := m.publish(ctx, ev); err != nil {
		// Best-effort side effect: never fails the booking.
		m.log.Warn().Err(err).Uint64("reservation_id", res.ID).Msg("confirmed event publish failed")
	}
}

func isConflict(err error) bool {
	return errors.Is(err, repository.ErrTableConflict)
}
