package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/floorops/restaurant-reservation/internal/booking"
	"github.com/floorops/restaurant-reservation/internal/model"
	"github.com/floorops/restaurant-reservation/internal/schedule"
)

// ShiftStore is the persistence surface the shift endpoints need; the MySQL
// shift repository satisfies it.
type ShiftStore interface {
	Create(ctx context.Context, s *model.Shift) error
	Update(ctx context.Context, s *model.Shift) error
	GetShift(ctx context.Context, id uint64) (*model.Shift, error)
	ActiveShifts(ctx context.Context, restaurantID uint64) ([]model.Shift, error)
	ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Shift, error)
	Delete(ctx context.Context, id, restaurantID uint64) error
}

// ShiftHandler exposes shift CRUD, the resolve endpoint and the calendar
// views.
type ShiftHandler struct {
	Shifts  ShiftStore
	Manager *booking.Manager
}

// NewShiftHandler constructs a ShiftHandler.
func NewShiftHandler(shifts ShiftStore, manager *booking.Manager) *ShiftHandler {
	return &ShiftHandler{Shifts: shifts, Manager: manager}
}

type shiftPayload struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	DaysActive   []string `json:"days_active"`
	StartDate    *string  `json:"start_date"`
	EndDate      *string  `json:"end_date"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	SlotInterval uint32   `json:"slot_interval"`
	BufferTime   uint32   `json:"buffer_time"`
	MinPartySize uint32   `json:"min_party_size"`
	MaxPartySize uint32   `json:"max_party_size"`
	IsActive     *bool    `json:"is_active"`
}

// toShift validates the payload and builds a model.Shift.  The error text is
// ready for a 400 body.
func (p *shiftPayload) toShift(restaurantID uint64) (*model.Shift, string) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, "name is required"
	}
	if p.Type != model.ShiftTypeRecurring && p.Type != model.ShiftTypeSpecial {
		return nil, "type must be Recurring or Special"
	}
	start, err := schedule.ParseClock(p.StartTime)
	if err != nil {
		return nil, "start_time must be HH:MM"
	}
	end, err := schedule.ParseClock(p.EndTime)
	if err != nil {
		return nil, "end_time must be HH:MM"
	}
	if start >= end {
		return nil, "start_time must be before end_time"
	}
	s := &model.Shift{
		RestaurantID: restaurantID,
		Name:         strings.TrimSpace(p.Name),
		Type:         p.Type,
		DaysActive:   p.DaysActive,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		SlotInterval: p.SlotInterval,
		BufferTime:   p.BufferTime,
		MinPartySize: p.MinPartySize,
		MaxPartySize: p.MaxPartySize,
		IsActive:     true,
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
	if p.Type == model.ShiftTypeSpecial {
		if p.StartDate == nil || p.EndDate == nil {
			return nil, "start_date and end_date are required for Special shifts"
		}
		from, err := parseDate(*p.StartDate)
		if err != nil {
			return nil, "start_date must be YYYY-MM-DD"
		}
		to, err := parseDate(*p.EndDate)
		if err != nil {
			return nil, "end_date must be YYYY-MM-DD"
		}
		if to.Before(from) {
			return nil, "end_date must not be before start_date"
		}
		s.StartDate = &from
		s.EndDate = &to
	} else if len(p.DaysActive) == 0 {
		return nil, "days_active is required for Recurring shifts"
	}
	if s.SlotInterval == 0 {
		s.SlotInterval = 15
	}
	if s.MinPartySize == 0 {
		s.MinPartySize = 1
	}
	if s.MaxPartySize == 0 {
		s.MaxPartySize = 20
	}
	return s, ""
}

func shiftJSON(s *model.Shift) echo.Map {
	m := echo.Map{
		"id":             s.ID,
		"restaurant_id":  s.RestaurantID,
		"name":           s.Name,
		"type":           s.Type,
		"days_active":    s.DaysActive,
		"start_time":     s.StartTime,
		"end_time":       s.EndTime,
		"slot_interval":  s.SlotInterval,
		"buffer_time":    s.BufferTime,
		"min_party_size": s.MinPartySize,
		"max_party_size": s.MaxPartySize,
		"is_active":      s.IsActive,
	}
	if s.StartDate != nil {
		m["start_date"] = s.StartDate.Format(dateLayout)
	}
	if s.EndDate != nil {
		m["end_date"] = s.EndDate.Format(dateLayout)
	}
	return m
}

// Create handles POST /v1/shifts.
func (h *ShiftHandler) Create(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	var body shiftPayload
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	shift, msg := body.toShift(rid)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Shifts.Create(c.Request().Context(), shift); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, shiftJSON(shift))
}

// List handles GET /v1/shifts.
func (h *ShiftHandler) List(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	shifts, err := h.Shifts.ListByRestaurant(c.Request().Context(), rid)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]echo.Map, 0, len(shifts))
	for i := range shifts {
		out = append(out, shiftJSON(&shifts[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"shifts": out})
}

// Get handles GET /v1/shifts/:id.
func (h *ShiftHandler) Get(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	shift, err := h.Shifts.GetShift(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	if shift.RestaurantID != rid {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "shift not found"})
	}
	return c.JSON(http.StatusOK, shiftJSON(shift))
}

// Update handles PUT /v1/shifts/:id.
func (h *ShiftHandler) Update(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body shiftPayload
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	shift, msg := body.toShift(rid)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	shift.ID = id
	if err := h.Shifts.Update(c.Request().Context(), shift); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, shiftJSON(shift))
}

// Delete handles DELETE /v1/shifts/:id.  Deletion is refused while any
// non-terminal reservation still references the shift; staff soft-disable
// with is_active instead.
func (h *ShiftHandler) Delete(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	used, err := h.Manager.ShiftReferenced(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	if used {
		return respondErr(c, booking.ErrShiftInUse)
	}
	if err := h.Shifts.Delete(c.Request().Context(), id, rid); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Calendar handles GET /v1/shifts/calendar?from=YYYY-MM-DD&to=YYYY-MM-DD.
// It expands recurring weekdays and special date ranges into a map of ISO
// date to the shifts in service that day, an output-only transformation.
func (h *ShiftHandler) Calendar(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	from, err := parseDate(c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, err := parseDate(c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must not be before from"})
	}

	shifts, err := h.Shifts.ActiveShifts(c.Request().Context(), rid)
	if err != nil {
		return respondErr(c, err)
	}

	byDate := make(map[string][]echo.Map)
	dates := make([]string, 0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		cands := schedule.Candidates(shifts, d)
		if len(cands) == 0 {
			continue
		}
		key := d.Format(dateLayout)
		dates = append(dates, key)
		for i := range cands {
			byDate[key] = append(byDate[key], shiftJSON(&cands[i]))
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"dates": dates, "shifts": byDate})
}

// ActiveToday handles GET /v1/shifts/today, a convenience listing of the
// shifts in service on the current calendar date.
func (h *ShiftHandler) ActiveToday(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	shifts, err := h.Shifts.ActiveShifts(c.Request().Context(), rid)
	if err != nil {
		return respondErr(c, err)
	}
	today := time.Now()
	cands := schedule.Candidates(shifts, today)
	out := make([]echo.Map, 0, len(cands))
	for i := range cands {
		out = append(out, shiftJSON(&cands[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":    today.Format(dateLayout),
		"weekday": today.Weekday().String(),
		"shifts":  out,
	})
}

// Resolve handles GET /v1/shifts/resolve?date=YYYY-MM-DD&time=HH:MM.  It
// answers which shift governs the given moment, flagging nearest-fit
// fallback matches.
func (h *ShiftHandler) Resolve(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	hhmm := c.QueryParam("time")
	if _, err := schedule.ParseClock(hhmm); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be HH:MM"})
	}

	shifts, err := h.Shifts.ActiveShifts(c.Request().Context(), rid)
	if err != nil {
		return respondErr(c, err)
	}
	result, err := schedule.Resolve(shifts, date, hhmm)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"shift":   shiftJSON(result.Shift),
		"nearest": result.Nearest,
		"weekday": date.Weekday().String(),
	})
}
