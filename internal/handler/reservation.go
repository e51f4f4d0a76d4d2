package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/floorops/restaurant-reservation/internal/booking"
	"github.com/floorops/restaurant-reservation/internal/model"
	"github.com/floorops/restaurant-reservation/internal/repository"
)

// ReservationHandler exposes the reservation lifecycle over HTTP.  All slot
// and status mutations go through the booking manager; the repo is used
// directly only for reads and guest-detail edits.
type ReservationHandler struct {
	Manager      *booking.Manager
	Reservations *repository.ReservationRepo
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(manager *booking.Manager, reservations *repository.ReservationRepo) *ReservationHandler {
	return &ReservationHandler{Manager: manager, Reservations: reservations}
}

func reservationJSON(r *model.Reservation) echo.Map {
	m := echo.Map{
		"id":            r.ID,
		"restaurant_id": r.RestaurantID,
		"shift_id":      r.ShiftID,
		"date":          r.Date.Format(dateLayout),
		"time":          r.Time,
		"party_size":    r.PartySize,
		"status":        r.Status,
		"guest_name":    r.GuestName,
	}
	if r.TableID != nil {
		m["table_id"] = *r.TableID
	}
	if r.GuestEmail != nil {
		m["guest_email"] = *r.GuestEmail
	}
	if r.GuestPhone != nil {
		m["guest_phone"] = *r.GuestPhone
	}
	if r.Notes != nil {
		m["notes"] = *r.Notes
	}
	return m
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	var body struct {
		TableID    *uint64 `json:"table_id"`
		Date       string  `json:"date"`
		Time       string  `json:"time"`
		PartySize  uint32  `json:"party_size"`
		GuestName  string  `json:"guest_name"`
		GuestEmail *string `json:"guest_email"`
		GuestPhone *string `json:"guest_phone"`
		Notes      *string `json:"notes"`
		Status     string  `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date, err := parseDate(body.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	res, shift, err := h.Manager.Create(c.Request().Context(), booking.CreateRequest{
		RestaurantID: rid,
		TableID:      body.TableID,
		Date:         date,
		Time:         body.Time,
		PartySize:    body.PartySize,
		GuestName:    strings.TrimSpace(body.GuestName),
		GuestEmail:   body.GuestEmail,
		GuestPhone:   body.GuestPhone,
		Notes:        body.Notes,
		Status:       body.Status,
	})
	if err != nil {
		return respondErr(c, err)
	}
	out := reservationJSON(res)
	out["shift_name"] = shift.Name
	return c.JSON(http.StatusCreated, out)
}

// List handles GET /v1/reservations?date=YYYY-MM-DD.
func (h *ReservationHandler) List(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	var reservations []model.Reservation
	if raw := c.QueryParam("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		reservations, err = h.Reservations.ListForDay(c.Request().Context(), rid, &date)
		if err != nil {
			return respondErr(c, err)
		}
	} else {
		reservations, err = h.Reservations.ListForDay(c.Request().Context(), rid, nil)
		if err != nil {
			return respondErr(c, err)
		}
	}
	out := make([]echo.Map, 0, len(reservations))
	for i := range reservations {
		out = append(out, reservationJSON(&reservations[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	res, err := h.owned(c, rid)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, reservationJSON(res))
}

// Update handles PUT /v1/reservations/:id.  Guest-detail fields are edited
// in place; a change of table, date or time goes through the manager so the
// shift is re-resolved and the conflict check re-run.
func (h *ReservationHandler) Update(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	res, err := h.owned(c, rid)
	if err != nil {
		return respondErr(c, err)
	}
	var body struct {
		TableID    *uint64 `json:"table_id"`
		Date       *string `json:"date"`
		Time       *string `json:"time"`
		PartySize  *uint32 `json:"party_size"`
		GuestName  *string `json:"guest_name"`
		GuestEmail *string `json:"guest_email"`
		GuestPhone *string `json:"guest_phone"`
		Notes      *string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	slotChanged := body.Date != nil || body.Time != nil || body.TableID != nil
	if slotChanged {
		date := res.Date
		if body.Date != nil {
			if date, err = parseDate(*body.Date); err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
			}
		}
		hhmm := res.Time
		if body.Time != nil {
			hhmm = *body.Time
		}
		tableID := res.TableID
		if body.TableID != nil {
			if *body.TableID == 0 {
				tableID = nil // explicit zero clears the assignment
			} else {
				tableID = body.TableID
			}
		}
		if res, err = h.Manager.Reschedule(c.Request().Context(), res.ID, tableID, date, hhmm); err != nil {
			return respondErr(c, err)
		}
	}

	detailChanged := body.PartySize != nil || body.GuestName != nil ||
		body.GuestEmail != nil || body.GuestPhone != nil || body.Notes != nil
	if detailChanged {
		if body.PartySize != nil {
			if *body.PartySize == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "party_size must be positive"})
			}
			res.PartySize = *body.PartySize
		}
		if body.GuestName != nil {
			name := strings.TrimSpace(*body.GuestName)
			if name == "" {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_name must not be empty"})
			}
			res.GuestName = name
		}
		if body.GuestEmail != nil {
			res.GuestEmail = body.GuestEmail
		}
		if body.GuestPhone != nil {
			res.GuestPhone = body.GuestPhone
		}
		if body.Notes != nil {
			res.Notes = body.Notes
		}
		if err := h.Reservations.UpdateDetails(c.Request().Context(), res); err != nil {
			return respondErr(c, err)
		}
	}
	return c.JSON(http.StatusOK, reservationJSON(res))
}

// UpdateStatus handles PUT /v1/reservations/:id/status.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	res, err := h.owned(c, rid)
	if err != nil {
		return respondErr(c, err)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	updated, err := h.Manager.UpdateStatus(c.Request().Context(), res.ID, body.Status)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, reservationJSON(updated))
}

// Delete handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Reservations.Delete(c.Request().Context(), id, rid); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Calendar handles GET /v1/reservations/calendar?from=&to=, grouping
// reservations by ISO date, an output-only transformation.
func (h *ReservationHandler) Calendar(c echo.Context) error {
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

	reservations, err := h.Reservations.ListRange(c.Request().Context(), rid, from, to)
	if err != nil {
		return respondErr(c, err)
	}
	byDate := make(map[string][]echo.Map)
	for i := range reservations {
		key := reservations[i].Date.Format(dateLayout)
		byDate[key] = append(byDate[key], reservationJSON(&reservations[i]))
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return c.JSON(http.StatusOK, echo.Map{"dates": dates, "reservations": byDate})
}

func (h *ReservationHandler) owned(c echo.Context, rid uint64) (*model.Reservation, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	res, err := h.Reservations.Reservation(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if res.RestaurantID != rid {
		return nil, repository.ErrNotFound
	}
	return res, nil
}
