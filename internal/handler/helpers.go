// Package handler contains the Echo HTTP handlers for the floor-management
// API.  Handlers bind and validate input, call into the core services and
// translate typed sentinel errors into HTTP status codes.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/floorops/restaurant-reservation/internal/availability"
	"github.com/floorops/restaurant-reservation/internal/booking"
	"github.com/floorops/restaurant-reservation/internal/floor"
	"github.com/floorops/restaurant-reservation/internal/repository"
	"github.com/floorops/restaurant-reservation/internal/schedule"
)

const dateLayout = "2006-01-02"

// restaurantID reads the restaurant scope JWTAuth stored in the context.
func restaurantID(c echo.Context) (uint64, error) {
	id, ok := c.Get("restaurant_id").(uint64)
	if !ok || id == 0 {
		return 0, echo.ErrUnauthorized
	}
	return id, nil
}

// userID reads the authenticated staff user id from the context.
func userID(c echo.Context) (uint64, error) {
	id, ok := c.Get("user_id").(uint64)
	if !ok || id == 0 {
		return 0, echo.ErrUnauthorized
	}
	return id, nil
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// parseDate parses a YYYY-MM-DD query or body value.
func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// respondErr maps the core's sentinel errors onto the HTTP taxonomy:
// 400 validation, 404 unknown id, 409 conflicting or illegal state, 500
// anything unexpected.  The error text goes into the body as-is; sentinels
// carry no internals.
func respondErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrValidation),
		errors.Is(err, booking.ErrInvalidStatus),
		errors.Is(err, schedule.ErrNoShiftsForDay),
		errors.Is(err, schedule.ErrOutsideShiftWindow),
		errors.Is(err, floor.ErrMergeTooFew):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, booking.ErrNotFound),
		errors.Is(err, availability.ErrShiftNotFound),
		errors.Is(err, availability.ErrNoTables):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrTableConflict),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, booking.ErrShiftInUse),
		errors.Is(err, floor.ErrCrossRestaurant),
		errors.Is(err, floor.ErrAlreadyMerged),
		errors.Is(err, floor.ErrNotMerged),
		errors.Is(err, floor.ErrSeatedConflict),
		errors.Is(err, floor.ErrAlreadyOccupied),
		errors.Is(err, floor.ErrNotLocked):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
