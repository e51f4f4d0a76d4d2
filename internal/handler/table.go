package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/floorops/restaurant-reservation/internal/availability"
	"github.com/floorops/restaurant-reservation/internal/floor"
	"github.com/floorops/restaurant-reservation/internal/model"
	"github.com/floorops/restaurant-reservation/internal/repository"
)

// TableStore is the persistence surface the table endpoints need; the MySQL
// table repository satisfies it.
type TableStore interface {
	Create(ctx context.Context, t *model.Table) error
	Update(ctx context.Context, t *model.Table) error
	Table(ctx context.Context, id uint64) (*model.Table, error)
	TablesByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Table, error)
	Delete(ctx context.Context, id, restaurantID uint64) error
}

// TableHandler exposes table CRUD, the availability query and the floor
// operations (merge, unmerge, lock, unlock).
type TableHandler struct {
	Tables TableStore
	Floor  *floor.Service
	Engine *availability.Engine
}

// NewTableHandler constructs a TableHandler.
func NewTableHandler(tables TableStore, fl *floor.Service, engine *availability.Engine) *TableHandler {
	return &TableHandler{Tables: tables, Floor: fl, Engine: engine}
}

func tableJSON(t *model.Table) echo.Map {
	m := echo.Map{
		"id":            t.ID,
		"restaurant_id": t.RestaurantID,
		"table_number":  t.TableNumber,
		"room_name":     t.RoomName,
		"capacity":      t.Capacity,
		"status":        t.Status,
		"is_joined":     t.IsJoined(),
	}
	if t.MergeGroupID != nil {
		m["merge_group_id"] = *t.MergeGroupID
	}
	if t.LockedBy != nil {
		m["locked_by"] = *t.LockedBy
	}
	if t.LockReason != nil {
		m["lock_reason"] = *t.LockReason
	}
	return m
}

// Create handles POST /v1/tables.
func (h *TableHandler) Create(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	var body struct {
		TableNumber string `json:"table_number"`
		RoomName    string `json:"room_name"`
		Capacity    uint32 `json:"capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.TableNumber) == "" || body.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_number and capacity are required"})
	}
	t := &model.Table{
		RestaurantID: rid,
		TableNumber:  strings.TrimSpace(body.TableNumber),
		RoomName:     strings.TrimSpace(body.RoomName),
		Capacity:     body.Capacity,
		Status:       model.TableAvailable,
	}
	if err := h.Tables.Create(c.Request().Context(), t); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
		}
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, tableJSON(t))
}

// List handles GET /v1/tables.  ?merged=true narrows to cluster members,
// ?locked=true to manually locked tables.
func (h *TableHandler) List(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	tables, err := h.Tables.TablesByRestaurant(c.Request().Context(), rid)
	if err != nil {
		return respondErr(c, err)
	}
	mergedOnly := c.QueryParam("merged") == "true"
	lockedOnly := c.QueryParam("locked") == "true"
	out := make([]echo.Map, 0, len(tables))
	for i := range tables {
		if mergedOnly && !tables[i].IsJoined() {
			continue
		}
		if lockedOnly && tables[i].LockedBy == nil {
			continue
		}
		out = append(out, tableJSON(&tables[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": out})
}

// Get handles GET /v1/tables/:id.
func (h *TableHandler) Get(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	t, err := h.ownedTable(c, rid)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, tableJSON(t))
}

// Update handles PUT /v1/tables/:id.  Only the layout fields change here;
// status moves through reservations and the lock/merge operations.
func (h *TableHandler) Update(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	t, err := h.ownedTable(c, rid)
	if err != nil {
		return respondErr(c, err)
	}
	var body struct {
		TableNumber *string `json:"table_number"`
		RoomName    *string `json:"room_name"`
		Capacity    *uint32 `json:"capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TableNumber != nil {
		t.TableNumber = strings.TrimSpace(*body.TableNumber)
	}
	if body.RoomName != nil {
		t.RoomName = strings.TrimSpace(*body.RoomName)
	}
	if body.Capacity != nil {
		t.Capacity = *body.Capacity
	}
	if t.TableNumber == "" || t.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_number and capacity must not be empty"})
	}
	if err := h.Tables.Update(c.Request().Context(), t); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, tableJSON(t))
}

// Delete handles DELETE /v1/tables/:id.
func (h *TableHandler) Delete(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Tables.Delete(c.Request().Context(), id, rid); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Available handles GET /v1/tables/available?date=YYYY-MM-DD&shift_id=N.
func (h *TableHandler) Available(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	shiftID, err := strconv.ParseUint(c.QueryParam("shift_id"), 10, 64)
	if err != nil || shiftID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "shift_id is required"})
	}
	tables, err := h.Engine.AvailableTables(c.Request().Context(), rid, date, shiftID)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]echo.Map, 0, len(tables))
	for i := range tables {
		out = append(out, tableJSON(&tables[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":     date.Format(dateLayout),
		"shift_id": shiftID,
		"tables":   out,
	})
}

// Merge handles POST /v1/tables/merge.
func (h *TableHandler) Merge(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	var body struct {
		PrimaryID uint64   `json:"primary_id"`
		TableIDs  []uint64 `json:"table_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PrimaryID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "primary_id is required"})
	}
	if _, err := h.ownedTableByID(c, rid, body.PrimaryID); err != nil {
		return respondErr(c, err)
	}
	groupID, err := h.Floor.Merge(c.Request().Context(), body.PrimaryID, body.TableIDs)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"merge_group_id": groupID})
}

// Unmerge handles PUT /v1/tables/:id/unmerge?force=true.
func (h *TableHandler) Unmerge(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	t, err := h.ownedTable(c, rid)
	if err != nil {
		return respondErr(c, err)
	}
	force := c.QueryParam("force") == "true"
	if err := h.Floor.Unmerge(c.Request().Context(), t.ID, force); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Lock handles PUT /v1/tables/:id/lock.
func (h *TableHandler) Lock(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	uid, err := userID(c)
	if err != nil {
		return err
	}
	t, err := h.ownedTable(c, rid)
	if err != nil {
		return respondErr(c, err)
	}
	var body struct {
		Reason string `json:"reason"`
		Force  bool   `json:"force"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Reason) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason is required"})
	}
	if err := h.Floor.Lock(c.Request().Context(), t.ID, uid, strings.TrimSpace(body.Reason), body.Force); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Unlock handles PUT /v1/tables/:id/unlock.
func (h *TableHandler) Unlock(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	t, err := h.ownedTable(c, rid)
	if err != nil {
		return respondErr(c, err)
	}
	if err := h.Floor.Unlock(c.Request().Context(), t.ID); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ownedTable loads the :id table and checks restaurant ownership.
func (h *TableHandler) ownedTable(c echo.Context, rid uint64) (*model.Table, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return h.ownedTableByID(c, rid, id)
}

func (h *TableHandler) ownedTableByID(c echo.Context, rid, id uint64) (*model.Table, error) {
	t, err := h.Tables.Table(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if t.RestaurantID != rid {
		return nil, repository.ErrNotFound
	}
	return t, nil
}
