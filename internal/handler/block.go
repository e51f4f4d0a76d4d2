package handler

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/floorops/restaurant-reservation/internal/model"
	"github.com/floorops/restaurant-reservation/internal/repository"
)

// BlockHandler exposes block CRUD and the block calendar view.
type BlockHandler struct {
	Blocks *repository.BlockRepo
	Tables *repository.TableRepo
	Shifts *repository.ShiftRepo
}

// NewBlockHandler constructs a BlockHandler.
func NewBlockHandler(blocks *repository.BlockRepo, tables *repository.TableRepo, shifts *repository.ShiftRepo) *BlockHandler {
	return &BlockHandler{Blocks: blocks, Tables: tables, Shifts: shifts}
}

type blockPayload struct {
	Reason     string   `json:"reason"`
	Scope      string   `json:"scope"`
	RoomName   *string  `json:"room_name"`
	TableIDs   []uint64 `json:"table_ids"`
	ShiftIDs   []uint64 `json:"shift_ids"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	DaysActive []string `json:"days_active"`
	Note       *string  `json:"note"`
	IsActive   *bool    `json:"is_active"`
}

func (p *blockPayload) toBlock(restaurantID uint64) (*model.Block, string) {
	if strings.TrimSpace(p.Reason) == "" {
		return nil, "reason is required"
	}
	switch p.Scope {
	case model.BlockScopeFull:
	case model.BlockScopeRoom:
		if p.RoomName == nil || strings.TrimSpace(*p.RoomName) == "" {
			return nil, "room_name is required for ROOM scope"
		}
	case model.BlockScopeTables:
		if len(p.TableIDs) == 0 {
			return nil, "table_ids is required for TABLES scope"
		}
	default:
		return nil, "scope must be FULL, ROOM or TABLES"
	}
	from, err := parseDate(p.StartDate)
	if err != nil {
		return nil, "start_date must be YYYY-MM-DD"
	}
	to, err := parseDate(p.EndDate)
	if err != nil {
		return nil, "end_date must be YYYY-MM-DD"
	}
	if to.Before(from) {
		return nil, "end_date must not be before start_date"
	}
	b := &model.Block{
		RestaurantID: restaurantID,
		Reason:       strings.TrimSpace(p.Reason),
		Scope:        p.Scope,
		RoomName:     p.RoomName,
		TableIDs:     p.TableIDs,
		ShiftIDs:     p.ShiftIDs,
		StartDate:    from,
		EndDate:      to,
		DaysActive:   p.DaysActive,
		Note:         p.Note,
		IsActive:     true,
	}
	if p.Scope != model.BlockScopeTables {
		b.TableIDs = nil
	}
	if p.Scope != model.BlockScopeRoom {
		b.RoomName = nil
	}
	if p.IsActive != nil {
		b.IsActive = *p.IsActive
	}
	return b, ""
}

// validateRefs checks that every referenced table and shift exists and
// belongs to the block's restaurant.
func (h *BlockHandler) validateRefs(c echo.Context, b *model.Block) error {
	if len(b.TableIDs) > 0 {
		tables, err := h.Tables.TablesByIDs(c.Request().Context(), b.TableIDs)
		if err != nil {
			return err
		}
		if len(tables) != len(b.TableIDs) {
			return repository.ErrNotFound
		}
		for i := range tables {
			if tables[i].RestaurantID != b.RestaurantID {
				return repository.ErrNotFound
			}
		}
	}
	for _, shiftID := range b.ShiftIDs {
		shift, err := h.Shifts.GetShift(c.Request().Context(), shiftID)
		if err != nil {
			return err
		}
		if shift.RestaurantID != b.RestaurantID {
			return repository.ErrNotFound
		}
	}
	return nil
}

func blockJSON(b *model.Block) echo.Map {
	m := echo.Map{
		"id":            b.ID,
		"restaurant_id": b.RestaurantID,
		"reason":        b.Reason,
		"scope":         b.Scope,
		"start_date":    b.StartDate.Format(dateLayout),
		"end_date":      b.EndDate.Format(dateLayout),
		"days_active":   b.DaysActive,
		"is_active":     b.IsActive,
	}
	if b.RoomName != nil {
		m["room_name"] = *b.RoomName
	}
	if len(b.TableIDs) > 0 {
		m["table_ids"] = b.TableIDs
	}
	if len(b.ShiftIDs) > 0 {
		m["shift_ids"] = b.ShiftIDs
	}
	if b.Note != nil {
		m["note"] = *b.Note
	}
	return m
}

// Create handles POST /v1/blocks.
func (h *BlockHandler) Create(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	var body blockPayload
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	block, msg := body.toBlock(rid)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.validateRefs(c, block); err != nil {
		return respondErr(c, err)
	}
	if err := h.Blocks.Create(c.Request().Context(), block); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, blockJSON(block))
}

// List handles GET /v1/blocks.
func (h *BlockHandler) List(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	blocks, err := h.Blocks.ListByRestaurant(c.Request().Context(), rid)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]echo.Map, 0, len(blocks))
	for i := range blocks {
		out = append(out, blockJSON(&blocks[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"blocks": out})
}

// Get handles GET /v1/blocks/:id.
func (h *BlockHandler) Get(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	block, err := h.Blocks.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	if block.RestaurantID != rid {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "block not found"})
	}
	return c.JSON(http.StatusOK, blockJSON(block))
}

// Update handles PUT /v1/blocks/:id.
func (h *BlockHandler) Update(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body blockPayload
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	block, msg := body.toBlock(rid)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	block.ID = id
	if err := h.validateRefs(c, block); err != nil {
		return respondErr(c, err)
	}
	if err := h.Blocks.Update(c.Request().Context(), block); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, blockJSON(block))
}

// Delete handles DELETE /v1/blocks/:id.
func (h *BlockHandler) Delete(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Blocks.Delete(c.Request().Context(), id, rid); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Calendar handles GET /v1/blocks/calendar?from=YYYY-MM-DD&to=YYYY-MM-DD.
// It expands each block's date range (honoring days_active) into a map of
// ISO date to blocks, an output-only transformation.
func (h *BlockHandler) Calendar(c echo.Context) error {
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

	blocks, err := h.Blocks.ListRange(c.Request().Context(), rid, from, to)
	if err != nil {
		return respondErr(c, err)
	}

	byDate := make(map[string][]echo.Map)
	for i := range blocks {
		b := &blocks[i]
		for d := maxDate(from, b.StartDate); !d.After(minDate(to, b.EndDate)); d = d.AddDate(0, 0, 1) {
			if len(b.DaysActive) > 0 && !weekdayIn(b.DaysActive, d.Weekday().String()) {
				continue
			}
			key := d.Format(dateLayout)
			byDate[key] = append(byDate[key], blockJSON(b))
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return c.JSON(http.StatusOK, echo.Map{"dates": dates, "blocks": byDate})
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func weekdayIn(days []string, weekday string) bool {
	for _, d := range days {
		if strings.EqualFold(d, weekday) {
			return true
		}
	}
	return false
}
