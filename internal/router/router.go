// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/floorops/restaurant-reservation/internal/handler"
	"github.com/floorops/restaurant-reservation/internal/middleware"
	"github.com/floorops/restaurant-reservation/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Shifts       *handler.ShiftHandler
	Tables       *handler.TableHandler
	Blocks       *handler.BlockHandler
	Reservations *handler.ReservationHandler
}

// Register mounts all routes.  /healthz, /metrics and /v1/auth/login are
// public; everything else requires a staff JWT.  Managers additionally own
// shift and block mutation plus the forced floor operations; hosts cover
// day-to-day booking work.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/v1/auth/login", h.Auth.Login)

	staff := e.Group("/v1")
	staff.Use(middleware.JWTAuth(jwtSecret))
	staff.Use(middleware.RequireRole(model.RoleHost, model.RoleManager))

	staff.GET("/me", h.Auth.Me)

	// Shifts.  The literal segments must register before /shifts/:id so
	// they win the route match.
	staff.GET("/shifts/resolve", h.Shifts.Resolve)
	staff.GET("/shifts/calendar", h.Shifts.Calendar)
	staff.GET("/shifts/today", h.Shifts.ActiveToday)
	staff.GET("/shifts", h.Shifts.List)
	staff.GET("/shifts/:id", h.Shifts.Get)

	// Tables and floor operations.
	staff.GET("/tables", h.Tables.List)
	staff.GET("/tables/available", h.Tables.Available)
	staff.GET("/tables/:id", h.Tables.Get)
	staff.POST("/tables/merge", h.Tables.Merge)
	staff.PUT("/tables/:id/unmerge", h.Tables.Unmerge)
	staff.PUT("/tables/:id/lock", h.Tables.Lock)
	staff.PUT("/tables/:id/unlock", h.Tables.Unlock)

	// Blocks (read side).
	staff.GET("/blocks", h.Blocks.List)
	staff.GET("/blocks/calendar", h.Blocks.Calendar)
	staff.GET("/blocks/:id", h.Blocks.Get)

	// Reservations.
	staff.POST("/reservations", h.Reservations.Create)
	staff.GET("/reservations", h.Reservations.List)
	staff.GET("/reservations/calendar", h.Reservations.Calendar)
	staff.GET("/reservations/:id", h.Reservations.Get)
	staff.PUT("/reservations/:id", h.Reservations.Update)
	staff.PUT("/reservations/:id/status", h.Reservations.UpdateStatus)
	staff.DELETE("/reservations/:id", h.Reservations.Delete)

	// Configuration changes are manager-only.
	mgr := e.Group("/v1")
	mgr.Use(middleware.JWTAuth(jwtSecret))
	mgr.Use(middleware.RequireRole(model.RoleManager))

	mgr.POST("/staff", h.Auth.CreateStaff)

	mgr.POST("/shifts", h.Shifts.Create)
	mgr.PUT("/shifts/:id", h.Shifts.Update)
	mgr.DELETE("/shifts/:id", h.Shifts.Delete)

	mgr.POST("/tables", h.Tables.Create)
	mgr.PUT("/tables/:id", h.Tables.Update)
	mgr.DELETE("/tables/:id", h.Tables.Delete)

	mgr.POST("/blocks", h.Blocks.Create)
	mgr.PUT("/blocks/:id", h.Blocks.Update)
	mgr.DELETE("/blocks/:id", h.Blocks.Delete)
}
