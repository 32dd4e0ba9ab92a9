// Package router registers the HTTP routes of the desk reservation API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/desk-reservation/internal/handler"
	"github.com/iliyamo/desk-reservation/internal/middleware"
	"github.com/iliyamo/desk-reservation/internal/utils"
)

// RegisterRoutes registers the unauthenticated probes.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterMetrics exposes the collectors of g at /metrics.
func RegisterMetrics(e *echo.Echo, g prometheus.Gatherer) {
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}

// RegisterAuth registers login under /v1/auth and the token check under
// /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	e.POST("/v1/auth/login", a.Login)
	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(utils.RoleUser, utils.RoleAdmin))
}

// RegisterBooking registers the booking endpoints.  writeLimit wraps the
// three write routes; pass nil to leave them unlimited.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, writeLimit echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(utils.RoleUser, utils.RoleAdmin))

	g.GET("/dates", h.Dates)
	g.GET("/desks", h.Desks)
	g.GET("/availability", h.Availability)
	g.GET("/suggestion", h.Suggestion)

	var writes []echo.MiddlewareFunc
	if writeLimit != nil {
		writes = append(writes, writeLimit)
	}
	g.POST("/reservations", h.Reserve, writes...)
	g.POST("/reservations/cancel", h.Cancel, writes...)
	g.POST("/checkin", h.Checkin, writes...)
}

// RegisterAdmin registers the reservation log, restricted to ADMIN.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(utils.RoleAdmin))

	g.GET("/reservations", h.List)
	g.GET("/reservations/export", h.Export)
}
