package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation/internal/export"
	"github.com/iliyamo/desk-reservation/internal/model"
	"github.com/iliyamo/desk-reservation/internal/repository"
)

// LogReader reads the administrative reservation log.  Implemented by
// repository.ReservationRepo.
type LogReader interface {
	ListLog(ctx context.Context, f repository.LogFilter) ([]model.Reservation, error)
}

// AdminHandler serves the reservation log to admins.
type AdminHandler struct {
	Log      LogReader
	Location *time.Location
	Now      func() time.Time
}

func NewAdminHandler(log LogReader, loc *time.Location) *AdminHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminHandler{Log: log, Location: loc, Now: time.Now}
}

// filterFrom reads date, desk, created_by, canceled_by and limit.
func filterFrom(c echo.Context) (repository.LogFilter, error) {
	f := repository.LogFilter{
		Desk:       c.QueryParam("desk"),
		CreatedBy:  c.QueryParam("created_by"),
		CanceledBy: c.QueryParam("canceled_by"),
	}
	if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return f, fmt.Errorf("invalid date")
		}
		f.Date = &d
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return f, fmt.Errorf("invalid limit")
		}
		f.Limit = n
	}
	return f, nil
}

// List handles GET /v1/admin/reservations.
func (h *AdminHandler) List(c echo.Context) error {
	f, err := filterFrom(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	recs, err := h.Log.ListLog(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "database error"})
	}
	rows := export.Rows(recs)
	return c.JSON(http.StatusOK, echo.Map{"count": len(rows), "reservations": rows})
}

// Export handles GET /v1/admin/reservations/export with the same filters
// as List, answering an .xlsx attachment.
func (h *AdminHandler) Export(c echo.Context) error {
	f, err := filterFrom(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	recs, err := h.Log.ListLog(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "database error"})
	}
	name := fmt.Sprintf("reservas_%s.xlsx", h.Now().In(h.Location).Format("2006-01-02_15-04"))
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	res.WriteHeader(http.StatusOK)
	return export.WriteXLSX(res, export.Rows(recs), h.Location)
}
