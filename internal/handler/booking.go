package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation/internal/booking"
	"github.com/iliyamo/desk-reservation/internal/middleware"
	"github.com/iliyamo/desk-reservation/internal/model"
)

// BookingHandler exposes desk availability, reservations and
// suggestions to authenticated users.
type BookingHandler struct {
	Controller  *booking.Controller
	Recommender *booking.Recommender
	Catalog     *booking.Catalog
	Now         func() time.Time
	Location    *time.Location // calendar used for "today"
	BookingDays int
}

func NewBookingHandler(ctrl *booking.Controller, rec *booking.Recommender, cat *booking.Catalog, loc *time.Location, bookingDays int) *BookingHandler {
	if ctrl == nil || rec == nil || cat == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{Controller: ctrl, Recommender: rec, Catalog: cat, Now: time.Now,
		Location: loc, BookingDays: bookingDays}
}

func (h *BookingHandler) today() model.Date {
	return model.DateOf(h.Now().In(h.Location))
}

// dateParam parses an optional YYYY-MM-DD value, defaulting to today.
func (h *BookingHandler) dateParam(raw string) (model.Date, bool) {
	if strings.TrimSpace(raw) == "" {
		return h.today(), true
	}
	d, err := model.ParseDate(raw)
	return d, err == nil
}

// Dates handles GET /v1/dates: the bookable business days.
func (h *BookingHandler) Dates(c echo.Context) error {
	dates := booking.AvailableDates(h.Now().In(h.Location), h.BookingDays)
	return c.JSON(http.StatusOK, echo.Map{"dates": dates})
}

// Desks handles GET /v1/desks.
func (h *BookingHandler) Desks(c echo.Context) error {
	desks, err := h.Catalog.ListActiveDesks(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"desks": desks})
}

// Availability handles GET /v1/availability?date=.  Store failures still
// answer 200 with an empty grid and a warning.
func (h *BookingHandler) Availability(c echo.Context) error {
	date, ok := h.dateParam(c.QueryParam("date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	return c.JSON(http.StatusOK, h.Controller.Availability(c.Request().Context(), date))
}

type reserveReq struct {
	DeskNumber int    `json:"desk_number"`
	Date       string `json:"date"`
}

// Reserve handles POST /v1/reservations.
func (h *BookingHandler) Reserve(c echo.Context) error {
	var body reserveReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.DeskNumber <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "desk_number is required"})
	}
	date, err := model.ParseDate(body.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	res, err := h.Controller.Reserve(c.Request().Context(), middleware.Actor(c), body.DeskNumber, date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"reservation": res})
}

type cancelReq struct {
	DeskNumber    int    `json:"desk_number"`
	ReservationID *int64 `json:"reservation_id"`
	Date          string `json:"date"`
}

// Cancel handles POST /v1/reservations/cancel.  Without reservation_id
// it releases the fixed desk for the date.
func (h *BookingHandler) Cancel(c echo.Context) error {
	var body cancelReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.DeskNumber <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "desk_number is required"})
	}
	date, err := model.ParseDate(body.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	res, err := h.Controller.Cancel(c.Request().Context(), middleware.Actor(c), body.DeskNumber, body.ReservationID, date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation": res})
}

type checkinReq struct {
	DeskName string `json:"desk_name"`
	Date     string `json:"date"`
}

// Checkin handles POST /v1/checkin.  The date defaults to today, which
// is what a scanned desk label carries.
func (h *BookingHandler) Checkin(c echo.Context) error {
	var body checkinReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date, ok := h.dateParam(body.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	res, err := h.Controller.Checkin(c.Request().Context(), middleware.Actor(c), body.DeskName, date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation": res})
}

// Suggestion handles GET /v1/suggestion?date=.  "suggestion" is null
// when the user is already booked or nothing is free.
func (h *BookingHandler) Suggestion(c echo.Context) error {
	date, ok := h.dateParam(c.QueryParam("date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	s, err := h.Recommender.Suggest(c.Request().Context(), middleware.Actor(c), date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"suggestion": s})
}
