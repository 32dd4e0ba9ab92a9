package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/desk-reservation/internal/metrics"
	"github.com/iliyamo/desk-reservation/internal/model"
	"github.com/iliyamo/desk-reservation/internal/repository"
)

const tracerName = "github.com/iliyamo/desk-reservation/internal/booking"

// Controller executes reserve, cancel and check-in against the ledger.
// It holds no locks: every write is attempted optimistically and the
// store's unique indexes decide collisions.
type Controller struct {
	catalog *Catalog
	ledger  *Ledger
	store   ReservationStore
	events  EventPublisher
	metrics *metrics.Metrics
	now     Clock
	tracer  trace.Tracer
}

// Option configures a Controller or Recommender.
type Option func(*options)

type options struct {
	events      EventPublisher
	metrics     *metrics.Metrics
	now         Clock
	historyDays int
}

// WithEvents publishes an Event after every successful write.
func WithEvents(p EventPublisher) Option { return func(o *options) { o.events = p } }

// WithMetrics records operation outcomes on m.
func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithClock replaces time.Now.
func WithClock(now Clock) Option { return func(o *options) { o.now = now } }

// WithHistoryDays sets the personal-history window of the recommender.
func WithHistoryDays(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.historyDays = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, historyDays: DefaultHistoryDays}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// NewController wires a Controller.  store is the same ledger the
// Ledger reads from.
func NewController(catalog *Catalog, ledger *Ledger, store ReservationStore, opts ...Option) *Controller {
	o := buildOptions(opts)
	return &Controller{
		catalog: catalog,
		ledger:  ledger,
		store:   store,
		events:  o.events,
		metrics: o.metrics,
		now:     o.now,
		tracer:  otel.Tracer(tracerName),
	}
}

// Grid is the resolved occupancy of a date.  Warning is set when the
// store could not be read and the grid is empty.
type Grid struct {
	Date      model.Date         `json:"date"`
	Desks     []DeskAvailability `json:"desks"`
	FreeCount int                `json:"free_count"`
	Warning   string             `json:"warning,omitempty"`
}

// Availability resolves every active desk for date.  A store failure
// degrades to an empty grid with a warning instead of an error.
func (c *Controller) Availability(ctx context.Context, date model.Date) Grid {
	desks, err := c.catalog.ListActiveDesks(ctx)
	if err != nil {
		return Grid{Date: date, Desks: []DeskAvailability{}, Warning: Message(err)}
	}
	records, err := c.ledger.RecordsForDate(ctx, date)
	if err != nil {
		return Grid{Date: date, Desks: []DeskAvailability{}, Warning: Message(err)}
	}
	avail := ResolveAvailability(desks, records)
	return Grid{Date: date, Desks: avail, FreeCount: FreeCount(avail)}
}

func (c *Controller) start(ctx context.Context, op string, actor Actor, date model.Date) (context.Context, trace.Span, time.Time) {
	ctx, span := c.tracer.Start(ctx, "booking."+op, trace.WithAttributes(
		attribute.String("booking.user", actor.UserName),
		attribute.Bool("booking.admin", actor.Admin),
		attribute.String("booking.date", date.String()),
	))
	return ctx, span, time.Now()
}

func (c *Controller) finish(span trace.Span, op string, started time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Message(err))
	}
	span.End()
	c.metrics.ObserveOperation(op, Outcome(err), started)
}

// Outcome names the error kind of err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrCollision):
		return "collision"
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	}
	return "error"
}

func validateActor(actor Actor) error {
	if strings.TrimSpace(actor.UserName) == "" {
		return validationError("missing user")
	}
	return nil
}

func validateDate(date model.Date) error {
	if date.IsZero() {
		return validationError("invalid date")
	}
	return nil
}

// Reserve books desk number deskNumber for the actor on date.
//
// The desk must resolve Free and a non-admin must not already hold an
// active booking on the date; either failure is a collision.  A
// concurrent writer that wins the race is detected by the store and
// reported the same way.
func (c *Controller) Reserve(ctx context.Context, actor Actor, deskNumber int, date model.Date) (res model.Reservation, err error) {
	ctx, span, started := c.start(ctx, "reserve", actor, date)
	defer func() { c.finish(span, "reserve", started, err) }()
	span.SetAttributes(attribute.Int("booking.desk_number", deskNumber))

	if err := validateActor(actor); err != nil {
		return model.Reservation{}, err
	}
	if err := validateDate(date); err != nil {
		return model.Reservation{}, err
	}
	desk, err := c.catalog.DeskByNumber(ctx, deskNumber)
	if err != nil {
		return model.Reservation{}, err
	}
	records, err := c.ledger.RecordsForDate(ctx, date)
	if err != nil {
		return model.Reservation{}, err
	}
	if !resolveDesk(desk, records).Free() {
		return model.Reservation{}, collisionError(MsgDeskTaken)
	}
	if !actor.Admin {
		if _, booked := activeBookingOf(records, actor.UserName); booked {
			return model.Reservation{}, collisionError(MsgAlreadyBooked)
		}
	}

	now := c.now()
	res, err = c.store.Insert(ctx, date, desk.Name, actor.UserName, now)
	switch {
	case errors.Is(err, repository.ErrAlreadyBooked):
		return model.Reservation{}, collisionError(MsgAlreadyBooked)
	case errors.Is(err, repository.ErrDeskTaken):
		return model.Reservation{}, collisionError(MsgDeskTaken)
	case err != nil:
		return model.Reservation{}, storeUnavailable("insert reservation", err)
	}
	c.publish(ctx, eventFrom(EventReserved, res, actor.UserName, now))
	return res, nil
}

// Cancel ends a booking or releases a fixed desk.
//
// With a reservation id the record is canceled in place; only its owner
// or an admin may do so.  Without one the desk must be held by its fixed
// assignee, and a release row is appended for the date.
func (c *Controller) Cancel(ctx context.Context, actor Actor, deskNumber int, reservationID *int64, date model.Date) (res model.Reservation, err error) {
	op := "cancel"
	if reservationID == nil {
		op = "release"
	}
	ctx, span, started := c.start(ctx, op, actor, date)
	defer func() { c.finish(span, op, started, err) }()
	span.SetAttributes(attribute.Int("booking.desk_number", deskNumber))

	if err := validateActor(actor); err != nil {
		return model.Reservation{}, err
	}
	if err := validateDate(date); err != nil {
		return model.Reservation{}, err
	}
	desk, err := c.catalog.DeskByNumber(ctx, deskNumber)
	if err != nil {
		return model.Reservation{}, err
	}
	if reservationID == nil {
		return c.release(ctx, actor, desk, date)
	}
	return c.cancelReservation(ctx, actor, desk, *reservationID, date)
}

func (c *Controller) cancelReservation(ctx context.Context, actor Actor, desk model.Desk, id int64, date model.Date) (model.Reservation, error) {
	rec, err := c.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return model.Reservation{}, notFoundError("reservation not found")
	}
	if err != nil {
		return model.Reservation{}, storeUnavailable("get reservation", err)
	}
	if rec.Kind != model.KindUserBooking || !rec.Active() {
		return model.Reservation{}, notFoundError("reservation not found")
	}
	if rec.DeskName != desk.Name || !rec.Date.Equal(date) {
		return model.Reservation{}, validationError("reservation does not match desk and date")
	}
	if !actor.Admin && rec.CreatedBy != actor.UserName {
		return model.Reservation{}, notAuthorizedError("only the owner or an admin may cancel")
	}

	now := c.now()
	err = c.store.UpdateCancellation(ctx, rec.ID, actor.UserName, now)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return model.Reservation{}, notFoundError("reservation not found")
	}
	if err != nil {
		return model.Reservation{}, storeUnavailable("cancel reservation", err)
	}
	by := actor.UserName
	at := now.UTC().Truncate(time.Millisecond)
	rec.CanceledBy = &by
	rec.CanceledAt = &at
	c.publish(ctx, eventFrom(EventCanceled, rec, actor.UserName, now))
	return rec, nil
}

func (c *Controller) release(ctx context.Context, actor Actor, desk model.Desk, date model.Date) (model.Reservation, error) {
	if !desk.IsFixed() {
		return model.Reservation{}, validationError("desk has no fixed assignee")
	}
	records, err := c.ledger.RecordsForDate(ctx, date)
	if err != nil {
		return model.Reservation{}, err
	}
	if resolveDesk(desk, records).Status != StatusFixed {
		return model.Reservation{}, validationError("fixed desk is not held by its assignee")
	}

	now := c.now()
	display := model.LocalPart(desk.Assignee())
	rec, err := c.store.InsertFixedDeskRelease(ctx, date, desk.Name, display, actor.UserName, now)
	if err != nil {
		return model.Reservation{}, storeUnavailable("insert release", err)
	}
	c.publish(ctx, eventFrom(EventReleased, rec, actor.UserName, now))
	return rec, nil
}

// Checkin stamps the actor's active booking of deskName on date.  The
// name is matched against the catalog ignoring case, as it comes from a
// printed label; an unknown desk is a validation error.
func (c *Controller) Checkin(ctx context.Context, actor Actor, deskName string, date model.Date) (res model.Reservation, err error) {
	ctx, span, started := c.start(ctx, "checkin", actor, date)
	defer func() { c.finish(span, "checkin", started, err) }()
	span.SetAttributes(attribute.String("booking.desk_name", deskName))

	if err := validateActor(actor); err != nil {
		return model.Reservation{}, err
	}
	if err := validateDate(date); err != nil {
		return model.Reservation{}, err
	}
	if strings.TrimSpace(deskName) == "" {
		return model.Reservation{}, validationError("missing desk")
	}
	desk, err := c.catalog.DeskByName(ctx, deskName)
	if err != nil {
		return model.Reservation{}, err
	}
	records, err := c.ledger.RecordsForDate(ctx, date)
	if err != nil {
		return model.Reservation{}, err
	}
	rec, ok := bookingFor(records, desk.Name, actor.UserName)
	if !ok {
		return model.Reservation{}, notFoundError("no booking found for check-in")
	}

	now := c.now()
	err = c.store.UpdateCheckin(ctx, rec.ID, now)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return model.Reservation{}, notFoundError("no booking found for check-in")
	}
	if err != nil {
		return model.Reservation{}, storeUnavailable("check in", err)
	}
	at := now.UTC().Truncate(time.Millisecond)
	rec.CheckedInAt = &at
	c.publish(ctx, eventFrom(EventCheckedIn, rec, actor.UserName, now))
	return rec, nil
}

// bookingFor finds the user's active booking of a desk.
func bookingFor(records []model.Reservation, deskName, userName string) (model.Reservation, bool) {
	for _, r := range records {
		if r.Kind == model.KindUserBooking && r.Active() &&
			r.CreatedBy == userName && r.DeskName == deskName {
			return r, true
		}
	}
	return model.Reservation{}, false
}
