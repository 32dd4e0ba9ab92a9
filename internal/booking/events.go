package booking

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/desk-reservation/internal/model"
)

// Event types published after a successful write.
const (
	EventReserved  = "reservation.reserved"
	EventCanceled  = "reservation.canceled"
	EventReleased  = "reservation.released"
	EventCheckedIn = "reservation.checked_in"
)

// Event describes a committed ledger change.
type Event struct {
	Type          string
	ReservationID int64
	Date          model.Date
	DeskName      string
	Owner         string // booking user, or the release display name
	Actor         string
	At            time.Time
}

// EventPublisher delivers events to subscribers.  Implemented by
// queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

func eventFrom(typ string, r model.Reservation, actor string, at time.Time) Event {
	return Event{
		Type:          typ,
		ReservationID: r.ID,
		Date:          r.Date,
		DeskName:      r.DeskName,
		Owner:         r.CreatedBy,
		Actor:         actor,
		At:            at,
	}
}

// publish never fails the calling operation.
func (c *Controller) publish(ctx context.Context, ev Event) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(ctx, ev); err != nil {
		log.Printf("booking: publish %s for reservation %d: %v", ev.Type, ev.ReservationID, err)
		c.metrics.EventPublished(false)
		return
	}
	c.metrics.EventPublished(true)
}
