// Package queue carries reservation events over RabbitMQ: the publisher
// used by the booking controller and the consumer that keeps the audit
// log file.
package queue

import (
	"time"

	"github.com/iliyamo/desk-reservation/internal/booking"
)

// ReservationEvent is the wire form of a committed ledger change.  It
// holds enough to write the audit trail without querying the database.
type ReservationEvent struct {
	Type          string `json:"type"` // reservation.reserved, .canceled, .released, .checked_in
	ReservationID int64  `json:"reservation_id"`
	Date          string `json:"date"` // YYYY-MM-DD
	DeskName      string `json:"desk_name"`
	Owner         string `json:"owner"`
	Actor         string `json:"actor"`
	OccurredAt    string `json:"occurred_at"` // RFC 3339, UTC
}

// FromBookingEvent converts a controller event to its wire form.
func FromBookingEvent(ev booking.Event) ReservationEvent {
	return ReservationEvent{
		Type:          ev.Type,
		ReservationID: ev.ReservationID,
		Date:          ev.Date.String(),
		DeskName:      ev.DeskName,
		Owner:         ev.Owner,
		Actor:         ev.Actor,
		OccurredAt:    ev.At.UTC().Format(time.RFC3339),
	}
}
