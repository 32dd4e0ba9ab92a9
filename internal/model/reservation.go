package model

import (
	"fmt"
	"strings"
	"time"
)

// ReservationKind distinguishes a user's booking from the synthetic
// record that frees a fixed desk for one day.
type ReservationKind int

const (
	// KindUserBooking is a booking made by CreatedBy.
	KindUserBooking ReservationKind = iota
	// KindFixedDeskRelease marks a fixed desk as free on its date.  It is
	// stored already canceled and never denotes occupancy.
	KindFixedDeskRelease
)

// Persisted values of the reservations.kind column.
const (
	kindBookingColumn = "BOOKING"
	kindReleaseColumn = "FIXED_RELEASE"
)

// String returns the persisted column value of k.
func (k ReservationKind) String() string {
	if k == KindFixedDeskRelease {
		return kindReleaseColumn
	}
	return kindBookingColumn
}

// ParseReservationKind maps a kind column value back to a ReservationKind.
func ParseReservationKind(s string) (ReservationKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case kindBookingColumn:
		return KindUserBooking, true
	case kindReleaseColumn:
		return KindFixedDeskRelease, true
	}
	return KindUserBooking, false
}

// MarshalText implements encoding.TextMarshaler.
func (k ReservationKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ReservationKind) UnmarshalText(b []byte) error {
	parsed, ok := ParseReservationKind(string(b))
	if !ok {
		return fmt.Errorf("unknown reservation kind %q", b)
	}
	*k = parsed
	return nil
}

// Reservation is a single ledger record for a desk on a date.
// Cancellation never deletes a row; it fills CanceledBy and CanceledAt.
//
// Fields:
//  ID          – store-assigned identifier.
//  Date        – calendar day of the booking.
//  DeskName    – name of the desk (not a foreign key).
//  Kind        – user booking or fixed-desk release.
//  CreatedBy   – booking user, or the audit display name for releases.
//  CreatedAt   – creation timestamp.
//  CanceledBy  – user who canceled/released (nil while active).
//  CanceledAt  – cancellation timestamp (nil while active).
//  CheckedInAt – check-in timestamp (nil until checked in).
type Reservation struct {
	ID          int64           `json:"id"`                      // reservations.id
	Date        Date            `json:"date"`                    // reservations.date
	DeskName    string          `json:"desk_name"`               // reservations.desk_name
	Kind        ReservationKind `json:"kind"`                    // reservations.kind
	CreatedBy   string          `json:"created_by"`              // reservations.created_by
	CreatedAt   time.Time       `json:"created_at"`              // reservations.created_at
	CanceledBy  *string         `json:"canceled_by,omitempty"`   // reservations.canceled_by (nullable)
	CanceledAt  *time.Time      `json:"canceled_at,omitempty"`   // reservations.canceled_at (nullable)
	CheckedInAt *time.Time      `json:"checked_in_at,omitempty"` // reservations.checked_in_at (nullable)
}

// Active reports whether the record has not been canceled.
func (r Reservation) Active() bool { return r.CanceledAt == nil }

// IsFixedDeskRelease reports whether r frees a fixed desk for its date.
func (r Reservation) IsFixedDeskRelease() bool {
	return r.Kind == KindFixedDeskRelease &&
		r.CanceledBy != nil && *r.CanceledBy != "" &&
		r.CanceledAt != nil
}

// LocalPart returns the part of an e-mail style identifier before "@".
func LocalPart(user string) string {
	if i := strings.IndexByte(user, '@'); i >= 0 {
		return user[:i]
	}
	return user
}
