package booking

import (
	"github.com/iliyamo/desk-reservation/internal/model"
)

// Status is the occupancy of one desk on one date.
type Status int

const (
	StatusFree Status = iota
	// StatusReserved: an active reservation holds the desk.
	StatusReserved
	// StatusFixed: the desk's fixed assignee holds it and no release
	// record exists for the date.
	StatusFixed
)

func (s Status) String() string {
	switch s {
	case StatusReserved:
		return "reserved"
	case StatusFixed:
		return "fixed"
	}
	return "free"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// DeskAvailability is the resolved state of a desk.  Reservation is set
// for StatusReserved, Assignee for StatusFixed.
type DeskAvailability struct {
	Desk        model.Desk         `json:"desk"`
	Status      Status             `json:"status"`
	Reservation *model.Reservation `json:"reservation,omitempty"`
	Assignee    string             `json:"assignee,omitempty"`
}

// Free reports whether the desk can be booked.
func (a DeskAvailability) Free() bool { return a.Status == StatusFree }

// ResolveAvailability derives the occupancy of every desk from the full
// record set of a single date.  It is a pure function of its inputs and
// keeps the order of desks.
func ResolveAvailability(desks []model.Desk, records []model.Reservation) []DeskAvailability {
	out := make([]DeskAvailability, 0, len(desks))
	for _, d := range desks {
		out = append(out, resolveDesk(d, records))
	}
	return out
}

// resolveDesk applies, in order: an active record wins; otherwise a
// fixed desk is held by its assignee unless a release record exists;
// otherwise the desk is free.
func resolveDesk(desk model.Desk, records []model.Reservation) DeskAvailability {
	for i := range records {
		r := records[i]
		if r.DeskName == desk.Name && r.Active() {
			return DeskAvailability{Desk: desk, Status: StatusReserved, Reservation: &r}
		}
	}
	if desk.IsFixed() {
		for _, r := range records {
			if r.DeskName == desk.Name && r.IsFixedDeskRelease() {
				return DeskAvailability{Desk: desk, Status: StatusFree}
			}
		}
		return DeskAvailability{Desk: desk, Status: StatusFixed, Assignee: desk.Assignee()}
	}
	return DeskAvailability{Desk: desk, Status: StatusFree}
}

// FreeDesks returns the free desks in input order.
func FreeDesks(avail []DeskAvailability) []model.Desk {
	free := make([]model.Desk, 0, len(avail))
	for _, a := range avail {
		if a.Free() {
			free = append(free, a.Desk)
		}
	}
	return free
}

// FreeCount returns the number of free desks.
func FreeCount(avail []DeskAvailability) int {
	n := 0
	for _, a := range avail {
		if a.Free() {
			n++
		}
	}
	return n
}

// activeBookingOf returns the user's active booking among records.
func activeBookingOf(records []model.Reservation, userName string) (model.Reservation, bool) {
	for _, r := range records {
		if r.Kind == model.KindUserBooking && r.Active() && r.CreatedBy == userName {
			return r, true
		}
	}
	return model.Reservation{}, false
}
