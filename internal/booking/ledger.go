package booking

import (
	"context"
	"errors"
	"log"

	"github.com/iliyamo/desk-reservation/internal/metrics"
	"github.com/iliyamo/desk-reservation/internal/model"
	"github.com/iliyamo/desk-reservation/internal/repository"
)

// Ledger is the read side of the reservation store.  Every failure is
// logged, counted and returned as ErrStoreUnavailable so callers can
// degrade.
type Ledger struct {
	reservations ReservationStore
	users        UserStore
	metrics      *metrics.Metrics
}

// NewLedger builds a Ledger.  m may be nil.
func NewLedger(reservations ReservationStore, users UserStore, m *metrics.Metrics) *Ledger {
	return &Ledger{reservations: reservations, users: users, metrics: m}
}

func (l *Ledger) fail(op string, err error) error {
	log.Printf("ledger: %s: %v", op, err)
	l.metrics.StoreError(op)
	return storeUnavailable(op, err)
}

// RecordsForDate returns every record of the date, canceled ones included.
func (l *Ledger) RecordsForDate(ctx context.Context, date model.Date) ([]model.Reservation, error) {
	recs, err := l.reservations.ListByDate(ctx, date)
	if err != nil {
		return nil, l.fail("records_for_date", err)
	}
	return recs, nil
}

// RecordsForUserSince returns the user's active bookings from since on.
func (l *Ledger) RecordsForUserSince(ctx context.Context, userName string, since model.Date) ([]model.Reservation, error) {
	recs, err := l.reservations.ListActiveByUserSince(ctx, userName, since)
	if err != nil {
		return nil, l.fail("records_for_user_since", err)
	}
	return recs, nil
}

// RecordsForUsersOnDate returns the active bookings of the given users
// on the date.
func (l *Ledger) RecordsForUsersOnDate(ctx context.Context, userNames []string, date model.Date) ([]model.Reservation, error) {
	if len(userNames) == 0 {
		return nil, nil
	}
	recs, err := l.reservations.ListActiveByUsersOnDate(ctx, userNames, date)
	if err != nil {
		return nil, l.fail("records_for_users_on_date", err)
	}
	return recs, nil
}

// User returns the profile of userName.  A missing profile is reported
// as ErrNotFound, not as a store failure.
func (l *Ledger) User(ctx context.Context, userName string) (model.UserRef, error) {
	u, err := l.users.GetByUserName(ctx, userName)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.UserRef{}, notFoundError("user not found")
	}
	if err != nil {
		return model.UserRef{}, l.fail("user", err)
	}
	return u, nil
}

// UsersInOrgUnit returns the user names sharing an org unit value,
// excluding the requester.
func (l *Ledger) UsersInOrgUnit(ctx context.Context, field model.OrgUnitField, value, excluding string) ([]string, error) {
	users, err := l.users.ListInOrgUnit(ctx, field, value, excluding)
	if err != nil {
		return nil, l.fail("users_in_org_unit", err)
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.UserName)
	}
	return names, nil
}
