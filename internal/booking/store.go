package booking

import (
	"context"
	"time"

	"github.com/iliyamo/desk-reservation/internal/model"
)

// DeskStore lists the desks of the floor plan.  Implemented by
// repository.DeskRepo.
type DeskStore interface {
	ListActive(ctx context.Context) ([]model.Desk, error)
}

// ReservationStore is the persisted ledger.  Implemented by
// repository.ReservationRepo.  Insert must enforce uniqueness of active
// records per (date, desk) and per (date, user) and report rejections as
// repository.ErrDeskTaken or repository.ErrAlreadyBooked.
type ReservationStore interface {
	ListByDate(ctx context.Context, date model.Date) ([]model.Reservation, error)
	GetByID(ctx context.Context, id int64) (model.Reservation, error)
	ListActiveByUserSince(ctx context.Context, userName string, since model.Date) ([]model.Reservation, error)
	ListActiveByUsersOnDate(ctx context.Context, userNames []string, date model.Date) ([]model.Reservation, error)

	Insert(ctx context.Context, date model.Date, deskName, createdBy string, createdAt time.Time) (model.Reservation, error)
	InsertFixedDeskRelease(ctx context.Context, date model.Date, deskName, displayName, canceledBy string, canceledAt time.Time) (model.Reservation, error)
	UpdateCancellation(ctx context.Context, id int64, canceledBy string, canceledAt time.Time) error
	UpdateCheckin(ctx context.Context, id int64, checkedInAt time.Time) error
}

// UserStore reads user profiles.  Implemented by repository.UserRepo.
type UserStore interface {
	GetByUserName(ctx context.Context, userName string) (model.UserRef, error)
	ListInOrgUnit(ctx context.Context, field model.OrgUnitField, value, excluding string) ([]model.UserRef, error)
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserName string
	Admin    bool
}

// Clock returns the current time.  Tests inject a fixed clock.
type Clock func() time.Time
