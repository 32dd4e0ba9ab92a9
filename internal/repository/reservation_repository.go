package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/desk-reservation/internal/model"
)

// ReservationRepo provides the ledger operations for desk reservations.
// Rows are never deleted: cancellation fills canceled_at/canceled_by and
// a fixed-desk release is a new row inserted already canceled.  The
// unique indexes over active rows are the only concurrency control;
// insert rejections are reported as ErrDeskTaken or ErrAlreadyBooked.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, date, desk_name, kind, created_by, created_at, canceled_by, canceled_at, checked_in_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var (
		res        model.Reservation
		date, kind string
		createdAt  int64
		canceledBy sql.NullString
		canceledAt sql.NullInt64
		checkedIn  sql.NullInt64
	)
	if err := row.Scan(&res.ID, &date, &res.DeskName, &kind, &res.CreatedBy, &createdAt,
		&canceledBy, &canceledAt, &checkedIn); err != nil {
		return model.Reservation{}, err
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Date = d
	k, ok := model.ParseReservationKind(kind)
	if !ok {
		return model.Reservation{}, fmt.Errorf("reservation %d: unknown kind %q", res.ID, kind)
	}
	res.Kind = k
	res.CreatedAt = fromMillis(createdAt)
	res.CanceledBy = nullString(canceledBy)
	res.CanceledAt = nullMillis(canceledAt)
	res.CheckedInAt = nullMillis(checkedIn)
	return res, nil
}

func (r *ReservationRepo) query(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByDate returns every record for the date, canceled ones included,
// ordered by id.
func (r *ReservationRepo) ListByDate(ctx context.Context, date model.Date) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE date = ? ORDER BY id`
	return r.query(ctx, q, date.String())
}

// GetByID returns a single record.  ErrReservationNotFound is returned
// when the id does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id int64) (model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrReservationNotFound
	}
	return res, err
}

// ListActiveByUserSince returns the user's active bookings dated on or
// after since.
func (r *ReservationRepo) ListActiveByUserSince(ctx context.Context, userName string, since model.Date) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE created_by = ? AND date >= ? AND canceled_at IS NULL AND kind = 'BOOKING'
	           ORDER BY date, id`
	return r.query(ctx, q, userName, since.String())
}

// ListActiveByUsersOnDate returns the active bookings made by any of the
// given users on the date.  An empty user list yields an empty result.
func (r *ReservationRepo) ListActiveByUsersOnDate(ctx context.Context, userNames []string, date model.Date) ([]model.Reservation, error) {
	if len(userNames) == 0 {
		return []model.Reservation{}, nil
	}
	args := make([]any, 0, len(userNames)+1)
	args = append(args, date.String())
	for _, u := range userNames {
		args = append(args, u)
	}
	q := `SELECT ` + reservationColumns + ` FROM reservations
	      WHERE date = ? AND canceled_at IS NULL AND kind = 'BOOKING'
	        AND created_by IN (` + placeholders(len(userNames)) + `)
	      ORDER BY id`
	return r.query(ctx, q, args...)
}

// Insert creates an active booking and returns the stored record.
// Uniqueness rejections are returned as ErrDeskTaken or ErrAlreadyBooked.
func (r *ReservationRepo) Insert(ctx context.Context, date model.Date, deskName, createdBy string, createdAt time.Time) (model.Reservation, error) {
	const q = `INSERT INTO reservations (date, desk_name, kind, created_by, created_at) VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, date.String(), deskName, model.KindUserBooking.String(), createdBy, toMillis(createdAt))
	if err != nil {
		return model.Reservation{}, classifyInsertErr(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Reservation{}, err
	}
	return model.Reservation{
		ID:        id,
		Date:      date,
		DeskName:  deskName,
		Kind:      model.KindUserBooking,
		CreatedBy: createdBy,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
	}, nil
}

// InsertFixedDeskRelease appends an already-canceled release record for
// a fixed desk.  displayName is stored in created_by for audit readability.
func (r *ReservationRepo) InsertFixedDeskRelease(ctx context.Context, date model.Date, deskName, displayName, canceledBy string, canceledAt time.Time) (model.Reservation, error) {
	const q = `INSERT INTO reservations (date, desk_name, kind, created_by, created_at, canceled_by, canceled_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	ms := toMillis(canceledAt)
	result, err := r.db.ExecContext(ctx, q, date.String(), deskName, model.KindFixedDeskRelease.String(),
		displayName, ms, canceledBy, ms)
	if err != nil {
		return model.Reservation{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Reservation{}, err
	}
	at := fromMillis(ms)
	by := canceledBy
	return model.Reservation{
		ID:         id,
		Date:       date,
		DeskName:   deskName,
		Kind:       model.KindFixedDeskRelease,
		CreatedBy:  displayName,
		CreatedAt:  at,
		CanceledBy: &by,
		CanceledAt: &at,
	}, nil
}

// UpdateCancellation cancels an active record.  A missing or already
// canceled id yields ErrReservationNotFound, so a record is never
// canceled twice.
func (r *ReservationRepo) UpdateCancellation(ctx context.Context, id int64, canceledBy string, canceledAt time.Time) error {
	const q = `UPDATE reservations SET canceled_at = ?, canceled_by = ? WHERE id = ? AND canceled_at IS NULL`
	return r.execOne(ctx, q, toMillis(canceledAt), canceledBy, id)
}

// UpdateCheckin stamps the check-in time on an active record.
func (r *ReservationRepo) UpdateCheckin(ctx context.Context, id int64, checkedInAt time.Time) error {
	const q = `UPDATE reservations SET checked_in_at = ? WHERE id = ? AND canceled_at IS NULL`
	return r.execOne(ctx, q, toMillis(checkedInAt), id)
}

func (r *ReservationRepo) execOne(ctx context.Context, q string, args ...any) error {
	result, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// LogFilter narrows ListLog.  Date matches exactly; the other fields are
// case-insensitive substring matches.  Empty fields do not filter.
type LogFilter struct {
	Date       *model.Date
	Desk       string
	CreatedBy  string
	CanceledBy string
	Limit      int
}

// DefaultLogLimit caps ListLog when no limit is given.
const DefaultLogLimit = 500

// ListLog returns reservation records newest date first, then newest
// created first, for the administrative log.
func (r *ReservationRepo) ListLog(ctx context.Context, f LogFilter) ([]model.Reservation, error) {
	limit := f.Limit
	if limit <= 0 || limit > DefaultLogLimit {
		limit = DefaultLogLimit
	}
	var (
		where []string
		args  []any
	)
	if f.Date != nil {
		where = append(where, "date = ?")
		args = append(args, f.Date.String())
	}
	for _, c := range []struct{ column, value string }{
		{"desk_name", f.Desk},
		{"created_by", f.CreatedBy},
		{"COALESCE(canceled_by, '')", f.CanceledBy},
	} {
		if s := strings.ToLower(strings.TrimSpace(c.value)); s != "" {
			// INSTR matches the text literally on both drivers.
			where = append(where, "INSTR(LOWER("+c.column+"), ?) > 0")
			args = append(args, s)
		}
	}
	q := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY date DESC, created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)
	return r.query(ctx, q, args...)
}
