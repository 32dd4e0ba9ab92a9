// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// booking controller to distinguish between different failure scenarios
// without inspecting driver errors.  ErrDeskTaken and ErrAlreadyBooked
// are the store's own uniqueness rejections on (date, desk) and
// (date, user); callers should treat them as collisions with another
// writer, not as crashes.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ErrDeskTaken is returned when an active reservation already exists
// for the same desk and date.
var ErrDeskTaken = errors.New("desk already reserved for date")

// ErrAlreadyBooked is returned when the user already holds an active
// booking on the date.
var ErrAlreadyBooked = errors.New("user already booked for date")

// ErrReservationNotFound is returned when a reservation id does not
// exist or is no longer in the state an update requires.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// mysqlDuplicateEntry is MySQL's ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique-constraint violation from
// either supported driver.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}

// classifyInsertErr maps a reservation insert failure to ErrDeskTaken or
// ErrAlreadyBooked.  The (date, user) index is recognised by name on
// MySQL and by its column on SQLite; every other duplicate is a desk
// collision.
func classifyInsertErr(err error) error {
	if !isDuplicate(err) {
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "date_user") || strings.Contains(msg, "created_by") {
		return ErrAlreadyBooked
	}
	return ErrDeskTaken
}
