package booking

import (
	"time"

	"github.com/iliyamo/desk-reservation/internal/model"
)

const (
	// DefaultBookingDays is how many business days are offered.
	DefaultBookingDays = 6
	// maxScanDays bounds the calendar scan for business days.
	maxScanDays = 14
)

// AvailableDates returns the next n business days (Monday to Friday)
// starting with today, looking at most two weeks ahead.
func AvailableDates(now time.Time, n int) []model.Date {
	if n <= 0 {
		n = DefaultBookingDays
	}
	out := make([]model.Date, 0, n)
	day := model.DateOf(now)
	for i := 0; i < maxScanDays && len(out) < n; i++ {
		d := day.AddDays(i)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}
