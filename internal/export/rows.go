// Package export shapes the administrative reservation log for display
// and writes it as a spreadsheet.
package export

import (
	"time"

	"github.com/iliyamo/desk-reservation/internal/model"
)

// Row statuses.
const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
)

// LogRow is one record of the administrative log.  User names are shown
// without their e-mail domain.
type LogRow struct {
	ID          int64      `json:"id"`
	Date        string     `json:"date"`
	Desk        string     `json:"desk"`
	Kind        string     `json:"kind"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	Status      string     `json:"status"`
	CanceledBy  string     `json:"canceled_by,omitempty"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

// Rows converts ledger records, keeping their order.
func Rows(recs []model.Reservation) []LogRow {
	out := make([]LogRow, 0, len(recs))
	for _, r := range recs {
		row := LogRow{
			ID:          r.ID,
			Date:        r.Date.String(),
			Desk:        r.DeskName,
			Kind:        r.Kind.String(),
			CreatedBy:   model.LocalPart(r.CreatedBy),
			CreatedAt:   r.CreatedAt,
			Status:      StatusActive,
			CanceledAt:  r.CanceledAt,
			CheckedIn:   r.CheckedInAt != nil,
			CheckedInAt: r.CheckedInAt,
		}
		if !r.Active() {
			row.Status = StatusCanceled
		}
		if r.CanceledBy != nil {
			row.CanceledBy = model.LocalPart(*r.CanceledBy)
		}
		out = append(out, row)
	}
	return out
}
