package repository // repository defines data access for desks

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/desk-reservation/internal/model"
)

// ErrDeskNotFound is returned when a desk lookup yields no rows.
var ErrDeskNotFound = errors.New("desk not found")

// DeskRepo provides read access to the floor-plan desk inventory plus
// the upsert used by the seeding tool.  Desk administration itself lives
// outside this service.
type DeskRepo struct {
	db *sql.DB
}

// NewDeskRepo constructs a DeskRepo with the given DB handle.
func NewDeskRepo(db *sql.DB) *DeskRepo {
	return &DeskRepo{db: db}
}

const deskColumns = `id, number, desk_name, grid_row, grid_col, row_span, col_span, fixed_reserve, is_active`

func scanDesk(row interface{ Scan(...any) error }) (model.Desk, error) {
	var d model.Desk
	var fixed sql.NullString
	if err := row.Scan(&d.ID, &d.Number, &d.Name, &d.GridRow, &d.GridCol,
		&d.RowSpan, &d.ColSpan, &fixed, &d.Active); err != nil {
		return model.Desk{}, err
	}
	d.FixedAssignee = nullString(fixed)
	if d.RowSpan < 1 {
		d.RowSpan = 1
	}
	if d.ColSpan < 1 {
		d.ColSpan = 1
	}
	return d, nil
}

// ListActive returns all active desks ordered by number.
func (r *DeskRepo) ListActive(ctx context.Context) ([]model.Desk, error) {
	const q = `SELECT ` + deskColumns + ` FROM desks WHERE is_active = 1 ORDER BY number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	desks := make([]model.Desk, 0)
	for rows.Next() {
		d, err := scanDesk(rows)
		if err != nil {
			return nil, err
		}
		desks = append(desks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return desks, nil
}

// GetByNumber returns a desk by its human-facing number.
func (r *DeskRepo) GetByNumber(ctx context.Context, number int) (model.Desk, error) {
	const q = `SELECT ` + deskColumns + ` FROM desks WHERE number = ?`
	d, err := scanDesk(r.db.QueryRowContext(ctx, q, number))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Desk{}, ErrDeskNotFound
	}
	return d, err
}

// Upsert inserts a desk or updates the desk with the same number.  It is
// implemented as update-then-insert so the statement set is portable
// across MySQL and SQLite.
func (r *DeskRepo) Upsert(ctx context.Context, d model.Desk) error {
	var fixed any
	if d.IsFixed() {
		fixed = d.Assignee()
	}
	const upd = `UPDATE desks SET desk_name = ?, grid_row = ?, grid_col = ?, row_span = ?, col_span = ?,
	                     fixed_reserve = ?, is_active = ?
	             WHERE number = ?`
	res, err := r.db.ExecContext(ctx, upd, d.Name, d.GridRow, d.GridCol, d.RowSpan, d.ColSpan,
		fixed, d.Active, d.Number)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	const ins = `INSERT INTO desks (number, desk_name, grid_row, grid_col, row_span, col_span, fixed_reserve, is_active)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, ins, d.Number, d.Name, d.GridRow, d.GridCol, d.RowSpan, d.ColSpan,
		fixed, d.Active)
	if isDuplicate(err) {
		// MySQL reports zero affected rows when the update changed nothing.
		if _, getErr := r.GetByNumber(ctx, d.Number); getErr == nil {
			return nil
		}
	}
	return err
}
