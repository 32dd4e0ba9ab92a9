package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/desk-reservation/internal/model"
)

// UserRepo reads the user directory.  Profiles and org units are
// maintained by another system; this service only looks them up.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `user_name, nucleo_id, coordenacao_id, is_active, is_admin`

func scanUser(row interface{ Scan(...any) error }) (model.UserRef, error) {
	var u model.UserRef
	var nucleo, coord sql.NullString
	if err := row.Scan(&u.UserName, &nucleo, &coord, &u.Active, &u.Admin); err != nil {
		return model.UserRef{}, err
	}
	u.NucleoID = nullString(nucleo)
	u.CoordenacaoID = nullString(coord)
	return u, nil
}

// GetByUserName fetches an active user.
func (r *UserRepo) GetByUserName(ctx context.Context, userName string) (model.UserRef, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_name=? AND is_active=1 LIMIT 1", userName))
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserRef{}, ErrUserNotFound
	}
	return u, err
}

// ListInOrgUnit returns active users whose field equals value, excluding
// one user name.
func (r *UserRepo) ListInOrgUnit(ctx context.Context, field model.OrgUnitField, value, excluding string) ([]model.UserRef, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("unknown org unit field %q", field)
	}
	// field is one of two fixed column names, never user input.
	q := "SELECT " + userColumns + " FROM users WHERE " + string(field) + "=? AND user_name<>? AND is_active=1 ORDER BY user_name"
	rows, err := r.DB.QueryContext(ctx, q, value, excluding)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.UserRef, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Upsert inserts or updates a user row.  Used by the seeding tool.
func (r *UserRepo) Upsert(ctx context.Context, u model.UserRef) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET nucleo_id=?, coordenacao_id=?, is_active=?, is_admin=? WHERE user_name=?",
		u.NucleoID, u.CoordenacaoID, u.Active, u.Admin, u.UserName)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (user_name, nucleo_id, coordenacao_id, is_active, is_admin) VALUES (?,?,?,?,?)",
		u.UserName, u.NucleoID, u.CoordenacaoID, u.Active, u.Admin)
	if isDuplicate(err) {
		return nil
	}
	return err
}
