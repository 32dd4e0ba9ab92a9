package model

import "strings"

// UserRef is the slice of a user profile the booking core needs: the
// identifier used on reservations and the organisational units used as
// proximity signals.  Org units are managed elsewhere.
//
// Fields:
//  UserName      – identifier stored in reservations.created_by.
//  NucleoID      – team unit (nil if unset).
//  CoordenacaoID – department unit (nil if unset).
//  Active        – whether the account is active.
//  Admin         – whether the user may act on other users' bookings.
type UserRef struct {
	UserName      string  // users.user_name
	NucleoID      *string // users.nucleo_id (nullable)
	CoordenacaoID *string // users.coordenacao_id (nullable)
	Active        bool    // users.is_active
	Admin         bool    // users.is_admin
}

// OrgUnitField names a users column holding an organisational unit.
type OrgUnitField string

const (
	OrgUnitNucleo      OrgUnitField = "nucleo_id"
	OrgUnitCoordenacao OrgUnitField = "coordenacao_id"
)

// Valid reports whether f is one of the known org unit columns.
func (f OrgUnitField) Valid() bool {
	return f == OrgUnitNucleo || f == OrgUnitCoordenacao
}

// NormalizeUserName is the canonical form of a user name: trimmed and
// lower case.
func NormalizeUserName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
