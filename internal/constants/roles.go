package constants

import (
	"database/sql/driver"
	"fmt"
)

// Role is the actor class carried in a bearer token.
type Role string

const (
	RoleCaptain Role = "captain"
	RoleOffice  Role = "office"
	RoleAdmin   Role = "admin"
)

// Stringer ­– convenient for fmt / logs
func (r Role) String() string { return string(r) }

// IsShore reports whether the role belongs to office staff.
func (r Role) IsShore() bool { return r == RoleOffice || r == RoleAdmin }

/* ---------- DB adapters so sqlx (or database/sql) scans/values cleanly ---------- */

// Scan implements the sql.Scanner interface
func (r *Role) Scan(src interface{}) error {
	if src == nil {
		*r = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*r = Role(v)
	case []byte:
		*r = Role(v)
	default:
		return fmt.Errorf("Role: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (r Role) Value() (driver.Value, error) { return string(r), nil }
