package auth

import "seaborne/voyagedesk/internal/constants"

// UserClaims is the authenticated identity attached to a request.
type UserClaims interface {
	UserID() string
	Role() constants.Role
	// VesselID is the vessel a captain sails; empty for shore staff.
	VesselID() string
	Source() string
}

type JWTClaims struct {
	UserUUID   string
	RoleValue  constants.Role
	VesselUUID string
}

func (c *JWTClaims) UserID() string       { return c.UserUUID }
func (c *JWTClaims) Role() constants.Role { return c.RoleValue }
func (c *JWTClaims) VesselID() string     { return c.VesselUUID }
func (c *JWTClaims) Source() string       { return "JWT" }

// CanActForVessel reports whether the caller may file or edit reports of
// vesselID. Shore staff act for every vessel.
func CanActForVessel(c UserClaims, vesselID string) bool {
	if c == nil {
		return false
	}
	if c.Role().IsShore() {
		return true
	}
	return c.Role() == constants.RoleCaptain && c.VesselID() == vesselID
}
