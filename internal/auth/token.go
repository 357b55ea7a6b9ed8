package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"seaborne/voyagedesk/internal/constants"
)

const tokenIssuer = "voyagedesk"

var ErrInvalidToken = errors.New("invalid token")

// tokenBody is the signed payload of a bearer token.
type tokenBody struct {
	Role     constants.Role `json:"role"`
	VesselID string         `json:"vessel_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 bearer token for a user.
func IssueToken(secret []byte, userID string, role constants.Role, vesselID string, ttl time.Duration) (string, error) {
	now := time.Now()
	body := tokenBody{
		Role:     role,
		VesselID: vesselID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, body).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature, issuer and expiry and returns the claims.
func ParseToken(secret []byte, raw string) (*JWTClaims, error) {
	var body tokenBody
	_, err := jwt.ParseWithClaims(raw, &body, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if body.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &JWTClaims{
		UserUUID:   body.Subject,
		RoleValue:  body.Role,
		VesselUUID: body.VesselID,
	}, nil
}
