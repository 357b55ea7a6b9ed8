package middleware

import (
	"context"
	"net/http"
	"strings"

	"seaborne/voyagedesk/internal/auth"
	"seaborne/voyagedesk/internal/logging"
	models "seaborne/voyagedesk/internal/models/gorm"
)

// UserLookup resolves the account behind a token.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware accepts HS256 bearer tokens. Role and vessel are taken
// from the stored account, so deactivating a user or moving a captain takes
// effect without reissuing tokens.
func AuthMiddleware(secret []byte, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Unauthorized. Missing bearer token", http.StatusUnauthorized)
				return
			}

			tokenClaims, err := auth.ParseToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				http.Error(w, "Unauthorized. Invalid token", http.StatusUnauthorized)
				return
			}

			user, err := users.GetUserByID(r.Context(), tokenClaims.UserID())
			if err != nil {
				logging.Warn("Token for unknown or inactive user", "user_id", tokenClaims.UserID(), "error", err)
				http.Error(w, "Unauthorized. Unknown user", http.StatusUnauthorized)
				return
			}

			claims := &auth.JWTClaims{
				UserUUID:  user.ID,
				RoleValue: user.Role,
			}
			if user.VesselID != nil {
				claims.VesselUUID = *user.VesselID
			}

			if info := requestInfoFrom(r.Context()); info != nil {
				info.userID = claims.UserID()
				info.vesselID = claims.VesselID()
			}

			ctx := auth.SetUserClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
