package middleware

import (
	"net/http"

	"seaborne/voyagedesk/internal/auth"
	"seaborne/voyagedesk/internal/constants"
)

// IsOfficeMiddleware admits office staff and admins.
func IsOfficeMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			claims := auth.GetUserClaims(r.Context())

			if claims != nil && claims.Role().IsShore() {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Forbidden. Need office perms", http.StatusForbidden)
		})
	}
}

// IsCaptainMiddleware admits captains assigned to a vessel.
func IsCaptainMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			claims := auth.GetUserClaims(r.Context())

			if claims != nil && claims.Role() == constants.RoleCaptain && claims.VesselID() != "" {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Forbidden. Need captain perms", http.StatusForbidden)
		})
	}
}
