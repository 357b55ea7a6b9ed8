package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"seaborne/voyagedesk/internal/auth"
	"seaborne/voyagedesk/internal/common"
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

// requireClaims writes a 401 and returns nil when the auth middleware did
// not run.
func requireClaims(w http.ResponseWriter, r *http.Request, initTime time.Time) auth.UserClaims {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
	}
	return claims
}

// decodeBody reads a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, initTime time.Time, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		common.RespondError(w, initTime, fmt.Errorf("invalid request body: %w", err), "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
