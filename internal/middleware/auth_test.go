package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seaborne/voyagedesk/internal/auth"
	"seaborne/voyagedesk/internal/constants"
	models "seaborne/voyagedesk/internal/models/gorm"
)

var testSecret = []byte("test-secret")

type mockUsers struct {
	users map[string]*models.User
}

func (m *mockUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func captainUser() *models.User {
	vessel := "vessel-1"
	return &models.User{ID: "captain-1", Role: constants.RoleCaptain, VesselID: &vessel, IsActive: true}
}

func TestAuthMiddleware_UsesStoredRoleAndVessel(t *testing.T) {
	users := &mockUsers{users: map[string]*models.User{"captain-1": captainUser()}}
	// token claims an office role; the stored account wins
	token, err := auth.IssueToken(testSecret, "captain-1", constants.RoleOffice, "", time.Hour)
	if err != nil {
		t.Fatalf("Expected token, got %v", err)
	}

	var got auth.UserClaims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.GetUserClaims(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	AuthMiddleware(testSecret, users)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if got == nil {
		t.Fatal("Expected claims in context")
	}
	if got.Role() != constants.RoleCaptain {
		t.Errorf("Expected role captain, got %s", got.Role())
	}
	if got.VesselID() != "vessel-1" {
		t.Errorf("Expected vessel-1, got %s", got.VesselID())
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	users := &mockUsers{users: map[string]*models.User{}}
	unknown, _ := auth.IssueToken(testSecret, "ghost", constants.RoleOffice, "", time.Hour)
	foreign, _ := auth.IssueToken([]byte("other-secret"), "captain-1", constants.RoleCaptain, "vessel-1", time.Hour)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"wrong secret": "Bearer " + foreign,
		"unknown user": "Bearer " + unknown,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		AuthMiddleware(testSecret, users)(http.NotFoundHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status 401, got %d", name, rr.Code)
		}
	}
}

func TestRoleGates(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	captain := &auth.JWTClaims{UserUUID: "c", RoleValue: constants.RoleCaptain, VesselUUID: "vessel-1"}
	unassigned := &auth.JWTClaims{UserUUID: "u", RoleValue: constants.RoleCaptain}
	office := &auth.JWTClaims{UserUUID: "o", RoleValue: constants.RoleOffice}
	admin := &auth.JWTClaims{UserUUID: "a", RoleValue: constants.RoleAdmin}

	cases := []struct {
		name   string
		gate   func(http.Handler) http.Handler
		claims auth.UserClaims
		want   int
	}{
		{"office admits office", IsOfficeMiddleware(), office, http.StatusNoContent},
		{"office admits admin", IsOfficeMiddleware(), admin, http.StatusNoContent},
		{"office rejects captain", IsOfficeMiddleware(), captain, http.StatusForbidden},
		{"captain admits captain", IsCaptainMiddleware(), captain, http.StatusNoContent},
		{"captain rejects unassigned", IsCaptainMiddleware(), unassigned, http.StatusForbidden},
		{"captain rejects office", IsCaptainMiddleware(), office, http.StatusForbidden},
		{"no claims", IsOfficeMiddleware(), nil, http.StatusForbidden},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if tc.claims != nil {
			req = req.WithContext(auth.SetUserClaims(req.Context(), tc.claims))
		}
		rr := httptest.NewRecorder()
		tc.gate(ok).ServeHTTP(rr, req)

		if rr.Code != tc.want {
			t.Errorf("%s: expected status %d, got %d", tc.name, tc.want, rr.Code)
		}
	}
}
