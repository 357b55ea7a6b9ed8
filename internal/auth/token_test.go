package auth

import (
	"errors"
	"testing"
	"time"

	"seaborne/voyagedesk/internal/constants"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := IssueToken(secret, "user-1", constants.RoleCaptain, "vessel-1", time.Hour)
	if err != nil {
		t.Fatalf("Expected token, got error %v", err)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("Expected valid token, got %v", err)
	}
	if claims.UserID() != "user-1" {
		t.Errorf("Expected user-1, got %s", claims.UserID())
	}
	if claims.Role() != constants.RoleCaptain {
		t.Errorf("Expected captain role, got %s", claims.Role())
	}
	if !CanActForVessel(claims, "vessel-1") {
		t.Error("Expected captain to act for own vessel")
	}
	if CanActForVessel(claims, "vessel-2") {
		t.Error("Expected captain not to act for another vessel")
	}
}

func TestParseToken_RejectsWrongSecretAndExpiry(t *testing.T) {
	token, _ := IssueToken([]byte("a"), "user-1", constants.RoleOffice, "", time.Hour)
	if _, err := ParseToken([]byte("b"), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for wrong secret, got %v", err)
	}

	expired, _ := IssueToken([]byte("a"), "user-1", constants.RoleOffice, "", -time.Minute)
	if _, err := ParseToken([]byte("a"), expired); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestCanActForVessel_Shore(t *testing.T) {
	office := &JWTClaims{UserUUID: "u", RoleValue: constants.RoleOffice}
	if !CanActForVessel(office, "any") {
		t.Error("Expected office user to act for any vessel")
	}
	if CanActForVessel(nil, "any") {
		t.Error("Expected nil claims to be refused")
	}
}
