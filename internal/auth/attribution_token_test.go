package auth

import (
	"strings"
	"testing"
	"time"
)

func TestAttributionTokenRoundtrip(t *testing.T) {
	InitJWT("test-secret")

	userID := uint(42)
	session := "visitor-abc"
	attributedAt := time.Now().Truncate(time.Second)
	expiresAt := attributedAt.Add(30 * 24 * time.Hour)

	token, err := SignAttributionToken("SOMMER20", &userID, &session, attributedAt, expiresAt)
	if err != nil {
		t.Fatalf("SignAttributionToken failed: %v", err)
	}

	claims, err := ParseAttributionToken(token)
	if err != nil {
		t.Fatalf("ParseAttributionToken failed: %v", err)
	}

	if claims.Code != "SOMMER20" {
		t.Errorf("expected code SOMMER20, got %s", claims.Code)
	}
	if claims.OriginalUserID == nil || *claims.OriginalUserID != userID {
		t.Errorf("expected original user %d, got %v", userID, claims.OriginalUserID)
	}
	if claims.VisitorSession == nil || *claims.VisitorSession != session {
		t.Errorf("expected visitor session %s, got %v", session, claims.VisitorSession)
	}
	if !claims.AttributedAt().Equal(attributedAt) {
		t.Errorf("expected attributed at %s, got %s", attributedAt, claims.AttributedAt())
	}
	if !claims.ExpiryTime().Equal(expiresAt) {
		t.Errorf("expected expiry %s, got %s", expiresAt, claims.ExpiryTime())
	}
}

func TestAttributionTokenTamperedRejected(t *testing.T) {
	InitJWT("test-secret")

	now := time.Now()
	token, err := SignAttributionToken("SOMMER20", nil, nil, now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("SignAttributionToken failed: %v", err)
	}

	// Flip a character in the payload segment
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := ParseAttributionToken(tampered); err == nil {
		t.Error("expected tampered token to be rejected")
	}

	if _, err := ParseAttributionToken("not-a-token"); err == nil {
		t.Error("expected garbage token to be rejected")
	}
}

func TestAttributionTokenExpiredRejected(t *testing.T) {
	InitJWT("test-secret")

	now := time.Now()
	token, err := SignAttributionToken("SOMMER20", nil, nil, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("SignAttributionToken failed: %v", err)
	}

	if _, err := ParseAttributionToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestAttributionTokenWrongSecretRejected(t *testing.T) {
	InitJWT("secret-one")
	now := time.Now()
	token, err := SignAttributionToken("SOMMER20", nil, nil, now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("SignAttributionToken failed: %v", err)
	}

	InitJWT("secret-two")
	if _, err := ParseAttributionToken(token); err == nil {
		t.Error("expected token signed under a different secret to be rejected")
	}
	InitJWT("test-secret")
}
