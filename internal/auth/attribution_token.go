package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AttributionCookieName is the browser cookie carrying the signed attribution
// token for anonymous visitors.
const AttributionCookieName = "affiliate_attribution"

// AttributionClaims is the payload of the browser-side attribution token.
// The token is HS256-signed so a tampered or truncated cookie fails parsing
// and is treated as absent.
type AttributionClaims struct {
	Code           string  `json:"code"`
	OriginalUserID *uint   `json:"original_user_id,omitempty"`
	VisitorSession *string `json:"visitor_session,omitempty"`
	jwt.RegisteredClaims
}

// AttributedAt returns the time the code was captured
func (c *AttributionClaims) AttributedAt() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiryTime returns the embedded expiry of the attribution window
func (c *AttributionClaims) ExpiryTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// SignAttributionToken creates a signed attribution token for the given code.
// The expiry mirrors the durable attribution window.
func SignAttributionToken(code string, originalUserID *uint, visitorSession *string, attributedAt, expiresAt time.Time) (string, error) {
	if len(jwtSecret) == 0 {
		return "", fmt.Errorf("JWT secret not initialized")
	}

	claims := &AttributionClaims{
		Code:           code,
		OriginalUserID: originalUserID,
		VisitorSession: visitorSession,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(attributedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign attribution token: %w", err)
	}

	return tokenString, nil
}

// ParseAttributionToken validates a browser attribution token and returns its
// claims. Any parse, signature, or expiry failure is returned as an error;
// callers treat that as "no token" and clear the cookie.
func ParseAttributionToken(tokenString string) (*AttributionClaims, error) {
	if len(jwtSecret) == 0 {
		return nil, fmt.Errorf("JWT secret not initialized")
	}

	claims := &AttributionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse attribution token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid attribution token")
	}

	return claims, nil
}
