package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "seniorbuddy"

// Claims is the payload of a session token.
//
// RegisteredClaims.ID carries the session id. Sign-out revokes that id,
// which is how a stateless token can still be torn down before it expires.
type Claims struct {
	UID   string `json:"uid"`
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for one session.
func GenerateToken(sessionID, uid, phone, secret string, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UID:   uid,
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   uid,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature, expiry and issuer and returns the claims.
//
// Only HMAC is accepted; a token claiming "none" or RSA is rejected before
// its signature is looked at.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UID == "" || claims.ID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
