package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims identify a guest checkout session. Guests are anonymous; the token
// scopes them to one organisation and one checkout session.
type Claims struct {
	OrganisationID uuid.UUID `json:"organisation_id"`
	SessionID      uuid.UUID `json:"session_id"`
	jwt.RegisteredClaims
}

// GenerateToken issues a guest session token. Checkout sessions are short
// lived; two hours comfortably covers ordering plus payment review.
func GenerateToken(secret string, organisationID, sessionID uuid.UUID) (string, error) {
	claims := Claims{
		OrganisationID: organisationID,
		SessionID:      sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
