package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "keychain"

// Claims identify a keychain session: the controller it was issued for.
type Claims struct {
	ControllerID uuid.UUID `json:"controller_id"`
	Address      string    `json:"address"`
	jwt.RegisteredClaims
}

// GenerateJWT issues a session token. A non-positive expiration falls
// back to 24h.
func GenerateJWT(secret string, controllerID uuid.UUID, address string, expiration time.Duration) (string, error) {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}

	now := time.Now()
	claims := Claims{
		ControllerID: controllerID,
		Address:      address,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   controllerID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(secret string, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.ControllerID == uuid.Nil {
		return nil, fmt.Errorf("token has no controller")
	}
	return claims, nil
}
