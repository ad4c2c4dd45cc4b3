package util

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdjudicatorClaims is the session token issued to a reviewer who presented
// the adjudication passcode.
type AdjudicatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

const RoleAdjudicator = "adjudicator"

func GenerateAdjudicatorJWT(secret string, expiration time.Duration) (string, error) {
	claims := &AdjudicatorClaims{
		Role: RoleAdjudicator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseAdjudicatorJWT(tokenString, secret string) (*AdjudicatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdjudicatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AdjudicatorClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}
