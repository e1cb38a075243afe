package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

// ClaimsKey is the request-context key under which the authentication
// middleware stores the verified claims.
const ClaimsKey ctxKey = 1

type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Keys holds the HMAC secret used to sign and verify tokens.
type Keys struct {
	secret []byte
}

func NewKeys(secret string) (*Keys, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}
	return &Keys{secret: []byte(secret)}, nil
}

// GenerateToken issues an HS256 token for the user, valid for ttl.
func (k *Keys) GenerateToken(userID int64, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(k.secret)
}

// VerifyToken parses and validates a signed token, returning its claims.
func (k *Keys) VerifyToken(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return Claims{}, fmt.Errorf("invalid token")
	}
	return claims, nil
}
