package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonFloz/P3-31899312/internal/auth"
	"github.com/JonFloz/P3-31899312/pkg/jsend"

	"github.com/gin-gonic/gin"
)

type Mid struct {
	keys *auth.Keys
}

func NewMid(keys *auth.Keys) (*Mid, error) {
	if keys == nil {
		return nil, fmt.Errorf("keys are nil")
	}
	return &Mid{keys: keys}, nil
}

// Authentication verifies the bearer token and stores the claims in the
// request context for downstream handlers.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, jsend.Fail("expected authorization header format: Bearer <token>"))
			return
		}

		claims, err := m.keys.VerifyToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, jsend.Fail("invalid or expired token"))
			return
		}

		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
