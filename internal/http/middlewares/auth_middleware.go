package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/fintrack/internal/auth"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireAuth answers every failure with the same 401 body so callers cannot tell a
// missing header from a bad signature or an expired token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, raw, found := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
		raw = strings.TrimSpace(raw)

		if !found || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil || claims == nil || claims.UserID <= 0 {
			abortUnauthorized(c)
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Request = c.Request.WithContext(observability.WithUserID(c.Request.Context(), claims.UserID))

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	reqID, _ := c.Get(CtxRequestID)

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":      "unauthorized",
			"message":   "Authentication required",
			"requestId": reqID,
		},
	})
}

// UserIDFromContext returns the authenticated caller id set by RequireAuth.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxEmail)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}
