package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sushiDelivery/internal/auth"
	"sushiDelivery/models"
)

const principalKey = "principal"

// AuthMiddleware validates the bearer token and stores the principal on the context.
// Websocket clients that cannot set headers may pass the token as ?token=.
func AuthMiddleware(secret string, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if tok := c.Query("token"); tok != "" {
				header = "Bearer " + tok
			}
		}
		if header == "" {
			log.Warn("authorization header is missing")
			errorResponse(c, http.StatusUnauthorized, "authorization header required")
			return
		}
		p, err := auth.ParseBearer(header, secret)
		if err != nil {
			log.WithError(err).Warn("invalid bearer token")
			errorResponse(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the principal holds one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principal(c)
		for _, r := range roles {
			if p != nil && p.Role == r {
				c.Next()
				return
			}
		}
		errorResponse(c, http.StatusForbidden, "role not allowed")
	}
}

func principal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}

// RequestLogger logs each request once it completes.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"status_code": c.Writer.Status(),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"remote_ip":   c.ClientIP(),
			"latency_ms":  time.Since(start).Milliseconds(),
		})
		switch code := c.Writer.Status(); {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		case code >= 500:
			entry.Error("request completed with server error")
		case code >= 400:
			entry.Warn("request completed with client error")
		default:
			entry.Info("request completed")
		}
	}
}
