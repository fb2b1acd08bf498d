package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"kosgate/internal/logger"
	"kosgate/internal/upstream"

	"github.com/gin-gonic/gin"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// CORS allows the UI origin. Credentials must be allowed because the
// session travels in an httpOnly cookie, which also rules out a wildcard
// origin.
func CORS(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Session requires the tenant's session cookie and threads it through the
// request context so the upstream client forwards it verbatim. The cache
// identity is a hash of the cookie: stable for the session, never logged
// in the raw, and the gateway stays out of the token-parsing business.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookieHeader := c.GetHeader("Cookie")
		if cookieHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		sum := sha256.Sum256([]byte(cookieHeader))
		userID := hex.EncodeToString(sum[:16])

		ctx := upstream.WithSession(c.Request.Context(), cookieHeader)
		ctx = ContextWithUserID(ctx, userID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", userID)

		c.Next()
	}
}

// RequestLogger logs completed requests with a request id.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := logger.NewRequestID()
		c.Set("request_id", requestID)

		c.Next()

		latency := time.Since(start)
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID, exists := c.Get("user_id"); exists {
			fields = append(fields, "user_id", userID)
		}

		log := logger.WithRequestID(requestID)
		if c.Writer.Status() >= 400 {
			if len(c.Errors) > 0 {
				fields = append(fields, "error", c.Errors.String())
			}
			log.Error("request failed", fields...)
		} else {
			log.Info("request completed", fields...)
		}
	}
}

// Recovery turns panics into 500s with full context in the log.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("panic recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
	})
}
