package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"

	"github.com/societypro/admin-service/internal/logging"
	"github.com/societypro/admin-service/internal/models"
)

// bearerClaims extracts and validates the bearer token from the request,
// returning its claims. The error message distinguishes a missing header
// from an invalid token.
func bearerClaims(c *gin.Context) (jwt.MapClaims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("no token")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("server not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// RequireAdmin gates privileged endpoints. The token is exchanged for an
// identity, then the profile role is checked against the store on every
// request; there is no session cache.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: No token"})
			c.Abort()
			return
		}

		claims, err := bearerClaims(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Invalid token"})
			c.Abort()
			return
		}

		userID, _ := claims["user_id"].(string)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Invalid token"})
			c.Abort()
			return
		}

		if h.Store == nil {
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Database not initialized"})
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		profile, err := h.Store.GetProfile(ctx, userID)
		if err != nil {
			if err == pgx.ErrNoRows {
				c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "Forbidden: Admins only"})
			} else {
				c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Profile lookup failed", Message: err.Error()})
			}
			c.Abort()
			return
		}
		if profile.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "Forbidden: Admins only"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireExecutive gates society approval endpoints. Executives carry a role
// claim only; there is no profile row to check.
func (h *Handler) RequireExecutive() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: No token"})
			c.Abort()
			return
		}

		claims, err := bearerClaims(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Invalid token"})
			c.Abort()
			return
		}

		if role, _ := claims["role"].(string); role != models.RoleExecutive.String() {
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "Forbidden: Executives only"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CORSMiddleware allows credentialed calls from the configured frontend
// origin only.
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && origin == allowedOrigin {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SecurityHeaders sets the standard hardening headers on every response.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("X-DNS-Prefetch-Control", "off")
		c.Next()
	}
}

// RateLimit caps each client IP to maxRequests over a sliding window. The
// limiter fails open on store errors so a rate-limit outage does not take
// down the API. Stale counter buckets are swept opportunistically off the
// request path, at most once per hour.
func (h *Handler) RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	var lastCleanup time.Time
	return func(c *gin.Context) {
		if h.Store == nil {
			c.Next()
			return
		}
		clientIP := c.ClientIP()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		limited, err := h.Store.CheckRequestRate(ctx, clientIP, maxRequests, window)
		if err != nil {
			logging.LogKV("error", "rate limit check failed", map[string]interface{}{
				"client_ip": clientIP,
				"error":     err.Error(),
			})
			c.Next()
			return
		}
		if limited {
			c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
			c.Abort()
			return
		}

		if err := h.Store.IncrementRequestRate(ctx, clientIP); err != nil {
			logging.LogKV("error", "rate limit increment failed", map[string]interface{}{
				"client_ip": clientIP,
				"error":     err.Error(),
			})
		}

		mu.Lock()
		cleanupDue := time.Since(lastCleanup) >= time.Hour
		if cleanupDue {
			lastCleanup = time.Now()
		}
		mu.Unlock()
		if cleanupDue {
			if err := h.Store.CleanupOldRateLimits(ctx); err != nil {
				logging.LogKV("error", "rate limit cleanup failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}

		c.Next()
	}
}
