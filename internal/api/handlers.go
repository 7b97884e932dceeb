package api

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"

	"github.com/societypro/admin-service/internal/db"
	"github.com/societypro/admin-service/internal/models"
)

// Store is the identity/profile persistence surface the handlers depend on.
// *db.Database satisfies it; tests substitute stubs.
type Store interface {
	Health(ctx context.Context) error

	CreateIdentity(ctx context.Context, email, password string, emailConfirmed bool) (*models.Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, string, error)
	DeleteIdentity(ctx context.Context, id string) error
	ValidatePassword(hashedPassword, password string) error

	UpsertProfile(ctx context.Context, profile models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfilesBySociety(ctx context.Context, societyID string) ([]models.Profile, error)
	DeleteProfile(ctx context.Context, id string) error

	CreateSociety(ctx context.Context, req models.RegisterSocietyRequest) (*models.Society, error)
	GetSociety(ctx context.Context, id string) (*models.Society, error)
	ListSocieties(ctx context.Context, status models.SocietyStatus) ([]models.Society, error)
	UpdateSocietyStatus(ctx context.Context, id string, status models.SocietyStatus) error
	DeleteSociety(ctx context.Context, id string) error

	CreateResidentRequest(ctx context.Context, req models.RegisterResidentRequest) (*models.ResidentRequest, error)
	GetResidentRequest(ctx context.Context, id string) (*models.ResidentRequest, error)
	ListResidentRequests(ctx context.Context, societyID string, status models.RequestStatus) ([]models.ResidentRequest, error)
	MarkResidentRequestApproved(ctx context.Context, id string) error
	DeleteResidentRequestByEmail(ctx context.Context, email string) error

	CreateWatchmanRequest(ctx context.Context, req models.RegisterWatchmanRequest) (*models.WatchmanRequest, error)
	GetWatchmanRequest(ctx context.Context, id string) (*models.WatchmanRequest, error)
	ListWatchmanRequests(ctx context.Context, societyID string, status models.RequestStatus) ([]models.WatchmanRequest, error)
	MarkWatchmanRequestApproved(ctx context.Context, id string) error
	DeleteWatchmanRequestByEmail(ctx context.Context, email string) error

	CheckRequestRate(ctx context.Context, ipAddress string, maxRequests int, window time.Duration) (bool, error)
	IncrementRequestRate(ctx context.Context, ipAddress string) error
	CleanupOldRateLimits(ctx context.Context) error
}

// EmailSender submits one credential email and returns the provider message id.
type EmailSender interface {
	SendCredentialEmail(ctx context.Context, to, name, tempPass string) (string, error)
}

// SmsSender sends a transactional SMS.
type SmsSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) error
}

// Handler holds the process-scoped clients and handles HTTP requests
type Handler struct {
	Store Store
	Email EmailSender
	SMS   SmsSender
}

// NewHandler creates a new handler instance
func NewHandler(store Store, email EmailSender, sms SmsSender) *Handler {
	return &Handler{
		Store: store,
		Email: email,
		SMS:   sms,
	}
}

// Root returns basic service info.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "SocietyPro API Server Running",
	})
}

// Health endpoint for health checks (readiness)
func (h *Handler) Health(c *gin.Context) {
	// If DB is not initialized yet, report not ready without panicking
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "Database not initialized",
			Message: "Service starting up; DB unavailable",
		})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := h.Store.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "Database connection failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "admin-service",
		"timestamp": time.Now().UTC(),
	})
}

// Login handles password authentication for all roles. The executive account
// is out-of-band: it is matched against configured credentials and never has
// a profile row.
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request data",
			Message: err.Error(),
		})
		return
	}

	if execEmail := os.Getenv("EXECUTIVE_EMAIL"); execEmail != "" && strings.EqualFold(req.Email, execEmail) {
		if req.Password != os.Getenv("EXECUTIVE_PASSWORD") {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials"})
			return
		}
		token, expiresAt, err := generateJWTToken("executive", execEmail, models.RoleExecutive)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token", Message: err.Error()})
			return
		}
		c.JSON(http.StatusOK, models.LoginResponse{Token: token, ExpiresAt: expiresAt, Role: models.RoleExecutive})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	identity, passwordHash, err := h.Store.GetIdentityByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, db.ErrIdentityNotFound) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Login failed", Message: err.Error()})
		return
	}

	if err := h.Store.ValidatePassword(passwordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials"})
		return
	}

	profile, err := h.Store.GetProfile(ctx, identity.ID)
	if err != nil {
		if err == pgx.ErrNoRows {
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "No profile for this account"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Profile lookup failed", Message: err.Error()})
		return
	}

	token, expiresAt, err := generateJWTToken(identity.ID, identity.Email, profile.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      profile.Role,
		Profile:   profile,
	})
}

// generateJWTToken creates a signed HS256 token carrying the identity id,
// email and role claims.
func generateJWTToken(userID, email string, role models.Role) (string, time.Time, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", time.Time{}, fmt.Errorf("JWT secret not configured")
	}

	expirationMinutes := getEnvInt("JWT_EXPIRATION_MINUTES", 60)
	expiresAt := time.Now().Add(time.Duration(expirationMinutes) * time.Minute)

	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    role.String(),
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// generateTempPassword builds a one-time credential for approval flows when
// the caller does not supply one.
func generateTempPassword() (string, error) {
	const charset = "abcdefghijkmnpqrstuvwxyzACDEFGHJKLMNPQRSTUVWXYZ23456789"
	result := make([]byte, 10)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}

// getEnvInt gets an environment variable as integer with default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
