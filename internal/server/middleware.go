package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pixelflare/studio/internal/auth"
	"github.com/pixelflare/studio/internal/models"
)

const (
	bearerPrefix = "Bearer "

	headerAdminSecret = "X-Admin-Secret"
	headerRequestID   = "X-Request-ID"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// fail writes the error envelope and stops the handler chain.
func fail(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{"success": false, "message": message})
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	fail(c, statusCode, message)
}

// authenticate resolves the bearer token on the request to a session.
func authenticate(c *gin.Context, db *gorm.DB) (*auth.SessionData, error) {
	token, err := extractBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return nil, err
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	// Role comes from the database so demotions apply to live tokens.
	var user models.User
	if err := db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}

	return &auth.SessionData{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// JWTAuthMiddleware validates the bearer token and loads the caller
func JWTAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, err := authenticate(c, db)
		if err != nil {
			var message string
			switch {
			case errors.Is(err, ErrMissingAuthHeader):
				message = "Missing authorization header"
			case errors.Is(err, ErrInvalidAuthFormat):
				message = "Invalid authorization header format"
			case errors.Is(err, ErrEmptyToken):
				message = "Empty token"
			case errors.Is(err, ErrUserNotFound):
				message = "User not found"
			default:
				message = "Invalid or expired token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		setSession(c, sessionData)
		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sessionData.IsAdmin() {
			respondWithError(c, log, http.StatusForbidden, errors.New("not admin"), "Admin access required")
			return
		}

		c.Next()
	}
}

// AdminGrantMiddleware requires an unexpired admin grant issued to the caller
// in the X-Admin-Secret header. Without one the reply tells the client to
// re-verify rather than to sign in again.
func AdminGrantMiddleware(db *gorm.DB, log zerolog.Logger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, _ := GetSessionData(c)

		requireVerification := func(reason string) {
			log.Info().Str("path", c.Request.URL.Path).Str("reason", reason).Msg("Admin verification required")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success":          false,
				"message":          "Admin verification required",
				"requiresPassword": true,
			})
		}

		secret := c.GetHeader(headerAdminSecret)
		if secret == "" {
			requireVerification("missing grant")
			return
		}

		var grant models.AdminGrant
		err := db.Where("token_hash = ? AND user_id = ?", auth.HashGrantToken(secret), sessionData.UserID).
			First(&grant).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Error().Err(err).Msg("Failed to look up admin grant")
			}
			requireVerification("unknown grant")
			return
		}
		if !grant.ExpiresAt.After(now()) {
			requireVerification("expired grant")
			return
		}

		c.Next()
	}
}
