package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pixelflare/studio/internal/auth"
	"github.com/pixelflare/studio/internal/models"
)

// SetupRequest represents the first-run setup request
type SetupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
}

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	FirstName       string `json:"firstName" binding:"required"`
	LastName        string `json:"lastName" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"omitempty,eqfield=Password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// respondWithSession issues a token for user and answers with the login envelope.
func (s *Server) respondWithSession(c *gin.Context, status int, user *models.User) {
	token, err := auth.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		fail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(status, gin.H{"success": true, "token": token, "user": user})
}

// setupFirstAdmin creates the first admin account; it only works while no
// users exist.
func (s *Server) setupFirstAdmin(c *gin.Context) {
	var req SetupRequest
	if !bind(c, &req) {
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count > 0 {
		fail(c, http.StatusConflict, "Setup already completed")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		fail(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := &models.User{
		Email:        normalizeEmail(req.Email),
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleAdmin,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create admin user")
		fail(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("First admin user created")
	s.respondWithSession(c, http.StatusOK, user)
}

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}

	email := normalizeEmail(req.Email)
	var existing int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check email")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if existing > 0 {
		fail(c, http.StatusConflict, "Email already registered")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		fail(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleUser,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		fail(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	s.respondWithSession(c, http.StatusCreated, user)
}

// checkCredentials returns the user behind email and password, or nil after
// having answered the request.
func (s *Server) checkCredentials(c *gin.Context, email, password string) *models.User {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusBadRequest, "Invalid credentials")
			return nil
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return nil
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		fail(c, http.StatusBadRequest, "Invalid credentials")
		return nil
	}
	return &user
}

// login answers bad credentials with 400 rather than 401; 401 means the
// presented token is no longer valid.
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}

	user := s.checkCredentials(c, req.Email, req.Password)
	if user == nil {
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")
	s.respondWithSession(c, http.StatusOK, user)
}

// logout revokes the caller's admin grants. Tokens are stateless, so the
// call succeeds whether or not a valid one is presented.
func (s *Server) logout(c *gin.Context) {
	if sessionData, err := authenticate(c, s.db); err == nil {
		res := s.db.Where("user_id = ?", sessionData.UserID).Delete(&models.AdminGrant{})
		if res.Error != nil {
			s.logger.Error().Err(res.Error).Msg("Failed to revoke admin grants")
		}
		s.logger.Info().Str("user_id", sessionData.UserID).Int64("grants_revoked", res.RowsAffected).Msg("User logged out")
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

func (s *Server) googleLogin(c *gin.Context) {
	fail(c, http.StatusNotImplemented, "Google sign-in is not configured on this server")
}

func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

func (s *Server) changePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bind(c, &req) {
		return
	}
	sessionData, _ := GetSessionData(c)

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := auth.VerifyPassword(req.CurrentPassword, user.PasswordHash); err != nil {
		fail(c, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		fail(c, http.StatusInternalServerError, "Failed to update password")
		return
	}
	if err := s.db.Model(&user).Update("password_hash", passwordHash).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update password")
		fail(c, http.StatusInternalServerError, "Failed to update password")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Password changed")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated"})
}
