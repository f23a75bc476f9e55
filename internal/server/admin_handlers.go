package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pixelflare/studio/internal/auth"
	"github.com/pixelflare/studio/internal/models"
)

type AdminLoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	AccessCode string `json:"accessCode" binding:"required"`
}

type AdminVerifyRequest struct {
	AdminPassword string `json:"adminPassword" binding:"required"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role" binding:"omitempty,oneof=user admin"`
}

// issueGrant stores a new admin grant for userID and returns its token.
func (s *Server) issueGrant(userID string) (string, time.Time, error) {
	token, hash, err := auth.NewGrantToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := s.now().Add(s.config.Auth.AdminGrantTTL).UTC()
	grant := &models.AdminGrant{UserID: userID, TokenHash: hash, ExpiresAt: expiresAt}
	if err := s.db.Create(grant).Error; err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// adminLogin signs an admin in through the admin entry point: account
// credentials plus the deployment's access code. The reply carries both the
// bearer token and an admin grant.
func (s *Server) adminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if !bind(c, &req) {
		return
	}

	if !auth.SecretEqual(req.AccessCode, s.config.Auth.AdminAccessCode) {
		s.logger.Warn().Str("email", req.Email).Msg("Admin login with invalid access code")
		fail(c, http.StatusForbidden, "Invalid admin access code")
		return
	}

	user := s.checkCredentials(c, req.Email, req.Password)
	if user == nil {
		return
	}
	if !user.IsAdmin() {
		fail(c, http.StatusForbidden, "Admin access required")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		fail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	adminToken, expiresAt, err := s.issueGrant(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue admin grant")
		fail(c, http.StatusInternalServerError, "Authentication failed")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Admin logged in")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"data": gin.H{
			"user":       user,
			"adminToken": adminToken,
			"expiresAt":  expiresAt,
		},
	})
}

// adminVerify exchanges the admin password for a time-bound grant.
func (s *Server) adminVerify(c *gin.Context) {
	var req AdminVerifyRequest
	if !bind(c, &req) {
		return
	}
	sessionData, _ := GetSessionData(c)

	if !auth.SecretEqual(req.AdminPassword, s.config.Auth.AdminPassword) {
		s.logger.Warn().Str("user_id", sessionData.UserID).Msg("Admin verification with wrong password")
		fail(c, http.StatusForbidden, "Invalid admin password")
		return
	}

	adminToken, expiresAt, err := s.issueGrant(sessionData.UserID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue admin grant")
		fail(c, http.StatusInternalServerError, "Verification failed")
		return
	}

	s.logger.Info().Str("user_id", sessionData.UserID).Time("expires_at", expiresAt).Msg("Admin grant issued")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"adminToken": adminToken, "expiresAt": expiresAt},
	})
}

func (s *Server) dashboardStats(c *gin.Context) {
	var stats struct {
		TotalUsers          int64   `json:"totalUsers"`
		TotalBookings       int64   `json:"totalBookings"`
		UpcomingBookings    int64   `json:"upcomingBookings"`
		ActivePhotographers int64   `json:"activePhotographers"`
		TotalRevenue        float64 `json:"totalRevenue"`
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Booking{}).Count(&stats.TotalBookings).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Booking{}).Where("status = ?", models.BookingUpcoming).Count(&stats.UpcomingBookings).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Photographer{}).Where("is_active = ?", true).Count(&stats.ActivePhotographers).Error; err != nil {
			return err
		}
		return tx.Model(&models.Booking{}).
			Where("status <> ?", models.BookingCancelled).
			Select("COALESCE(SUM(price), 0)").
			Scan(&stats.TotalRevenue).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute dashboard stats")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at DESC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": users})
}

// findUser loads the user named by the :id parameter, answering 404 if absent.
func (s *Server) findUser(c *gin.Context) *models.User {
	var user models.User
	if err := models.FindByID(s.db, c.Param("id"), &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "User not found")
			return nil
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return nil
	}
	return &user
}

func (s *Server) getUser(c *gin.Context) {
	user := s.findUser(c)
	if user == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

func (s *Server) updateUser(c *gin.Context) {
	var req UpdateUserRequest
	if !bind(c, &req) {
		return
	}
	user := s.findUser(c)
	if user == nil {
		return
	}

	sessionData, _ := GetSessionData(c)
	if req.Role != nil && user.ID == sessionData.UserID && *req.Role != models.RoleAdmin {
		fail(c, http.StatusBadRequest, "Cannot remove your own admin role")
		return
	}

	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to update user")
			fail(c, http.StatusInternalServerError, "Failed to update user")
			return
		}
	}

	s.logger.Info().Str("user_id", user.ID).Str("updated_by", sessionData.UserID).Msg("User updated")
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

func (s *Server) deleteUser(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	// Prevent deleting self
	if c.Param("id") == sessionData.UserID {
		fail(c, http.StatusBadRequest, "Cannot delete yourself")
		return
	}

	user := s.findUser(c)
	if user == nil {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.AdminGrant{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete user")
		fail(c, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("deleted_by", sessionData.UserID).Msg("User deleted")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted"})
}

func (s *Server) bookingAnalytics(c *gin.Context) {
	type statusRow struct {
		Status string
		Count  int64
	}
	type serviceRow struct {
		ServiceID string `json:"serviceId"`
		Name      string `json:"name"`
		Count     int64  `json:"count"`
	}

	var byStatus []statusRow
	if err := s.db.Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to aggregate bookings by status")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	byService := []serviceRow{}
	if err := s.db.Model(&models.Booking{}).
		Select("bookings.service_id AS service_id, services.name AS name, COUNT(*) AS count").
		Joins("JOIN services ON services.id = bookings.service_id").
		Group("bookings.service_id, services.name").
		Order("count DESC").
		Scan(&byService).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to aggregate bookings by service")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	statusCounts := make(map[string]int64, len(byStatus))
	for _, row := range byStatus {
		statusCounts[row.Status] = row.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"byStatus": statusCounts, "byService": byService},
	})
}

func (s *Server) revenueAnalytics(c *gin.Context) {
	type monthRow struct {
		Month   string  `json:"month"`
		Revenue float64 `json:"revenue"`
	}

	byMonth := []monthRow{}
	if err := s.db.Model(&models.Booking{}).
		Select("substr(date, 1, 7) AS month, SUM(price) AS revenue").
		Where("status <> ?", models.BookingCancelled).
		Group("month").
		Order("month").
		Scan(&byMonth).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to aggregate revenue")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	var total float64
	for _, row := range byMonth {
		total += row.Revenue
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"total": total, "byMonth": byMonth},
	})
}
