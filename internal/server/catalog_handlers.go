package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pixelflare/studio/internal/models"
)

type ServiceRequest struct {
	Name            string  `json:"name" binding:"required,min=2"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	BasePrice       float64 `json:"basePrice" binding:"gte=0"`
	DurationMinutes int     `json:"durationMinutes" binding:"gt=0"`
	IsActive        *bool   `json:"isActive"`
}

type AdditionalServiceRequest struct {
	Name        string  `json:"name" binding:"required,min=2"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"gte=0"`
	IsActive    *bool   `json:"isActive"`
}

type PhotographerRequest struct {
	Name           string  `json:"name" binding:"required,min=2"`
	Role           string  `json:"role" binding:"required,min=2"`
	Location       string  `json:"location" binding:"required,min=2"`
	Bio            string  `json:"bio" binding:"required,min=10"`
	Specialization string  `json:"specialization" binding:"required,min=2"`
	Image          string  `json:"image" binding:"omitempty,url"`
	Rating         float64 `json:"rating" binding:"omitempty,min=1,max=5"`
	Reviews        int     `json:"reviews" binding:"gte=0"`
	IsActive       *bool   `json:"isActive"`
}

// activeOr reports the requested active flag; new catalog entries are active
// unless the request says otherwise.
func activeOr(flag *bool, current bool) bool {
	if flag == nil {
		return current
	}
	return *flag
}

// includeInactive reports whether a catalog listing should show retired entries.
// Only admins may ask for them.
func (s *Server) includeInactive(c *gin.Context) bool {
	if c.Query("all") != "true" {
		return false
	}
	sessionData, err := authenticate(c, s.db)
	return err == nil && sessionData.IsAdmin()
}

// findCatalogEntry loads the :id record into dst, answering 404 with notFound
// when it does not exist.
func (s *Server) findCatalogEntry(c *gin.Context, dst any, notFound string) bool {
	if err := s.db.Where("id = ?", c.Param("id")).First(dst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, notFound)
			return false
		}
		s.logger.Error().Err(err).Str("id", c.Param("id")).Msg("Failed to load catalog entry")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return false
	}
	return true
}

func (s *Server) listCatalog(c *gin.Context, dst any, order string) {
	query := s.db.Order(order)
	if !s.includeInactive(c) {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(dst).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list catalog")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": dst})
}

func (s *Server) saveCatalogEntry(c *gin.Context, status int, entry any, create bool) {
	var err error
	if create {
		err = s.db.Create(entry).Error
	} else {
		err = s.db.Save(entry).Error
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to save catalog entry")
		fail(c, http.StatusInternalServerError, "Failed to save")
		return
	}
	c.JSON(status, gin.H{"success": true, "data": entry})
}

func (s *Server) deleteCatalogEntry(c *gin.Context, entry any, notFound, deleted string) {
	if !s.findCatalogEntry(c, entry, notFound) {
		return
	}
	if err := s.db.Delete(entry).Error; err != nil {
		s.logger.Error().Err(err).Str("id", c.Param("id")).Msg("Failed to delete catalog entry")
		fail(c, http.StatusConflict, "Entry is still referenced by bookings")
		return
	}
	s.logger.Info().Str("id", c.Param("id")).Msg(deleted)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": deleted})
}

// Services

func (s *Server) listServices(c *gin.Context) {
	services := []models.Service{}
	s.listCatalog(c, &services, "name")
}

func (s *Server) getService(c *gin.Context) {
	var service models.Service
	if !s.findCatalogEntry(c, &service, "Service not found") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": service})
}

func (s *Server) createService(c *gin.Context) {
	var req ServiceRequest
	if !bind(c, &req) {
		return
	}
	service := &models.Service{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		BasePrice:       req.BasePrice,
		DurationMinutes: req.DurationMinutes,
		IsActive:        activeOr(req.IsActive, true),
	}
	s.saveCatalogEntry(c, http.StatusCreated, service, true)
}

func (s *Server) updateService(c *gin.Context) {
	var req ServiceRequest
	if !bind(c, &req) {
		return
	}
	var service models.Service
	if !s.findCatalogEntry(c, &service, "Service not found") {
		return
	}
	service.Name = req.Name
	service.Description = req.Description
	service.Category = req.Category
	service.BasePrice = req.BasePrice
	service.DurationMinutes = req.DurationMinutes
	service.IsActive = activeOr(req.IsActive, service.IsActive)
	s.saveCatalogEntry(c, http.StatusOK, &service, false)
}

func (s *Server) deleteService(c *gin.Context) {
	s.deleteCatalogEntry(c, &models.Service{}, "Service not found", "Service deleted")
}

// Additional services

func (s *Server) listAdditionalServices(c *gin.Context) {
	addOns := []models.AdditionalService{}
	s.listCatalog(c, &addOns, "name")
}

func (s *Server) getAdditionalService(c *gin.Context) {
	var addOn models.AdditionalService
	if !s.findCatalogEntry(c, &addOn, "Additional service not found") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": addOn})
}

func (s *Server) createAdditionalService(c *gin.Context) {
	var req AdditionalServiceRequest
	if !bind(c, &req) {
		return
	}
	addOn := &models.AdditionalService{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    activeOr(req.IsActive, true),
	}
	s.saveCatalogEntry(c, http.StatusCreated, addOn, true)
}

func (s *Server) updateAdditionalService(c *gin.Context) {
	var req AdditionalServiceRequest
	if !bind(c, &req) {
		return
	}
	var addOn models.AdditionalService
	if !s.findCatalogEntry(c, &addOn, "Additional service not found") {
		return
	}
	addOn.Name = req.Name
	addOn.Description = req.Description
	addOn.Price = req.Price
	addOn.IsActive = activeOr(req.IsActive, addOn.IsActive)
	s.saveCatalogEntry(c, http.StatusOK, &addOn, false)
}

func (s *Server) deleteAdditionalService(c *gin.Context) {
	s.deleteCatalogEntry(c, &models.AdditionalService{}, "Additional service not found", "Additional service deleted")
}

// Photographers

func (s *Server) listPhotographers(c *gin.Context) {
	photographers := []models.Photographer{}
	s.listCatalog(c, &photographers, "rating DESC, name")
}

func (s *Server) getPhotographer(c *gin.Context) {
	var photographer models.Photographer
	if !s.findCatalogEntry(c, &photographer, "Photographer not found") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": photographer})
}

func (s *Server) createPhotographer(c *gin.Context) {
	var req PhotographerRequest
	if !bind(c, &req) {
		return
	}
	rating := req.Rating
	if rating == 0 {
		rating = 5
	}
	photographer := &models.Photographer{
		Name:           req.Name,
		Role:           req.Role,
		Location:       req.Location,
		Bio:            req.Bio,
		Specialization: req.Specialization,
		Image:          req.Image,
		Rating:         rating,
		Reviews:        req.Reviews,
		IsActive:       activeOr(req.IsActive, true),
	}
	s.saveCatalogEntry(c, http.StatusCreated, photographer, true)
}

func (s *Server) updatePhotographer(c *gin.Context) {
	var req PhotographerRequest
	if !bind(c, &req) {
		return
	}
	var photographer models.Photographer
	if !s.findCatalogEntry(c, &photographer, "Photographer not found") {
		return
	}
	photographer.Name = req.Name
	photographer.Role = req.Role
	photographer.Location = req.Location
	photographer.Bio = req.Bio
	photographer.Specialization = req.Specialization
	photographer.Image = req.Image
	if req.Rating != 0 {
		photographer.Rating = req.Rating
	}
	photographer.Reviews = req.Reviews
	photographer.IsActive = activeOr(req.IsActive, photographer.IsActive)
	s.saveCatalogEntry(c, http.StatusOK, &photographer, false)
}

func (s *Server) deletePhotographer(c *gin.Context) {
	s.deleteCatalogEntry(c, &models.Photographer{}, "Photographer not found", "Photographer deleted")
}
