package server

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pixelflare/studio/internal/auth"
	"github.com/pixelflare/studio/internal/models"
)

const (
	taxRate       = 0.08
	quoteCurrency = "USD"
)

var errUnknownAddOn = errors.New("unknown additional service")

type BookingRequest struct {
	ServiceID            string   `json:"serviceId" binding:"required"`
	PhotographerID       string   `json:"photographerId"`
	AdditionalServiceIDs []string `json:"additionalServiceIds"`
	Date                 string   `json:"date" binding:"required,datetime=2006-01-02"`
	Time                 string   `json:"time" binding:"required,datetime=15:04"`
	Hours                int      `json:"hours" binding:"omitempty,min=1"`
	Location             string   `json:"location" binding:"required"`
	Notes                string   `json:"notes"`
	Status               string   `json:"status" binding:"omitempty,oneof=upcoming completed cancelled"`
}

type PriceRequest struct {
	ServiceID            string   `json:"serviceId" binding:"required"`
	Hours                int      `json:"hours" binding:"omitempty,min=1"`
	AdditionalServiceIDs []string `json:"additionalServiceIds"`
}

type priceQuote struct {
	ServiceID string  `json:"serviceId"`
	Hours     int     `json:"hours"`
	BasePrice float64 `json:"basePrice"`
	AddOns    float64 `json:"addOns"`
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
	Currency  string  `json:"currency"`
}

// bookingDetail is a booking as clients see it: add-ons as a list and the
// service name alongside its ID.
type bookingDetail struct {
	models.Booking
	ServiceName          string   `json:"service"`
	AdditionalServiceIDs []string `json:"additionalServiceIds"`
}

func toDetail(b models.Booking) bookingDetail {
	d := bookingDetail{Booking: b, AdditionalServiceIDs: splitIDs(b.AddOnIDs)}
	if b.Service != nil {
		d.ServiceName = b.Service.Name
	}
	return d
}

func splitIDs(joined string) []string {
	ids := []string{}
	for _, id := range strings.Split(joined, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// quote prices a service for the given hours plus add-ons. Only active
// catalog entries can be quoted.
func (s *Server) quote(serviceID string, hours int, addOnIDs []string) (*priceQuote, error) {
	if hours <= 0 {
		hours = 1
	}

	var service models.Service
	if err := s.db.Where("id = ? AND is_active = ?", serviceID, true).First(&service).Error; err != nil {
		return nil, err
	}

	var addOnTotal float64
	if len(addOnIDs) > 0 {
		var addOns []models.AdditionalService
		if err := s.db.Where("id IN ? AND is_active = ?", addOnIDs, true).Find(&addOns).Error; err != nil {
			return nil, err
		}
		if len(addOns) != len(dedupe(addOnIDs)) {
			return nil, errUnknownAddOn
		}
		for _, a := range addOns {
			addOnTotal += a.Price
		}
	}

	base := service.BasePrice * float64(hours)
	subtotal := roundCents(base + addOnTotal)
	tax := roundCents(subtotal * taxRate)
	return &priceQuote{
		ServiceID: service.ID,
		Hours:     hours,
		BasePrice: roundCents(base),
		AddOns:    roundCents(addOnTotal),
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     roundCents(subtotal + tax),
		Currency:  quoteCurrency,
	}, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// quoteOrFail answers the request itself when the quote cannot be produced.
func (s *Server) quoteOrFail(c *gin.Context, serviceID string, hours int, addOnIDs []string) *priceQuote {
	q, err := s.quote(serviceID, hours, addOnIDs)
	switch {
	case err == nil:
		return q
	case errors.Is(err, gorm.ErrRecordNotFound):
		fail(c, http.StatusBadRequest, "Service not found")
	case errors.Is(err, errUnknownAddOn):
		fail(c, http.StatusBadRequest, "Additional service not found")
	default:
		s.logger.Error().Err(err).Msg("Failed to price booking")
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
	return nil
}

// checkPhotographer answers 400 when the referenced photographer is unknown or retired.
func (s *Server) checkPhotographer(c *gin.Context, id string) bool {
	if id == "" {
		return true
	}
	var count int64
	if err := s.db.Model(&models.Photographer{}).Where("id = ? AND is_active = ?", id, true).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check photographer")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return false
	}
	if count == 0 {
		fail(c, http.StatusBadRequest, "Photographer not found")
		return false
	}
	return true
}

// findBooking loads the :id booking visible to the caller. Other customers'
// bookings answer 404, the same as missing ones.
func (s *Server) findBooking(c *gin.Context, caller *auth.SessionData) *models.Booking {
	query := s.db.Preload("Service").Where("id = ?", c.Param("id"))
	if !caller.IsAdmin() {
		query = query.Where("user_id = ?", caller.UserID)
	}

	var booking models.Booking
	if err := query.First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "Booking not found")
			return nil
		}
		s.logger.Error().Err(err).Msg("Failed to find booking")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return nil
	}
	return &booking
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// listBookings returns the caller's bookings, or every booking for admins.
func (s *Server) listBookings(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	query := s.db.Preload("Service").Order("date DESC, time DESC")
	if !sessionData.IsAdmin() {
		query = query.Where("user_id = ?", sessionData.UserID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list bookings")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	details := make([]bookingDetail, 0, len(bookings))
	for _, b := range bookings {
		details = append(details, toDetail(b))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": details})
}

func (s *Server) getBooking(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	booking := s.findBooking(c, sessionData)
	if booking == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": toDetail(*booking)})
}

func (s *Server) createBooking(c *gin.Context) {
	var req BookingRequest
	if !bind(c, &req) {
		return
	}
	sessionData, _ := GetSessionData(c)

	if day, err := time.Parse(time.DateOnly, req.Date); err == nil && day.Before(s.now().UTC().Truncate(24*time.Hour)) {
		fail(c, http.StatusBadRequest, "Booking date must not be in the past")
		return
	}
	if !s.checkPhotographer(c, req.PhotographerID) {
		return
	}
	addOnIDs := dedupe(req.AdditionalServiceIDs)
	q := s.quoteOrFail(c, req.ServiceID, req.Hours, addOnIDs)
	if q == nil {
		return
	}

	booking := &models.Booking{
		UserID:         sessionData.UserID,
		ServiceID:      req.ServiceID,
		PhotographerID: optionalID(req.PhotographerID),
		AddOnIDs:       strings.Join(addOnIDs, ","),
		Date:           req.Date,
		Time:           req.Time,
		Hours:          q.Hours,
		Location:       req.Location,
		Notes:          req.Notes,
		Status:         models.BookingUpcoming,
		Price:          q.Total,
	}
	if err := s.db.Create(booking).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create booking")
		fail(c, http.StatusInternalServerError, "Failed to create booking")
		return
	}
	if err := s.db.Preload("Service").First(booking, "id = ?", booking.ID).Error; err != nil {
		s.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("Failed to reload booking")
	}

	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("user_id", sessionData.UserID).
		Float64("price", booking.Price).
		Msg("Booking created")
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": toDetail(*booking)})
}

// updateBooking lets customers reschedule their upcoming bookings or cancel
// them; admins may also move a booking to any status.
func (s *Server) updateBooking(c *gin.Context) {
	var req BookingRequest
	if !bind(c, &req) {
		return
	}
	sessionData, _ := GetSessionData(c)

	booking := s.findBooking(c, sessionData)
	if booking == nil {
		return
	}

	if !sessionData.IsAdmin() {
		if booking.Status != models.BookingUpcoming {
			fail(c, http.StatusBadRequest, "Only upcoming bookings can be changed")
			return
		}
		if req.Status != "" && req.Status != models.BookingUpcoming && req.Status != models.BookingCancelled {
			fail(c, http.StatusForbidden, "Bookings can only be cancelled")
			return
		}
	}
	if !s.checkPhotographer(c, req.PhotographerID) {
		return
	}
	addOnIDs := dedupe(req.AdditionalServiceIDs)
	q := s.quoteOrFail(c, req.ServiceID, req.Hours, addOnIDs)
	if q == nil {
		return
	}

	booking.ServiceID = req.ServiceID
	booking.PhotographerID = optionalID(req.PhotographerID)
	booking.AddOnIDs = strings.Join(addOnIDs, ",")
	booking.Date = req.Date
	booking.Time = req.Time
	booking.Hours = q.Hours
	booking.Location = req.Location
	booking.Notes = req.Notes
	booking.Price = q.Total
	if req.Status != "" {
		booking.Status = req.Status
	}
	booking.Service = nil

	if err := s.db.Save(booking).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update booking")
		fail(c, http.StatusInternalServerError, "Failed to update booking")
		return
	}
	if err := s.db.Preload("Service").First(booking, "id = ?", booking.ID).Error; err != nil {
		s.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("Failed to reload booking")
	}

	s.logger.Info().Str("booking_id", booking.ID).Str("status", booking.Status).Msg("Booking updated")
	c.JSON(http.StatusOK, gin.H{"success": true, "data": toDetail(*booking)})
}

func (s *Server) deleteBooking(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	booking := s.findBooking(c, sessionData)
	if booking == nil {
		return
	}

	if err := s.db.Delete(&models.Booking{}, "id = ?", booking.ID).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete booking")
		fail(c, http.StatusInternalServerError, "Failed to delete booking")
		return
	}

	s.logger.Info().Str("booking_id", booking.ID).Str("deleted_by", sessionData.UserID).Msg("Booking deleted")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Booking deleted"})
}

func (s *Server) calculatePrice(c *gin.Context) {
	var req PriceRequest
	if !bind(c, &req) {
		return
	}
	q := s.quoteOrFail(c, req.ServiceID, req.Hours, dedupe(req.AdditionalServiceIDs))
	if q == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": q})
}
