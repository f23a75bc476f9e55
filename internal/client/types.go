package client

import (
	"time"

	"github.com/pixelflare/studio/internal/session"
)

// Service is a bookable photography package.
type Service struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	BasePrice       float64   `json:"basePrice"`
	DurationMinutes int       `json:"durationMinutes"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
}

type ServiceInput struct {
	Name            string  `json:"name" validate:"required,min=2"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	BasePrice       float64 `json:"basePrice" validate:"gte=0"`
	DurationMinutes int     `json:"durationMinutes" validate:"gt=0"`
	IsActive        *bool   `json:"isActive,omitempty"`
}

// AdditionalService is an add-on priced on top of a service (prints, extra
// retouching, travel).
type AdditionalService struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type AdditionalServiceInput struct {
	Name        string  `json:"name" validate:"required,min=2"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

type Photographer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	Location       string    `json:"location"`
	Bio            string    `json:"bio"`
	Specialization string    `json:"specialization"`
	Image          string    `json:"image,omitempty"`
	Rating         float64   `json:"rating"`
	Reviews        int       `json:"reviews"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

type PhotographerInput struct {
	Name           string  `json:"name" validate:"required,min=2"`
	Role           string  `json:"role" validate:"required,min=2"`
	Location       string  `json:"location" validate:"required,min=2"`
	Bio            string  `json:"bio" validate:"required,min=10"`
	Specialization string  `json:"specialization" validate:"required,min=2"`
	Image          string  `json:"image,omitempty" validate:"omitempty,url"`
	Rating         float64 `json:"rating" validate:"omitempty,min=1,max=5"`
	Reviews        int     `json:"reviews" validate:"gte=0"`
	IsActive       *bool   `json:"isActive,omitempty"`
}

type BookingStatus string

const (
	BookingUpcoming  BookingStatus = "upcoming"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID                   string        `json:"id"`
	UserID               string        `json:"userId"`
	ServiceID            string        `json:"serviceId"`
	ServiceName          string        `json:"service"`
	PhotographerID       string        `json:"photographerId,omitempty"`
	AdditionalServiceIDs []string      `json:"additionalServiceIds,omitempty"`
	Date                 string        `json:"date"`
	Time                 string        `json:"time"`
	Hours                int           `json:"hours"`
	Location             string        `json:"location"`
	Notes                string        `json:"notes,omitempty"`
	Status               BookingStatus `json:"status"`
	Price                float64       `json:"price"`
	CreatedAt            time.Time     `json:"createdAt"`
}

type BookingInput struct {
	ServiceID            string        `json:"serviceId" validate:"required"`
	PhotographerID       string        `json:"photographerId,omitempty"`
	AdditionalServiceIDs []string      `json:"additionalServiceIds,omitempty"`
	Date                 string        `json:"date" validate:"required,datetime=2006-01-02"`
	Time                 string        `json:"time" validate:"required,datetime=15:04"`
	Hours                int           `json:"hours" validate:"omitempty,min=1"`
	Location             string        `json:"location" validate:"required"`
	Notes                string        `json:"notes,omitempty"`
	Status               BookingStatus `json:"status,omitempty" validate:"omitempty,oneof=upcoming completed cancelled"`
}

type PriceRequest struct {
	ServiceID            string   `json:"serviceId" validate:"required"`
	Hours                int      `json:"hours" validate:"omitempty,min=1"`
	AdditionalServiceIDs []string `json:"additionalServiceIds,omitempty"`
}

type PriceQuote struct {
	ServiceID string  `json:"serviceId"`
	Hours     int     `json:"hours"`
	BasePrice float64 `json:"basePrice"`
	AddOns    float64 `json:"addOns"`
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
	Currency  string  `json:"currency"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
}

type DashboardStats struct {
	TotalUsers          int64   `json:"totalUsers"`
	TotalBookings       int64   `json:"totalBookings"`
	UpcomingBookings    int64   `json:"upcomingBookings"`
	ActivePhotographers int64   `json:"activePhotographers"`
	TotalRevenue        float64 `json:"totalRevenue"`
}

type UserUpdate struct {
	FirstName string       `json:"firstName,omitempty"`
	LastName  string       `json:"lastName,omitempty"`
	Role      session.Role `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

type ServiceCount struct {
	ServiceID string `json:"serviceId"`
	Name      string `json:"name"`
	Count     int64  `json:"count"`
}

type BookingAnalytics struct {
	ByStatus  map[string]int64 `json:"byStatus"`
	ByService []ServiceCount   `json:"byService"`
}

type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type RevenueAnalytics struct {
	Total   float64          `json:"total"`
	ByMonth []MonthlyRevenue `json:"byMonth"`
}
