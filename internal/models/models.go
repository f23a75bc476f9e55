package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Settings is the singleton row holding generated secrets.
type Settings struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // generated on first start when JWT_SECRET is unset
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a customer or staff account.
type User struct {
	BaseModel
	Email          string    `json:"email" gorm:"unique;not null"`
	PasswordHash   string    `json:"-"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Role           string    `json:"role" gorm:"not null;default:user"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	GoogleID       string    `json:"googleId,omitempty" gorm:"index"`
	UpdatedAt      time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Service is a bookable photography package.
type Service struct {
	BaseModel
	Name            string    `json:"name" gorm:"not null"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	BasePrice       float64   `json:"basePrice" gorm:"not null;default:0"`
	DurationMinutes int       `json:"durationMinutes" gorm:"not null;default:60"`
	IsActive        bool      `json:"isActive" gorm:"not null"`
	UpdatedAt       time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// AdditionalService is an add-on priced on top of a service.
type AdditionalService struct {
	BaseModel
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	Price       float64   `json:"price" gorm:"not null;default:0"`
	IsActive    bool      `json:"isActive" gorm:"not null"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

type Photographer struct {
	BaseModel
	Name           string    `json:"name" gorm:"not null"`
	Role           string    `json:"role"`
	Location       string    `json:"location"`
	Bio            string    `json:"bio" gorm:"type:text"`
	Specialization string    `json:"specialization"`
	Image          string    `json:"image,omitempty"`
	Rating         float64   `json:"rating" gorm:"not null;default:5"`
	Reviews        int       `json:"reviews" gorm:"not null;default:0"`
	IsActive       bool      `json:"isActive" gorm:"not null"`
	UpdatedAt      time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

const (
	BookingUpcoming  = "upcoming"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Booking is a customer's reservation of a service.
type Booking struct {
	BaseModel
	UserID         string  `json:"userId" gorm:"not null;index"`
	ServiceID      string  `json:"serviceId" gorm:"not null;index"`
	PhotographerID *string `json:"photographerId,omitempty"`
	// AddOnIDs is a comma-separated list of additional service IDs.
	AddOnIDs  string    `json:"-"`
	Date      string    `json:"date" gorm:"not null"` // YYYY-MM-DD
	Time      string    `json:"time" gorm:"not null"` // HH:MM
	Hours     int       `json:"hours" gorm:"not null;default:1"`
	Location  string    `json:"location"`
	Notes     string    `json:"notes,omitempty" gorm:"type:text"`
	Status    string    `json:"status" gorm:"not null;default:upcoming"`
	Price     float64   `json:"price" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	// Relationships
	User    *User    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Service *Service `json:"-" gorm:"foreignKey:ServiceID;constraint:OnDelete:RESTRICT"`
}

// AdminGrant is a time-bound second-factor credential issued after the admin
// password has been verified. Only the SHA-256 of the token is stored.
type AdminGrant struct {
	BaseModel
	UserID    string    `json:"userId" gorm:"not null;index"`
	TokenHash string    `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&Settings{}, &User{}, &Service{}, &AdditionalService{}, &Photographer{}, &Booking{}, &AdminGrant{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
