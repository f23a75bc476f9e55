package session

import (
	"strings"
	"time"
)

// Role of an authenticated user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Client-side entry points the session flows navigate to.
const (
	DashboardPath      = "/dashboard"
	AdminDashboardPath = "/admin/dashboard"
)

// User is the identity record returned by the backend.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	GoogleID       string    `json:"googleId,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName joins first and last name, falling back to the email.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Phase is the coarse state-machine position derived from a State.
type Phase int

const (
	Anonymous Phase = iota
	Pending
	Authenticated
	Failed
)

func (p Phase) String() string {
	switch p {
	case Anonymous:
		return "anonymous"
	case Pending:
		return "pending"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the session.
//
// Invariants: IsAuthenticated implies User != nil; Loading implies Error == "".
type State struct {
	User            *User
	Loading         bool
	Error           string
	IsAuthenticated bool
}

func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return Pending
	case s.IsAuthenticated:
		return Authenticated
	case s.Error != "":
		return Failed
	default:
		return Anonymous
	}
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the registration form.
type SignupRequest struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}
