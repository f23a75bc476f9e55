// Package client provides typed helpers for the studio API. Every call goes
// through the credential gateway, so tokens, admin grants and 401 handling
// apply uniformly.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pixelflare/studio/internal/gateway"
	"github.com/pixelflare/studio/internal/session"
)

// Client represents a typed client for the studio API
type Client struct {
	req gateway.Requester
}

// New creates a new API client on top of the given requester
func New(req gateway.Requester) *Client {
	return &Client{req: req}
}

// call sends one request and decodes the reply payload into T.
func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	env, err := c.req.Do(ctx, method, path, body)
	if err != nil {
		return out, err
	}
	if err := env.Decode(&out); err != nil {
		return out, &gateway.Error{Kind: gateway.KindRejected, Status: env.Status, Message: env.Message, Method: method, Path: path, Err: err}
	}
	return out, nil
}

// exec sends one request whose reply carries nothing of interest.
func (c *Client) exec(ctx context.Context, method, path string, body any) error {
	_, err := c.req.Do(ctx, method, path, body)
	return err
}

func validated(form any) error {
	return session.Validate(form)
}

func resource(collection, id string) string {
	return fmt.Sprintf("%s/%s", collection, url.PathEscape(id))
}

// ChangePassword changes the signed-in user's password
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	if err := validated(req); err != nil {
		return err
	}
	return c.exec(ctx, http.MethodPut, "/auth/change-password", req)
}

// Services

func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	return call[[]Service](ctx, c, http.MethodGet, "/services", nil)
}

func (c *Client) GetService(ctx context.Context, id string) (*Service, error) {
	return call[*Service](ctx, c, http.MethodGet, resource("/services", id), nil)
}

func (c *Client) CreateService(ctx context.Context, in ServiceInput) (*Service, error) {
	if err := validated(in); err != nil {
		return nil, err
	}
	return call[*Service](ctx, c, http.MethodPost, "/services", in)
}

func (c *Client) UpdateService(ctx context.Context, id string, in ServiceInput) (*Service, error) {
	if err := validated(in); err != nil {
		return nil, err
	}
	return call[*Service](ctx, c, http.MethodPut, resource("/services", id), in)
}

func (c *Client) DeleteService(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, resource("/services", id), nil)
}

// Additional services

func (c *Client) ListAdditionalServices(ctx context.Context) ([]AdditionalService, error) {
	return call[[]AdditionalService](ctx, c, http.MethodGet, "/additional-services", nil)
}

func (c *Client) GetAdditionalService(ctx context.Context, id string) (*AdditionalService, error) {
	return call[*AdditionalService](ctx, c, http.MethodGet, resource("/additional-services", id), nil)
}

func (c *Client) CreateAdditionalService(ctx context.Context, in AdditionalServiceInput) (*AdditionalService, error) {
	if err := validated(in); err != nil {
		return nil, err
	}
	return call[*AdditionalService](ctx, c, http.MethodPost, "/additional-services", in)
}

func (c *Client) UpdateAdditionalService(ctx context.Context, id string, in AdditionalServiceInput) (*AdditionalService, error) {
	if err := validated(in); err != nil {
		return nil, err
	}
	return call[*AdditionalService](ctx, c, http.MethodPut, resource("/additional-services", id), in)
}

func (c *Client) DeleteAdditionalService(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, resource("/additional-services", id), nil)
}

// Bookings

// ListBookings returns the caller's bookings; admins see every booking.
func (c *Client) ListBookings(ctx context.Context) ([]Booking, error) {
	return call[[]Booking](ctx, c, http.MethodGet, "/bookings", nil)
}

func (c *Client) GetBooking(ctx context.Context, id string) (*Booking, error) {
	return call[*Booking](ctx, c, http.MethodGet, resource("/bookings", id), nil)
}

func (c *Client) CreateBooking(ctx context.Context, in BookingInput) (*Booking, error) {
	if err := validated(in); err != nil {
		return nil, err
	}
	return call[*Booking](ctx, c, http.MethodPost, "/bookings", in)
}

func (c *Client) UpdateBooking(ctx context.Context, id string, in BookingInput) (*Booking, error) {
	if err := validated(in); err != nil {
		return nil, err
	}
	return call[*Booking](ctx, c, http.MethodPut, resource("/bookings", id), in)
}

func (c *Client) DeleteBooking(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, resource("/bookings", id), nil)
}

// CalculatePrice asks the backend to quote a booking before it is made.
func (c *Client) CalculatePrice(ctx context.Context, req PriceRequest) (*PriceQuote, error) {
	if err := validated(req); err != nil {
		return nil, err
	}
	return call[*PriceQuote](ctx, c, http.MethodPost, "/bookings/calculate", req)
}

// Photographers

func (c *Client) ListPhotographers(ctx context.Context) ([]Photographer, error) {
	return call[[]Photographer](ctx, c, http.MethodGet, "/photographers", nil)
}

func (c *Client) GetPhotographer(ctx context.Context, id string) (*Photographer, error) {
	return call[*Photographer](ctx, c, http.MethodGet, resource("/photographers", id), nil)
}

func (c *Client) CreatePhotographer(ctx context.Context, in PhotographerInput) (*Photographer, error) {
	if err := validated(in); err != nil {
		return nil, err
	}
	return call[*Photographer](ctx, c, http.MethodPost, "/photographers", in)
}

func (c *Client) UpdatePhotographer(ctx context.Context, id string, in PhotographerInput) (*Photographer, error) {
	if err := validated(in); err != nil {
		return nil, err
	}
	return call[*Photographer](ctx, c, http.MethodPut, resource("/photographers", id), in)
}

func (c *Client) DeletePhotographer(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, resource("/photographers", id), nil)
}

// Admin. These require a verified admin grant; without one the gateway
// answers with a KindAdminVerificationRequired error.

func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	return call[*DashboardStats](ctx, c, http.MethodGet, "/admin/dashboard", nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]session.User, error) {
	return call[[]session.User](ctx, c, http.MethodGet, "/admin/users", nil)
}

func (c *Client) GetUser(ctx context.Context, id string) (*session.User, error) {
	return call[*session.User](ctx, c, http.MethodGet, resource("/admin/users", id), nil)
}

func (c *Client) UpdateUser(ctx context.Context, id string, in UserUpdate) (*session.User, error) {
	if err := validated(in); err != nil {
		return nil, err
	}
	return call[*session.User](ctx, c, http.MethodPut, resource("/admin/users", id), in)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, resource("/admin/users", id), nil)
}

func (c *Client) BookingAnalytics(ctx context.Context) (*BookingAnalytics, error) {
	return call[*BookingAnalytics](ctx, c, http.MethodGet, "/admin/analytics/bookings", nil)
}

func (c *Client) RevenueAnalytics(ctx context.Context) (*RevenueAnalytics, error) {
	return call[*RevenueAnalytics](ctx, c, http.MethodGet, "/admin/analytics/revenue", nil)
}
