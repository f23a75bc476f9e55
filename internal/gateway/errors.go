package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies every failed exchange with the backend.
type Kind string

const (
	KindValidation                Kind = "validation"
	KindRejected                  Kind = "rejected"
	KindUnauthorized              Kind = "unauthorized"
	KindAdminVerificationRequired Kind = "admin_verification_required"
	KindForbidden                 Kind = "forbidden"
	KindNotFound                  Kind = "not_found"
	KindConflict                  Kind = "conflict"
	KindServer                    Kind = "server"
	KindTransport                 Kind = "transport"
)

// Error is the failure half of the normalized result. Status is 0 for
// transport failures and client-side validation. Message is empty when the
// server gave no reason, so callers can choose their own fallback.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Method  string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		if e.Status != 0 {
			msg = http.StatusText(e.Status)
		} else {
			msg = string(e.Kind)
		}
	}
	if e.Err != nil && e.Kind == KindTransport {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s %s: %s (status %d)", e.Method, e.Path, msg, e.Status)
	case e.Path != "":
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, msg)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError builds a client-side validation failure; it never has a
// status because it never reached the network.
func ValidationError(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: cause}
}

// KindOf returns the kind of a gateway error, or "" for any other error.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf extracts the human-readable message carried by err. Gateway errors
// without a server message and non-gateway errors yield fallback.
func MessageOf(err error, fallback string) string {
	var gwErr *Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return fallback
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindServer
	}
}
