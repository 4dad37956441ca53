package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Error codes
const (
	// 400 Bad Request
	InvalidArgument  = "INVALID_ARGUMENT"
	ValidationFailed = "VALIDATION_FAILED"

	// 401 Unauthorized
	Unauthenticated = "UNAUTHENTICATED"
	TokenExpired    = "TOKEN_EXPIRED"

	// 403 Forbidden
	Forbidden = "FORBIDDEN"

	// 404 Not Found
	NotFound = "NOT_FOUND"

	// 409 Conflict
	Conflict = "CONFLICT"

	// 422 Unprocessable Entity
	UnprocessableEntity = "UNPROCESSABLE_ENTITY"

	// 429 Too Many Requests
	TooManyRequests = "TOO_MANY_REQUESTS"

	// 500 Internal Server Error
	Internal = "INTERNAL_ERROR"

	// 503 Service Unavailable
	ServiceUnavailable = "SERVICE_UNAVAILABLE"

	// No HTTP status: the request never produced a response
	TransportFailed = "TRANSPORT_FAILED"

	// Booking domain codes (BKG)
	BkgDraftLocked    = "BKG_DRAFT_LOCKED"
	BkgStepTerminal   = "BKG_STEP_TERMINAL"
	BkgBackNotAllowed = "BKG_BACK_NOT_ALLOWED"
	BkgPromoNotEnough = "BKG_PROMO_MINIMUM_NOT_MET"
	BkgLoginRequired  = "BKG_LOGIN_REQUIRED"
	BkgCartAddFailed  = "BKG_CART_ADD_FAILED"
	BkgTxCreateFailed = "BKG_TX_CREATE_FAILED"
	BkgProofFailed    = "BKG_PROOF_FAILED"
)

// Error represents a structured error
type Error struct {
	Code          string      `json:"code"`
	Message       string      `json:"message"`
	Status        int         `json:"status,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Details       interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.CorrelationID != "" {
		return fmt.Sprintf("[%s] %s: %s", e.CorrelationID, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus returns the HTTP status code for the error. A status recorded from
// an actual response wins over the code mapping.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Code {
	case BkgDraftLocked, BkgStepTerminal, BkgBackNotAllowed:
		return http.StatusConflict
	case BkgPromoNotEnough:
		return http.StatusBadRequest
	case BkgLoginRequired:
		return http.StatusUnauthorized

	case InvalidArgument, ValidationFailed:
		return http.StatusBadRequest
	case Unauthenticated, TokenExpired:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case UnprocessableEntity:
		return http.StatusUnprocessableEntity
	case TooManyRequests:
		return http.StatusTooManyRequests
	case ServiceUnavailable, TransportFailed:
		return http.StatusServiceUnavailable
	default:
		lc := strings.ToLower(e.Code)
		switch {
		case strings.Contains(lc, "not_found"):
			return http.StatusNotFound
		case strings.Contains(lc, "unauth"):
			return http.StatusUnauthorized
		case strings.HasPrefix(strings.ToUpper(e.Code), "BKG_"):
			return http.StatusBadRequest
		default:
			return http.StatusInternalServerError
		}
	}
}

// FromStatus maps a response status to a coded error. A zero status means the
// request failed before any response arrived.
func FromStatus(status int, message string) *Error {
	code := Internal
	switch {
	case status == 0:
		code = TransportFailed
	case status == http.StatusUnauthorized:
		code = Unauthenticated
	case status == http.StatusForbidden:
		code = Forbidden
	case status == http.StatusNotFound:
		code = NotFound
	case status == http.StatusConflict:
		code = Conflict
	case status == http.StatusUnprocessableEntity:
		code = UnprocessableEntity
	case status == http.StatusTooManyRequests:
		code = TooManyRequests
	case status >= 400 && status < 500:
		code = InvalidArgument
	case status == http.StatusServiceUnavailable:
		code = ServiceUnavailable
	}
	return &Error{Code: code, Message: message, Status: status}
}

// New creates a new error
func New(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Validation creates a VALIDATION_FAILED error. Validation errors are raised
// before any network call is attempted.
func Validation(message string) *Error {
	return &Error{Code: ValidationFailed, Message: message}
}

// WithDetails adds details to an error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// WithCorrelationID adds correlation ID to an error
func (e *Error) WithCorrelationID(correlationID string) *Error {
	e.CorrelationID = correlationID
	return e
}

type correlationKey struct{}

// WithCorrelationID stores a correlation id on ctx for E/EDetails.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFromContext returns the correlation id carried by ctx,
// otherwise a time-based fallback.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx != nil {
		if id, ok := ctx.Value(correlationKey{}).(string); ok && id != "" {
			return id
		}
	}
	return fmt.Sprintf("cid-%d", time.Now().UnixNano())
}

// E creates a domain-coded error and auto-fills correlation_id from context.
func E(ctx context.Context, code, message string) *Error {
	return New(code, message).WithCorrelationID(CorrelationIDFromContext(ctx))
}

// EDetails creates a domain-coded error with details and auto correlation_id.
func EDetails(ctx context.Context, code, message string, details interface{}) *Error {
	return (&Error{Code: code, Message: message, Details: details}).WithCorrelationID(CorrelationIDFromContext(ctx))
}

// Code returns the code of err if it is (or wraps) an *Error, otherwise "".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return Code(err) == ValidationFailed
}

// IsUnauthenticated reports whether err came from a 401 or a missing session.
func IsUnauthenticated(err error) bool {
	c := Code(err)
	return c == Unauthenticated || c == TokenExpired || c == BkgLoginRequired
}
