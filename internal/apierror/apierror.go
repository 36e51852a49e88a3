package apierror

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

// Codes mirror the checkout failure taxonomy: local preconditions, transport
// faults, upstream validation, lost polling tickets, terminal gateway
// outcomes, malformed upstream payloads, and everything else.
const (
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrConflict           ErrorCode = "CONFLICT"
	ErrPrecondition       ErrorCode = "PRECONDITION_FAILED"
	ErrTransport          ErrorCode = "TRANSPORT_ERROR"
	ErrValidation         ErrorCode = "VALIDATION_FAILED"
	ErrTicketExpired      ErrorCode = "TICKET_EXPIRED"
	ErrPaymentTerminal    ErrorCode = "PAYMENT_TERMINAL"
	ErrUnexpectedResponse ErrorCode = "UNEXPECTED_RESPONSE"
	ErrInternalServer     ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func MapErrorToHTTPStatus(err error) int {
	if apiErr, ok := err.(APIError); ok {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict:
			return http.StatusConflict
		case ErrPrecondition:
			return http.StatusBadRequest
		case ErrValidation:
			return http.StatusUnprocessableEntity
		case ErrTicketExpired:
			return http.StatusGone
		case ErrTransport, ErrUnexpectedResponse:
			return http.StatusBadGateway
		case ErrPaymentTerminal:
			return http.StatusConflict
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
