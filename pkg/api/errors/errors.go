package errors

import (
	"context"
	stderrors "errors"
	"log"
	"net/http"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/models"
	"github.com/labstack/echo/v4"
)

// ValidationError returns a generic validation error without exposing internal details
func ValidationError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[VALIDATION ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request data. Please check your input and try again.",
	})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[INTERNAL ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// UnauthorizedError returns a generic unauthorized error
func UnauthorizedError(c echo.Context, reason string) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "You are not authorized to access this resource.",
	})
}

// NotFoundError returns a generic not found error
func NotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: "The requested resource was not found.",
	})
}

// ConflictError returns a conflict error
func ConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, models.ErrorResponse{
		Error:   "conflict",
		Message: message, // Message is safe to expose (e.g., "Removal is already running")
	})
}

// FromDomain writes the response for an error returned by a workflow or client.
// Operator-facing messages of domain errors are passed through, anything else
// is reported as an internal error.
func FromDomain(c echo.Context, err error) error {
	var de *domain.DomainError
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		log.Printf("[TIMEOUT] Path: %s, Error: %v", c.Request().URL.Path, err)
		return c.JSON(http.StatusGatewayTimeout, models.ErrorResponse{
			Error:   "timeout",
			Message: "The request took too long. Please try again.",
		})
	case !stderrors.As(err, &de):
		return InternalError(c, err)
	}

	switch de.Code {
	case domain.ErrCodeValidation:
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation_error", Message: de.Message})
	case domain.ErrCodeNotFound:
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: de.Message})
	case domain.ErrCodePrecondition:
		return ConflictError(c, de.Message)
	case domain.ErrCodeConfiguration:
		log.Printf("[CONFIGURATION ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "configuration_error", Message: de.Message})
	case domain.ErrCodeHTTP:
		log.Printf("[UPSTREAM ERROR] Path: %s, Status: %d, Error: %v", c.Request().URL.Path, de.Status, err)
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "upstream_error", Message: de.Message})
	case domain.ErrCodeNetwork:
		log.Printf("[NETWORK ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "upstream_unreachable",
			Message: "The campaign platform could not be reached. Please try again later.",
		})
	default:
		return InternalError(c, err)
	}
}
