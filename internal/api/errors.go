package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/phrazzld/scry-study/internal/service/review"
	"github.com/phrazzld/scry-study/internal/service/study"
	"github.com/phrazzld/scry-study/internal/store"
)

// retryAfterSeconds is advertised on 503 responses caused by storage outages.
const retryAfterSeconds = 1

// ErrBadRequest marks malformed requests detected by the handlers themselves.
var ErrBadRequest = errors.New("bad request")

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingLearner):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrReviewStateNotFound),
		errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, study.ErrSessionCompleted),
		errors.Is(err, study.ErrGradeInFlight):
		return http.StatusConflict

	// Requests that are well formed but cannot apply to the deck
	case errors.Is(err, study.ErrInvalidDeckState),
		errors.Is(err, study.ErrInvalidGrade):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, ErrBadRequest),
		errors.As(err, &validationErrs),
		errors.Is(err, review.ErrInvalidLimit),
		errors.Is(err, review.ErrInvalidDays),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidCardIndex),
		errors.Is(err, domain.ErrEmptyLearnerID),
		errors.Is(err, domain.ErrEmptyDeckID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Transient storage failures
	case store.IsRetryable(err):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingLearner):
		return "Invalid token"

	case errors.Is(err, store.ErrReviewStateNotFound):
		return "Card has not been reviewed yet"

	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, study.ErrSessionCompleted):
		return "Session is already completed"

	case errors.Is(err, study.ErrGradeInFlight):
		return "A grade for this session is already being recorded"

	case errors.Is(err, study.ErrInvalidDeckState):
		return "Deck has no cards to study"

	case errors.Is(err, study.ErrInvalidGrade):
		return "Invalid grade"

	case errors.Is(err, domain.ErrInvalidRating):
		return "Invalid rating"

	case errors.Is(err, review.ErrInvalidLimit):
		return fmt.Sprintf("Limit must be between %d and %d", review.MinListLimit, review.MaxListLimit)

	case errors.Is(err, review.ErrInvalidDays):
		return "Days must be at least 1"

	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)

	case errors.Is(err, ErrBadRequest),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidCardIndex),
		errors.Is(err, domain.ErrEmptyLearnerID),
		errors.Is(err, domain.ErrEmptyDeckID),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case store.IsRetryable(err):
		return "Service temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}

	errMsg := err.Error()
	// Example format: "Key: 'GradeRequest.CardCount' Error:Field validation for 'CardCount' failed on the 'gt' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 5 {
				return fmt.Sprintf("Invalid %s: %s", fieldParts[1], getValidationTagMessage(fieldParts[3]))
			}
			if len(fieldParts) >= 3 {
				return fmt.Sprintf("Invalid %s", fieldParts[1])
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "gt":
		return "must be positive"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the error response for err. An empty message uses
// GetSafeErrorMessage. Storage outages carry a Retry-After header.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}

	var opts []shared.ResponseOption
	if status == http.StatusServiceUnavailable {
		opts = append(opts, shared.WithRetryAfter(retryAfterSeconds))
	}
	if status == http.StatusConflict {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
