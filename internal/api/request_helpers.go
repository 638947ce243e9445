package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/service/auth"
)

// getLearnerIDFromContext extracts the authenticated learner's UUID from the request context.
// The learner ID is expected to be placed in the context by the authentication middleware.
func getLearnerIDFromContext(r *http.Request) (uuid.UUID, bool) {
	return shared.GetLearnerID(r.Context())
}

// getPathUUID extracts a UUID from the URL path parameters.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", ErrBadRequest, paramName)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrInvalidID, paramName)
	}

	return id, nil
}

// getPathIndex extracts a non-negative card index from the URL path parameters.
func getPathIndex(r *http.Request, paramName string) (int, error) {
	index, err := strconv.Atoi(chi.URLParam(r, paramName))
	if err != nil || index < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidCardIndex, paramName)
	}
	return index, nil
}

// parseAsOf reads the optional as_of query parameter (YYYY-MM-DD).
// A missing value means today.
func parseAsOf(r *http.Request, now time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return domain.DateOf(now), nil
	}
	asOf, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: as_of must be YYYY-MM-DD", ErrBadRequest)
	}
	return asOf, nil
}

// parseLimit reads the optional limit query parameter.
func parseLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer", ErrBadRequest)
	}
	return limit, nil
}

// handleLearnerIDAndPathUUID is a composite helper that extracts both the learner ID from context
// and a UUID from the path parameters. It writes an error response if either extraction fails.
func handleLearnerIDAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (uuid.UUID, uuid.UUID, bool) {
	learnerID, ok := getLearnerIDFromContext(r)
	if !ok {
		log.Warn("learner ID not found or invalid in request context")
		HandleAPIError(w, r, auth.ErrMissingLearner, "")
		return uuid.Nil, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		log.Warn("invalid "+paramName, slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}

	return learnerID, pathID, true
}

// decodeAndValidate reads the JSON body into req and validates it, writing
// the error response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}, log *slog.Logger) bool {
	if err := shared.DecodeJSON(w, r, req); err != nil {
		log.Debug("invalid request body", slog.String("error", err.Error()))
		HandleAPIError(w, r, fmt.Errorf("%w: %w", ErrBadRequest, err), "Invalid request format")
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, SanitizeValidationError(err))
		return false
	}
	return true
}
