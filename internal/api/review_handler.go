package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/service/review"
)

// ReviewHandler handles due-review HTTP requests
type ReviewHandler struct {
	reviews review.DueQuery
	now     func() time.Time
	logger  *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler. now supplies "today" when a
// request has no as_of parameter; nil means time.Now.
func NewReviewHandler(reviews review.DueQuery, now func() time.Time, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}
	if now == nil {
		now = time.Now
	}

	return &ReviewHandler{
		reviews: reviews,
		now:     now,
		logger:  logger.With(slog.String("component", "review_handler")),
	}
}

// CountDue handles GET /reviews/due/count
func (h *ReviewHandler) CountDue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := getLearnerIDFromContext(r)
	if !ok {
		log.Warn("learner ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner ID not found or invalid")
		return
	}

	asOf, err := parseAsOf(r, h.now())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	count, err := h.reviews.CountDue(r.Context(), learnerID, asOf)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DueCountResponse{
		AsOf:  asOf.Format(time.DateOnly),
		Count: count,
	})
}

// ListDue handles GET /reviews/due
func (h *ReviewHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := getLearnerIDFromContext(r)
	if !ok {
		log.Warn("learner ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner ID not found or invalid")
		return
	}

	asOf, err := parseAsOf(r, h.now())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	limit, err := parseLimit(r, review.DefaultListLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	cards, err := h.reviews.ListDue(r.Context(), learnerID, asOf, limit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := DueListResponse{
		AsOf:  asOf.Format(time.DateOnly),
		Cards: make([]DueCardResponse, 0, len(cards)),
	}
	for _, c := range cards {
		resp.Cards = append(resp.Cards, DueCardResponse{
			DeckID:     c.DeckID,
			CardIndex:  c.CardIndex,
			NextReview: c.NextReview.Format(time.DateOnly),
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Postpone handles POST /reviews/{deckID}/{cardIndex}/postpone
func (h *ReviewHandler) Postpone(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, deckID, ok := handleLearnerIDAndPathUUID(w, r, "deckID", log)
	if !ok {
		return
	}
	cardIndex, err := getPathIndex(r, "cardIndex")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req PostponeRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	key := domain.ReviewKey{LearnerID: learnerID, DeckID: deckID, CardIndex: cardIndex}
	state, err := h.reviews.Postpone(r.Context(), key, req.Days)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toReviewStateResponse(key, state))
}
