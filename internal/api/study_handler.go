package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/redact"
	"github.com/phrazzld/scry-study/internal/service/study"
)

// StudySessions is the slice of the study service used by StudyHandler.
type StudySessions interface {
	Begin(ctx context.Context, learnerID uuid.UUID, deck domain.Deck) (study.Pass, error)
	Resume(ctx context.Context, learnerID uuid.UUID, deck domain.Deck) (study.Pass, error)
	GradeCard(ctx context.Context, pass study.Pass, grade study.Grade) (study.Pass, study.GradeResult, error)
	Advance(ctx context.Context, pass study.Pass) (study.Pass, error)
	Retreat(ctx context.Context, pass study.Pass) (study.Pass, error)
	Restart(ctx context.Context, pass study.Pass) error
}

// StudyHandler handles study session HTTP requests.
//
// Every request names the deck and its current size. The begin endpoint opens
// the pass; the other endpoints resume it and apply their operation. For a
// disposable deck, begin starts a new pass and the rest continue it.
type StudyHandler struct {
	sessions StudySessions
	logger   *slog.Logger
}

// NewStudyHandler creates a new StudyHandler
func NewStudyHandler(sessions StudySessions, logger *slog.Logger) *StudyHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}

	return &StudyHandler{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "study_handler")),
	}
}

// BeginSession handles POST /decks/{deckID}/session
func (h *StudyHandler) BeginSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req DeckRequest
	pass, ok := h.openPass(w, r, &req, log, h.sessions.Begin, func(id uuid.UUID) domain.Deck { return req.deck(id) })
	if !ok {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toSessionResponse(pass))
}

// GradeCard handles POST /decks/{deckID}/session/grade
func (h *StudyHandler) GradeCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req GradeRequest
	pass, ok := h.openPass(w, r, &req, log, h.sessions.Resume, func(id uuid.UUID) domain.Deck { return req.deck(id) })
	if !ok {
		return
	}

	grade, err := req.grade()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	pass, result, err := h.sessions.GradeCard(r.Context(), pass, grade)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if result.StatErr != nil {
		log.Warn("grade saved with incomplete session statistics",
			slog.String("session_id", pass.Session.ID.String()),
			slog.String("error", redact.Error(result.StatErr)))
	}

	resp := GradeResponse{
		Session:       toSessionResponse(pass),
		StatsRecorded: result.StatErr == nil,
	}
	if result.ReviewState != nil {
		review := toReviewStateResponse(domain.ReviewKey{
			LearnerID: pass.Session.LearnerID,
			DeckID:    pass.Deck.ID,
			CardIndex: req.CardIndex,
		}, *result.ReviewState)
		resp.Review = &review
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Advance handles POST /decks/{deckID}/session/advance
func (h *StudyHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.sessions.Advance)
}

// Retreat handles POST /decks/{deckID}/session/retreat
func (h *StudyHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.sessions.Retreat)
}

// Restart handles POST /decks/{deckID}/session/restart.
// The response is the reopened pass.
func (h *StudyHandler) Restart(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req DeckRequest
	pass, ok := h.openPass(w, r, &req, log, h.sessions.Resume, func(id uuid.UUID) domain.Deck { return req.deck(id) })
	if !ok {
		return
	}

	if err := h.sessions.Restart(r.Context(), pass); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	pass, err := h.sessions.Resume(r.Context(), pass.Session.LearnerID, pass.Deck)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toSessionResponse(pass))
}

func (h *StudyHandler) navigate(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, study.Pass) (study.Pass, error),
) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req DeckRequest
	pass, ok := h.openPass(w, r, &req, log, h.sessions.Resume, func(id uuid.UUID) domain.Deck { return req.deck(id) })
	if !ok {
		return
	}

	pass, err := op(r.Context(), pass)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toSessionResponse(pass))
}

// openFunc is Begin or Resume.
type openFunc func(ctx context.Context, learnerID uuid.UUID, deck domain.Deck) (study.Pass, error)

// openPass decodes req, then opens the pass over the deck built by deckOf.
// It writes the error response and reports false on any failure.
func (h *StudyHandler) openPass(
	w http.ResponseWriter,
	r *http.Request,
	req interface{},
	log *slog.Logger,
	open openFunc,
	deckOf func(uuid.UUID) domain.Deck,
) (study.Pass, bool) {
	learnerID, deckID, ok := handleLearnerIDAndPathUUID(w, r, "deckID", log)
	if !ok {
		return study.Pass{}, false
	}
	if !decodeAndValidate(w, r, req, log) {
		return study.Pass{}, false
	}

	pass, err := open(r.Context(), learnerID, deckOf(deckID))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return study.Pass{}, false
	}
	return pass, true
}
