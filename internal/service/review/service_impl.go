package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

// Verify interface compliance at compile time
var (
	_ DueQuery  = (*Service)(nil)
	_ Scheduler = (*Service)(nil)
)

// Service implements DueQuery and Scheduler on top of a ReviewStateStore.
type Service struct {
	reviews    store.ReviewStateStore
	srsService srs.Service
	logger     *slog.Logger
}

// NewService creates a new review Service.
func NewService(reviews store.ReviewStateStore, srsService srs.Service, logger *slog.Logger) *Service {
	if reviews == nil {
		panic("reviews cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		reviews:    reviews,
		srsService: srsService,
		logger:     logger.With(slog.String("component", "review_service")),
	}
}

// CountDue implements DueQuery.CountDue.
func (s *Service) CountDue(ctx context.Context, learnerID uuid.UUID, asOf time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	asOf = domain.DateOf(asOf)

	count, err := s.reviews.CountDue(ctx, learnerID, asOf)
	if err != nil {
		log.Error("failed to count due cards",
			slog.String("error", err.Error()),
			slog.String("learner_id", learnerID.String()))
		return 0, NewServiceError("count_due", "failed to count due cards", err)
	}

	log.Debug("counted due cards",
		slog.String("learner_id", learnerID.String()),
		slog.String("as_of", asOf.Format(time.DateOnly)),
		slog.Int("count", count))
	return count, nil
}

// ListDue implements DueQuery.ListDue.
func (s *Service) ListDue(
	ctx context.Context,
	learnerID uuid.UUID,
	asOf time.Time,
	limit int,
) ([]domain.DueCard, error) {
	if limit < MinListLimit || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidLimit, limit, MinListLimit, MaxListLimit)
	}

	cards, err := s.reviews.ListDue(ctx, learnerID, domain.DateOf(asOf), limit)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list due cards",
			slog.String("error", err.Error()),
			slog.String("learner_id", learnerID.String()))
		return nil, NewServiceError("list_due", "failed to list due cards", err)
	}
	return cards, nil
}

// Postpone implements DueQuery.Postpone.
func (s *Service) Postpone(ctx context.Context, key domain.ReviewKey, days int) (domain.ReviewState, error) {
	if days < 1 {
		return domain.ReviewState{}, ErrInvalidDays
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	state, err := s.reviews.Modify(ctx, key, func(current *domain.ReviewState) (domain.ReviewState, error) {
		if current == nil {
			return domain.ReviewState{}, store.ErrReviewStateNotFound
		}
		return s.srsService.Postpone(*current, days)
	})
	if err != nil {
		if errors.Is(err, store.ErrReviewStateNotFound) {
			return domain.ReviewState{}, err
		}
		log.Error("failed to postpone review",
			slog.String("error", err.Error()),
			slog.String("learner_id", key.LearnerID.String()),
			slog.String("deck_id", key.DeckID.String()),
			slog.Int("card_index", key.CardIndex))
		return domain.ReviewState{}, NewServiceError("postpone", "failed to postpone review", err)
	}

	log.Info("review postponed",
		slog.String("learner_id", key.LearnerID.String()),
		slog.String("deck_id", key.DeckID.String()),
		slog.Int("card_index", key.CardIndex),
		slog.Int("days", days),
		slog.Time("next_review", state.NextReview))
	return state, nil
}

// RecordReview implements Scheduler.RecordReview.
func (s *Service) RecordReview(
	ctx context.Context,
	key domain.ReviewKey,
	rating domain.Rating,
	now time.Time,
) (domain.ReviewState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	state, err := s.reviews.Modify(ctx, key, func(current *domain.ReviewState) (domain.ReviewState, error) {
		return s.srsService.Next(current, rating, now)
	})
	if err != nil {
		if errors.Is(err, srs.ErrInvalidRating) {
			return domain.ReviewState{}, err
		}
		log.Error("failed to record review",
			slog.String("error", err.Error()),
			slog.String("learner_id", key.LearnerID.String()),
			slog.String("deck_id", key.DeckID.String()),
			slog.Int("card_index", key.CardIndex),
			slog.String("rating", rating.String()))
		return domain.ReviewState{}, NewServiceError("record_review", "failed to record review", err)
	}

	log.Debug("review recorded",
		slog.String("learner_id", key.LearnerID.String()),
		slog.String("deck_id", key.DeckID.String()),
		slog.Int("card_index", key.CardIndex),
		slog.String("rating", rating.String()),
		slog.Int("interval_days", state.IntervalDays),
		slog.Float64("ease_factor", state.EaseFactor),
		slog.Time("next_review", state.NextReview))
	return state, nil
}
