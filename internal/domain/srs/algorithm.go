package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// calculateNewEaseFactor applies the SM-2 ease update for a review of the given quality.
//
// Parameters:
//   - currentEF: The ease factor before the review
//   - quality: The review quality on the 0-5 scale
//   - params: Configuration parameters for the SRS algorithm
//
// Returns:
//   - currentEF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02)), never below params.MinEaseFactor
//
// With the four ratings this is +0.10 for easy, 0 for good, -0.14 for hard and
// -0.80 for again.
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	miss := float64(5 - quality)
	newEF := currentEF + (0.1 - miss*(0.08+miss*0.02))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the number of days until the next review.
//
// Parameters:
//   - currentInterval: The interval before the review, in days
//   - repetitions: Consecutive successful reviews before this one
//   - easeFactor: The ease factor before this review
//   - quality: The review quality on the 0-5 scale
//   - params: Configuration parameters for the SRS algorithm
//
// Algorithm behavior:
//   - A lapse (quality below params.PassingQuality) resets to params.LapseInterval
//   - The first success of a streak uses params.FirstInterval
//   - The second success uses params.SecondInterval
//   - Later successes multiply the previous interval by the previous ease factor,
//     rounded half away from zero
func calculateNewInterval(
	currentInterval int,
	repetitions int,
	easeFactor float64,
	quality int,
	params *Params,
) int {
	if quality < params.PassingQuality {
		return params.LapseInterval
	}

	switch repetitions {
	case 0:
		return params.FirstInterval
	case 1:
		return params.SecondInterval
	default:
		return int(math.Round(float64(currentInterval) * easeFactor))
	}
}

// calculateNextState derives the state that follows a review of prev rated with quality at now.
//
// prev is never modified; the result is a new value. The next review date is
// the civil date of now plus the new interval.
func calculateNextState(
	prev domain.ReviewState,
	quality int,
	now time.Time,
	params *Params,
) domain.ReviewState {
	next := domain.ReviewState{
		IntervalDays: calculateNewInterval(
			prev.IntervalDays,
			prev.Repetitions,
			prev.EaseFactor,
			quality,
			params,
		),
		EaseFactor: calculateNewEaseFactor(prev.EaseFactor, quality, params),
	}

	if quality >= params.PassingQuality {
		next.Repetitions = prev.Repetitions + 1
	} else {
		next.Repetitions = 0
	}

	reviewedAt := now
	next.LastReviewedAt = &reviewedAt
	next.NextReview = domain.AddDays(now, next.IntervalDays)

	return next
}
