package domain

import "fmt"

// Rating is the learner's judgment of how well a card was recalled.
type Rating string

// Possible rating values, from worst to best recall.
const (
	RatingAgain Rating = "again"
	RatingHard  Rating = "hard"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

// Quality maps a rating onto the numeric 0-5 scale used by the scheduler.
// There is no quality 1 or 2: "again" is a hard floor.
// An unknown rating reports -1.
func (r Rating) Quality() int {
	switch r {
	case RatingAgain:
		return 0
	case RatingHard:
		return 3
	case RatingGood:
		return 4
	case RatingEasy:
		return 5
	default:
		return -1
	}
}

// IsValid reports whether r is one of the four known ratings.
func (r Rating) IsValid() bool {
	return r.Quality() >= 0
}

// String implements fmt.Stringer.
func (r Rating) String() string {
	return string(r)
}

// ParseRating converts a raw string into a Rating.
func ParseRating(s string) (Rating, error) {
	r := Rating(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
	return r, nil
}
