package srs

import "github.com/phrazzld/scry-study/internal/domain"

// Params defines all configurable parameters for the SM-2 algorithm
type Params struct {
	// Ease factor of a card that has never been reviewed
	InitialEaseFactor float64
	// Ease factor floor
	MinEaseFactor float64

	// Lowest quality that counts as "remembered"
	PassingQuality int

	// Intervals for the first two successful reviews of a streak
	FirstInterval  int
	SecondInterval int

	// Interval after a lapse
	LapseInterval int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the default.
type ParamsConfig struct {
	InitialEaseFactor float64
	MinEaseFactor     float64
	PassingQuality    int
	FirstInterval     int
	SecondInterval    int
	LapseInterval     int
}

// NewDefaultParams creates a new Params instance with the classic SM-2 values
func NewDefaultParams() *Params {
	return &Params{
		InitialEaseFactor: domain.InitialEaseFactor,
		MinEaseFactor:     domain.MinEaseFactor,
		PassingQuality:    3,
		FirstInterval:     1,
		SecondInterval:    6,
		LapseInterval:     1,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.InitialEaseFactor > 0 {
		params.InitialEaseFactor = config.InitialEaseFactor
	}
	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.PassingQuality > 0 {
		params.PassingQuality = config.PassingQuality
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.LapseInterval > 0 {
		params.LapseInterval = config.LapseInterval
	}

	return params
}
