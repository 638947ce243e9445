package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestInitialReviewState(t *testing.T) {
	t.Parallel()

	s := InitialReviewState()
	if s.IntervalDays != 0 || s.Repetitions != 0 {
		t.Errorf("expected zero interval and repetitions, got %+v", s)
	}
	if s.EaseFactor != 2.5 {
		t.Errorf("expected ease factor 2.5, got %v", s.EaseFactor)
	}
	if s.LastReviewedAt != nil {
		t.Error("expected nil LastReviewedAt")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("initial state should validate: %v", err)
	}
}

func TestReviewStateValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state ReviewState
		want  error
	}{
		{"valid", ReviewState{IntervalDays: 6, Repetitions: 2, EaseFactor: 2.36}, nil},
		{"ease at floor", ReviewState{EaseFactor: MinEaseFactor}, nil},
		{"ease below floor", ReviewState{EaseFactor: 1.29}, ErrInvalidEaseFactor},
		{"negative interval", ReviewState{IntervalDays: -1, EaseFactor: 2.5}, ErrInvalidInterval},
		{"negative repetitions", ReviewState{Repetitions: -1, EaseFactor: 2.5}, ErrInvalidRepetitions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Validate(); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReviewStateIsDue(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	state := ReviewState{EaseFactor: 2.5, NextReview: DateOf(today)}

	if !state.IsDue(today) {
		t.Error("card due today should be due")
	}
	if !state.IsDue(today.AddDate(0, 0, 1)) {
		t.Error("card due yesterday should be due")
	}
	if state.IsDue(today.AddDate(0, 0, -1)) {
		t.Error("card due tomorrow should not be due")
	}
}

func TestReviewKeyValidate(t *testing.T) {
	t.Parallel()

	valid := ReviewKey{LearnerID: uuid.New(), DeckID: uuid.New(), CardIndex: 0}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	k := valid
	k.LearnerID = uuid.Nil
	if err := k.Validate(); err != ErrEmptyLearnerID {
		t.Errorf("expected ErrEmptyLearnerID, got %v", err)
	}

	k = valid
	k.DeckID = uuid.Nil
	if err := k.Validate(); err != ErrEmptyDeckID {
		t.Errorf("expected ErrEmptyDeckID, got %v", err)
	}

	k = valid
	k.CardIndex = -1
	if err := k.Validate(); err != ErrInvalidCardIndex {
		t.Errorf("expected ErrInvalidCardIndex, got %v", err)
	}
}

func TestDateOf(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+9", 9*60*60)
	// 01:00 on March 11 in UTC+9 is still March 10 in UTC; the local civil date wins.
	local := time.Date(2026, 3, 11, 1, 0, 0, 0, loc)

	got := DateOf(local)
	want := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateOf() = %v, want %v", got, want)
	}

	if got := AddDays(local, 6); !got.Equal(want.AddDate(0, 0, 6)) {
		t.Errorf("AddDays() = %v", got)
	}
}
