package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewSession(t *testing.T) {
	t.Parallel()

	learnerID, deckID := uuid.New(), uuid.New()
	now := time.Now()

	s := NewSession(learnerID, deckID, now)

	if s.ID == uuid.Nil {
		t.Error("expected non-nil session ID")
	}
	if s.Status != SessionStatusInProgress {
		t.Errorf("expected in_progress, got %s", s.Status)
	}
	if s.CurrentIndex != 0 || s.CorrectCount != 0 || s.IncorrectCount != 0 || s.HintCount != 0 {
		t.Errorf("expected zeroed session, got %+v", s)
	}
	if s.CompletedAt != nil {
		t.Error("expected nil CompletedAt")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("new session should validate: %v", err)
	}
}

func TestSessionCounters(t *testing.T) {
	t.Parallel()

	s := NewSession(uuid.New(), uuid.New(), time.Now())
	s = s.WithIncrement(SessionStatCorrect)
	s = s.WithIncrement(SessionStatCorrect)
	s = s.WithIncrement(SessionStatHint)

	if s.Count(SessionStatCorrect) != 2 {
		t.Errorf("expected 2 correct, got %d", s.Count(SessionStatCorrect))
	}
	if s.Count(SessionStatIncorrect) != 0 {
		t.Errorf("expected 0 incorrect, got %d", s.Count(SessionStatIncorrect))
	}
	if s.Count(SessionStatHint) != 1 {
		t.Errorf("expected 1 hint, got %d", s.Count(SessionStatHint))
	}
}

func TestSessionReset(t *testing.T) {
	t.Parallel()

	completedAt := time.Now()
	s := NewSession(uuid.New(), uuid.New(), time.Now())
	id := s.ID
	s.CurrentIndex = 4
	s.CorrectCount, s.IncorrectCount, s.HintCount = 3, 1, 2
	s.Status = SessionStatusCompleted
	s.CompletedAt = &completedAt

	r := s.Reset()

	if r.ID != id {
		t.Error("reset must preserve the session ID")
	}
	if r.CurrentIndex != 0 || r.CorrectCount != 0 || r.IncorrectCount != 0 || r.HintCount != 0 {
		t.Errorf("expected zeroed counters, got %+v", r)
	}
	if r.Status != SessionStatusInProgress || r.CompletedAt != nil {
		t.Errorf("expected in_progress with nil CompletedAt, got %+v", r)
	}
	// value semantics: the original is untouched
	if s.CorrectCount != 3 {
		t.Error("Reset mutated its receiver")
	}
}

func TestSessionStatValidity(t *testing.T) {
	t.Parallel()

	for _, stat := range []SessionStat{SessionStatCorrect, SessionStatIncorrect, SessionStatHint} {
		if !stat.IsValid() {
			t.Errorf("%s should be valid", stat)
		}
	}
	if SessionStat("streak").IsValid() {
		t.Error("unknown stat should be invalid")
	}
	if SessionStatus("abandoned").IsValid() {
		t.Error("unknown status should be invalid")
	}
}

func TestDeckContains(t *testing.T) {
	t.Parallel()

	d := Deck{ID: uuid.New(), CardCount: 3}
	for i, want := range map[int]bool{-1: false, 0: true, 2: true, 3: false} {
		if got := d.Contains(i); got != want {
			t.Errorf("Contains(%d) = %v, want %v", i, got, want)
		}
	}
	if d.LastIndex() != 2 {
		t.Errorf("LastIndex() = %d, want 2", d.LastIndex())
	}
}
