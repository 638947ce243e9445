package domain

import "github.com/google/uuid"

// Deck is the caller's view of an ordered collection of cards. Card content
// lives elsewhere; the engine only needs the deck's identity and size.
type Deck struct {
	ID        uuid.UUID `json:"id"`
	CardCount int       `json:"card_count"`

	// Disposable decks are ad-hoc selections whose sessions are never persisted.
	Disposable bool `json:"disposable,omitempty"`
}

// Contains reports whether index addresses a card of the deck.
func (d Deck) Contains(index int) bool {
	return index >= 0 && index < d.CardCount
}

// LastIndex returns the index of the final card, or -1 for an empty deck.
func (d Deck) LastIndex() int {
	return d.CardCount - 1
}
