// Package domain contains the core entities of the study engine: the per-card
// review state that drives scheduling, the study session that records a
// learner's pass over a deck, and the small value types shared between them.
// It has no dependencies on storage or transport.
package domain
