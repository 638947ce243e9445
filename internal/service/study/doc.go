// Package study drives a learner's pass through a deck.
//
// A Manager opens a Pass with Begin, picks it up again with Resume, records
// answers with GradeCard and moves through the deck with Advance and Retreat. Each graded card joins two
// stores: the review schedule, which is authoritative, and the session's
// engagement counters, which are best effort once the schedule is written.
//
// Passes are value snapshots. Every operation returns the updated Pass and
// leaves its argument untouched.
package study
