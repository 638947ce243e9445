// Package events provides types and interfaces for publishing study activity.
//
// Services emit StudyEvents without knowing which handlers will process them.
// The primary components are:
// - StudyEvent: a single fact about a study session or a graded card
// - EventHandler: interface for components that consume events
// - EventEmitter: interface for components that publish events
// - AsyncEmitter: a bounded, non-blocking wrapper around an EventEmitter
package events
