// Package store defines the persistence contracts of the study engine:
// ReviewStateStore for per-card scheduling state and SessionStore for study
// sessions. Implementations live under internal/platform (postgres for durable
// storage, memory for process-local and disposable sessions) and report
// failures using the sentinel errors declared here.
package store
