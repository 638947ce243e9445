// Package mocks provides shared test doubles for the store and auth
// interfaces.
//
// Store mocks are built on testify/mock so tests can script failures for a
// single call:
//
//	sessions := new(mocks.MockSessionStore)
//	sessions.On("IncrementStat", mock.Anything, sessionID, domain.SessionStatHint).
//		Return(0, store.ErrStorageUnavailable)
//
// MockJWTService uses function fields instead, since most tests only need a
// canned token or claims.
package mocks
