// Package postgres provides PostgreSQL implementations of the persistence
// interfaces defined in internal/store. Queries go through database/sql with
// the pgx stdlib driver, and every driver error is translated with MapError so
// callers only ever see store sentinels.
//
// Schema changes live in the migrations subpackage as goose SQL files.
package postgres
