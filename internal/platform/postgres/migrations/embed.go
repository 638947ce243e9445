// Package migrations holds the goose SQL migrations of the PostgreSQL schema.
package migrations

import "embed"

// FS contains every migration file, for use with goose.SetBaseFS.
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory of the migrations inside FS.
const Dir = "."
