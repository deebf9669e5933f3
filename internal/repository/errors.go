// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a lookup or a mutation addressed by id
// matched no row.  Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert violates a uniqueness rule
// enforced by the database.
var ErrConflict = errors.New("conflict")

// isDuplicateKey recognises unique-constraint violations from both
// supported drivers: MySQL error 1062 and SQLite "UNIQUE constraint failed".
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint")
}
