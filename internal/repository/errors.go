// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as handlers
// to distinguish between failure scenarios: ErrTableConflict signals that a
// slot is already taken by a live reservation, ErrNotFound that a referenced
// row does not exist, and ErrConflict that an operation cannot proceed due
// to dependent records (e.g. deleting a shift that reservations still
// reference).
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.  Handlers
// should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state.  Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrTableConflict is returned when a non-terminal reservation already
// occupies the requested (table, date, time) slot.  The check and the write
// that can raise it always run inside one transaction holding the table row
// lock, so under concurrent identical requests exactly one caller succeeds
// and the rest receive this error.
var ErrTableConflict = errors.New("table already reserved for this date and time")
