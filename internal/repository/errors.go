// Package repository defines error values that are reused across
// multiple repositories. These sentinel values let handlers distinguish
// failure scenarios without string matching.
package repository

import "errors"

// ErrCarNotFound is returned when no car exists with the requested id.
var ErrCarNotFound = errors.New("car not found")

// ErrReservationNotFound is returned when no reservation exists with
// the requested id.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrDateConflict is returned when an insert would overlap an existing
// PENDING or CONFIRMED reservation for the same car. The overlap check
// runs inside the same transaction as the insert, so two concurrent
// bookings for intersecting ranges admit exactly one. Handlers
// translate this into HTTP 409.
var ErrDateConflict = errors.New("car already reserved for the selected dates")
