// Package repository contains data access logic separated from HTTP
// handlers and services. This file defines error types that are reused
// across multiple repositories. These sentinel values allow higher
// layers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by someone
// else, while ErrConflict signals that an operation cannot proceed due
// to conflicting state (e.g. a duplicate board name inside a project,
// or a column already at its WIP limit).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a create, update or move cannot be
// performed because of conflicting state. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
