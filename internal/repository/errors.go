// Package repository holds the errors shared by every persistence backend.
package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint fails
	ErrConflict = errors.New("conflict: entity already exists")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")
)
