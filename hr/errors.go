/*
errors.go - Centralized error types for the personnel domain

PURPOSE:
  Sentinel errors shared across the store, the entitlement core, and the
  API layer. Packages wrap these with context; callers branch with
  errors.Is().
*/
package hr

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateNotification is returned when the notification uniqueness
	// constraint rejects a second notification for the same
	// (user, type, related entity, due date). Expected under repeated
	// scheduler passes; never a failure.
	ErrDuplicateNotification = errors.New("duplicate entitlement notification")

	// ErrDuplicateEmployeeNumber is returned when an employee number is
	// already taken.
	ErrDuplicateEmployeeNumber = errors.New("duplicate employee number")

	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = errors.New("duplicate username")

	// ErrMissingHiringDate marks an employee record unusable for
	// entitlement computation.
	ErrMissingHiringDate = errors.New("employee has no hiring date")
)
