// Package core defines the fundamental types and errors for dayplan.
package core

import "errors"

// Core errors that can occur across the system
var (
	// Profile errors
	ErrProfileNotFound = errors.New("profile not configured yet")
	ErrInvalidProfile  = errors.New("invalid profile")

	// Planning errors
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidPolicy = errors.New("invalid planner policy")

	// Storage errors
	ErrMigrationFailed = errors.New("migration failed")
	ErrRecordNotFound  = errors.New("record not found")
	ErrGoalNotFound    = errors.New("goal not found")
	ErrTaskNotFound    = errors.New("task not found")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
)
