package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrStateConflict       = errors.New("state conflict")
	ErrInsufficientBalance = errors.New("insufficient withdrawable balance")
	ErrNotEligible         = errors.New("donor not eligible to vote")
	ErrVotesCast           = errors.New("votes already cast")

	// ErrVersionConflict signals a lost optimistic write. Callers retry
	// against a fresh read; it never reaches the HTTP surface.
	ErrVersionConflict = errors.New("version conflict")
)
