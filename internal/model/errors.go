package model

import "errors"

// Common errors used across the application
var (
	// Slot errors
	ErrInvalidSlot       = errors.New("invalid slot index")
	ErrIdentityCollision = errors.New("account already active in another slot")

	// Auth errors
	ErrAuthFailure = errors.New("authentication failed")

	// Delivery errors
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrLocalStorage      = errors.New("local storage failure")

	// Lookup errors
	ErrNotFound = errors.New("not found")
)
