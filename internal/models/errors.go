package models

import "errors"

// Sentinel errors shared across repositories, services and handlers.
// Repositories translate sql.ErrNoRows into ErrNotFound at their boundary so
// callers never see driver-level errors for missing rows.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidLeadStatus = errors.New("invalid lead status")

	// ErrLeadConverted signals the terminal-state guard of the lead lifecycle:
	// a Converted lead can never change status again. Handlers map this to a
	// specific rejection message, distinct from not-found.
	ErrLeadConverted = errors.New("converted leads cannot change status")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrDuplicateMobile    = errors.New("mobile already registered")
)
