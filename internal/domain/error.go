package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrConversationBusy    = errors.New("another turn is in progress for this user")
	ErrSessionUnavailable  = errors.New("session store unavailable")
	ErrGenerationFailed    = errors.New("text generation failed")
	ErrBackendUnavailable  = errors.New("scheduling backend unavailable")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("no upcoming appointment")
)
