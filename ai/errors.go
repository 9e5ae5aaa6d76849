package ai

import "errors"

var (
	// ErrNotConfigured is returned by services that have no backend host.
	ErrNotConfigured = errors.New("ai service not configured")

	// ErrInvalidConfig is returned when a configuration is incomplete.
	ErrInvalidConfig = errors.New("invalid ai config")
)
