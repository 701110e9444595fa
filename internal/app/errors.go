package app

import "errors"

// Sentinel errors reported in load and submit results.
var (
	// ErrEmptyState marks a player data payload of the form {"error": msg}.
	// The store uses it for "no data"; it is not a fault.
	ErrEmptyState = errors.New("store reported no data")
	// ErrMalformedPayload is returned when player data is neither a list
	// nor an error object.
	ErrMalformedPayload = errors.New("player data is not a list")
	// ErrNotStarted is returned by StoreService calls made before Start.
	ErrNotStarted = errors.New("store service not started")
)
