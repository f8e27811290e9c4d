package coordinator

import "time"

// List query defaults
const (
	DefaultQueryTimeout = 10 * time.Second
	DefaultQueryRetries = 2
	DefaultRetryBackoff = 250 * time.Millisecond

	// MaxSkeletonRows caps placeholder rows for unbounded pages
	MaxSkeletonRows = 24
)

// User-facing messages for the list error state
const (
	MsgLoadFailed         = "Items could not be loaded. Please try again."
	MsgServiceUnavailable = "The item service is unavailable right now. Please try again later."
	MsgSignInRequired     = "Please sign in again."
)
