package bff

import "time"

// API paths
const (
	PathHealth       = "/api/health"
	PathItems        = "/api/items"
	PathMe           = "/api/me"
	PathEvents       = "/api/events"
	PathEnchantments = "/api/enchantments"
	PathSignOut      = "/auth/signout"
)

// Query parameter names of GET /api/items
const (
	ParamType        = "type"
	ParamMaterial    = "material"
	ParamRarity      = "rarity"
	ParamSearch      = "search"
	ParamPage        = "page"
	ParamPageSize    = "page_size"
	ParamIsPublished = "is_published"

	// PageSizeAll requests every matching item on one page
	PageSizeAll = "all"
)

// Client defaults
const (
	DefaultTimeout      = 15 * time.Second
	maxErrorBodyBytes   = 64 * 1024
	maxSuccessBodyBytes = 8 << 20
)

// User-facing messages attached to classified errors
const (
	MsgSignInRequired     = "Please sign in again."
	MsgCheckFields        = "Please correct the highlighted fields."
	MsgRequestRejected    = "The request was rejected. Please check your inputs."
	MsgServiceUnavailable = "The item service is unavailable right now. Please try again later."
	MsgUpstreamFailure    = "Something went wrong. Please try again."
)

// SSE client configuration
const (
	sseInitialBackoff    = 1 * time.Second
	sseMaxBackoff        = 30 * time.Second
	sseBackoffMultiplier = 2.0
	sseBufferSize        = 64 * 1024
	sseEventsBuffer      = 32
)

// SSE control event types that carry no item payload
const (
	sseEventKeepalive = "keepalive"
	sseEventConnected = "connected"
)

// Log messages
const (
	logMsgSSEConnected        = "Item event stream connected"
	logMsgSSEConnectionFailed = "Item event stream connection failed"
	logMsgSSEStopped          = "Item event stream stopped"
	logMsgSSEParseError       = "Failed to parse item event"
	logMsgSSEDropped          = "Item event dropped, consumer too slow"
)
