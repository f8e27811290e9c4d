package handler

// Error message constants for HTTP handlers
const (
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Please correct the highlighted fields."
	ErrMsgInvalidItemID         = "Invalid item ID"
	ErrMsgInvalidQuery          = "Invalid query parameters"
	ErrMsgMissingQueryParam     = "Missing %s query parameter"
	ErrMsgBodyTooLarge          = "Request body too large"
)

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgInvalidRequestError = "Invalid request. Please check your inputs."
	ErrMsgUnauthenticated     = "Authentication required"
	ErrMsgForbidden           = "You are not allowed to do that"
	ErrMsgItemNotFoundError   = "Item not found"
	ErrMsgLookupNotFoundError = "Lookup entry not found"
	ErrMsgUserNotFoundError   = "User not found"
	ErrMsgObjectNotFoundError = "Object not found"
	ErrMsgTimeoutError        = "The request took too long. Please try again."
	ErrMsgLoginDisabled       = "Discord login is not configured"
	ErrMsgRedirectNotAllowed  = "redirect_uri is not allowed"
	ErrMsgInvalidState        = "Login session expired. Please try again."
	ErrMsgUnsupportedMedia    = "Only PNG, JPEG, WebP and GIF images are allowed"
	ErrMsgOwnerPrefix         = "Objects must be stored under your user ID"
)

// Log messages
const (
	LogMsgDecodeFailed    = "Failed to decode request body"
	LogMsgValidationError = "Request failed validation"
	LogMsgServiceError    = "Service call failed"
	LogMsgReadinessFailed = "Readiness check failed"
	LogMsgUploadRejected  = "Upload rejected"
	LogMsgObjectsRemoved  = "Objects removed"
)
