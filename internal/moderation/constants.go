package moderation

// Action is a moderation decision on a pending item
type Action string

// Moderation actions
const (
	ActionPublish Action = "publish"
	ActionReject  Action = "reject"
)

// User-facing messages
const (
	MsgPublishFailed   = "The item could not be published. Please try again."
	MsgRejectFailed    = "The item could not be rejected. Please try again."
	MsgSignInRequired  = "Please sign in again as a moderator."
	msgPublishedFormat = "%q was published."
	msgRejectedFormat  = "%q was rejected."
	msgUntitledFormat  = "Item #%d"
)
