package discord

// Embed colors
const (
	colorPending = 0xf1c40f // Yellow
)

// Moderation notification text
const (
	notifyContent       = "A new item is waiting for moderation."
	notifyFooter        = "OP Item DB"
	notifyFieldItemID   = "Item ID"
	notifyFieldOwner    = "Submitted by"
	notifyFieldReview   = "Review"
	notifyReviewCommand = "`opitemctl moderate`"
	notifyMaxTitleRunes = 256
)

// Log messages
const (
	LogMsgNotifierRegistered  = "Moderation notifier registered"
	LogMsgNotificationSent    = "Moderation notification sent"
	LogMsgNotificationFailed  = "Moderation notification failed"
	LogMsgNotificationDropped = "Moderation notification could not be queued"
	LogMsgPayloadInvalid      = "Item event payload could not be decoded"
)
