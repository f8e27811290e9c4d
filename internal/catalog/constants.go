package catalog

// Log messages
const (
	LogMsgItemCreated       = "Item created"
	LogMsgItemUpdated       = "Item updated"
	LogMsgItemDeleted       = "Item deleted"
	LogMsgEventPublishError = "Failed to publish item event"
)
