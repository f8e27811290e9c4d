package domain

// Item event types published by the catalog and streamed over SSE
const (
	EventItemCreated   = "item.created"
	EventItemPublished = "item.published"
	EventItemRejected  = "item.rejected"
	EventItemUpdated   = "item.updated"
)

// ItemEventPayload is the payload of every item event
type ItemEventPayload struct {
	ItemID      int64  `json:"item_id"`
	Title       string `json:"title"`
	OwnerID     string `json:"owner_id"`
	IsPublished bool   `json:"is_published"`
	ActorID     string `json:"actor_id,omitempty"`
}

// Upload constraints shared by the submission pipeline and the storage routes
const (
	MaxUploadBytes = 5 << 20
	ImageBucket    = "item-images"
)

// AllowedImageTypes maps allowed file extensions to their MIME types
var AllowedImageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// IsAllowedImageMIME reports whether mime is one of the allowed image types
func IsAllowedImageMIME(mime string) bool {
	for _, m := range AllowedImageTypes {
		if m == mime {
			return true
		}
	}
	return false
}
