package submission

import "time"

// Form field names, as used for field errors
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldItemType    = "item_type_id"
	FieldMaterial    = "material_id"
	FieldRarity      = "rarity_id"
	FieldStarLevel   = "star_level"
	FieldImage       = "image"
	FieldLoreImage   = "lore_image"
)

// Field messages
const (
	MsgSelectionRequired = "Please make a selection"
	MsgInvalidSelection  = "Invalid selection"
	MsgInvalidStarLevel  = "Star level must be a whole number between 0 and 3"
	MsgFileEmpty         = "The file is empty"
	MsgFileTooLarge      = "The file is larger than 5 MB"
	MsgFileType          = "Only PNG, JPEG, WebP and GIF images are allowed"
)

// Form-level and notification messages
const (
	MsgCheckFields      = "Please correct the highlighted fields."
	MsgSignInRequired   = "Please sign in again to submit items."
	MsgRejected         = "The item was rejected. Please check the highlighted fields."
	MsgUploadFailed     = "The image could not be uploaded. Please try again."
	MsgSubmitFailed     = "The item could not be saved. Please try again later."
	MsgMetadataFailed   = "Enchantments could not be loaded. Please try again."
	msgSubmittedPattern = "%q was submitted for review."
	msgCreatedPattern   = "%q was created."
)

// rollbackTimeout bounds the best-effort cleanup of uploaded objects
const rollbackTimeout = 15 * time.Second
