package session

import "time"

// MsgSignInRequired is shown when an action needs a signed-in user
const MsgSignInRequired = "Please sign in first."

// Loopback login
const (
	LoginTimeout           = 3 * time.Minute
	loginReadHeaderTimeout = 5 * time.Second
	loginCallbackPath      = "/callback"
	loginStartPath         = "/auth/discord/login"
	paramRedirectURI       = "redirect_uri"
	paramToken             = "token"
	paramError             = "error"
)
