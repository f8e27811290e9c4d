package auth

import "time"

// Token settings
const (
	tokenIssuer    = "opitemdb"
	audienceAPI    = "api"
	audienceState  = "oauth-state"
	stateTTL       = 10 * time.Minute
	revokedEntries = 10_000
	bearerPrefix   = "Bearer "
)

// Discord OAuth settings
const (
	discordScopeIdentify = "identify"
	discordAvatarSize    = "128"
	discordCurrentUser   = "@me"
)

// Redirect query parameters
const (
	ParamToken = "token"
	ParamError = "error"
)

// User-facing messages
const (
	MsgSignInRequired = "Authentication required"
	MsgSessionInvalid = "Session is invalid or expired"
	MsgLoginFailed    = "Login with Discord failed"
)

// Log messages
const (
	LogMsgUserSignedIn   = "User signed in"
	LogMsgUserSignedOut  = "User signed out"
	LogMsgExchangeFailed = "Discord code exchange failed"
	LogMsgTokenRejected  = "Bearer token rejected"
)
