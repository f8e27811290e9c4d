package domain

// User roles
const (
	RoleMember    = "member"
	RoleModerator = "moderator"
)

// User is an authenticated account, identified through Discord
type User struct {
	ID        string `json:"id"`
	DiscordID string `json:"discord_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      string `json:"role"`
}

// IsModerator reports whether the user may publish and reject items
func (u *User) IsModerator() bool {
	return u != nil && u.Role == RoleModerator
}

// CanManage reports whether the user may edit or delete an item owned by ownerID
func (u *User) CanManage(ownerID string) bool {
	if u == nil {
		return false
	}
	return u.IsModerator() || u.ID == ownerID
}
