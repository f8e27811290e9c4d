package auth

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"
)

// Identity is the Discord account behind a completed login
type Identity struct {
	DiscordID string
	Username  string
	AvatarURL string
}

// Provider runs the OAuth authorization code flow against an identity provider
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

// DiscordProvider signs users in with Discord
type DiscordProvider struct {
	oauth *oauth2.Config
	// currentUser resolves the user behind an access token
	currentUser func(ctx context.Context, accessToken string) (*discordgo.User, error)
}

// NewDiscordProvider creates a provider for the given Discord application
func NewDiscordProvider(clientID, clientSecret, redirectURL string) *DiscordProvider {
	return &DiscordProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{discordScopeIdentify},
			Endpoint: oauth2.Endpoint{
				AuthURL:   discordgo.EndpointAPI + "oauth2/authorize",
				TokenURL:  discordgo.EndpointAPI + "oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		currentUser: fetchDiscordUser,
	}
}

// AuthCodeURL returns the Discord consent page URL
func (p *DiscordProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "none"))
}

// Exchange trades an authorization code for the Discord identity it grants
func (p *DiscordProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to exchange code: %w", err)
	}
	u, err := p.currentUser(ctx, tok.AccessToken)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to fetch discord user: %w", err)
	}
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return Identity{
		DiscordID: u.ID,
		Username:  name,
		AvatarURL: u.AvatarURL(discordAvatarSize),
	}, nil
}

func fetchDiscordUser(ctx context.Context, accessToken string) (*discordgo.User, error) {
	s, err := discordgo.New(bearerPrefix + accessToken)
	if err != nil {
		return nil, err
	}
	return s.User(discordCurrentUser, discordgo.WithContext(ctx))
}
