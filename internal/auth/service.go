package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/logger"
	"github.com/osse101/opitemdb/internal/repository"
)

// Options configure the auth service
type Options struct {
	// ModeratorDiscordIDs are granted the moderator role on sign-in
	ModeratorDiscordIDs []string
	// AllowedRedirects are URL prefixes a login may return to besides loopback addresses
	AllowedRedirects []string
}

// Service signs users in through Discord and resolves bearer tokens to users
type Service struct {
	users            repository.User
	issuer           *Issuer
	provider         Provider
	moderators       map[string]struct{}
	allowedRedirects []string
}

// NewService creates the auth service. provider may be nil when Discord login is disabled.
func NewService(users repository.User, issuer *Issuer, provider Provider, opts Options) *Service {
	mods := make(map[string]struct{}, len(opts.ModeratorDiscordIDs))
	for _, id := range opts.ModeratorDiscordIDs {
		if id = strings.TrimSpace(id); id != "" {
			mods[id] = struct{}{}
		}
	}
	return &Service{
		users:            users,
		issuer:           issuer,
		provider:         provider,
		moderators:       mods,
		allowedRedirects: opts.AllowedRedirects,
	}
}

// LoginURL returns the Discord consent URL for a login that ends at redirectURI
func (s *Service) LoginURL(redirectURI string) (string, error) {
	if s.provider == nil {
		return "", ErrOAuthDisabled
	}
	if !s.redirectAllowed(redirectURI) {
		return "", fmt.Errorf("%w: %s", ErrRedirectNotAllowed, redirectURI)
	}
	state, err := s.issuer.IssueState(redirectURI)
	if err != nil {
		return "", err
	}
	return s.provider.AuthCodeURL(state), nil
}

// Callback completes a login. The redirect URI is returned whenever the state is
// valid, also on failure, so the client can be sent back with an error.
func (s *Service) Callback(ctx context.Context, code, state string) (redirectURI, token string, err error) {
	if s.provider == nil {
		return "", "", ErrOAuthDisabled
	}
	redirectURI, err = s.issuer.ParseState(state)
	if err != nil {
		return "", "", err
	}
	if code == "" {
		return redirectURI, "", fmt.Errorf("%w: missing code", domain.ErrInvalidInput)
	}

	log := logger.FromContext(ctx)
	ident, err := s.provider.Exchange(ctx, code)
	if err != nil {
		log.Warn(LogMsgExchangeFailed, "error", err)
		return redirectURI, "", err
	}

	role := domain.RoleMember
	if _, ok := s.moderators[ident.DiscordID]; ok {
		role = domain.RoleModerator
	}
	user, err := s.users.UpsertDiscordUser(ctx, domain.User{
		DiscordID: ident.DiscordID,
		Username:  ident.Username,
		AvatarURL: ident.AvatarURL,
		Role:      role,
	})
	if err != nil {
		return redirectURI, "", fmt.Errorf("failed to store user: %w", err)
	}

	token, err = s.issuer.Issue(*user)
	if err != nil {
		return redirectURI, "", err
	}
	log.Info(LogMsgUserSignedIn, "user_id", user.ID, "role", user.Role)
	return redirectURI, token, nil
}

// Authenticate resolves an access token to its user
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
		}
		return nil, err
	}
	return user, nil
}

// SignOut revokes an access token
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return err
	}
	s.issuer.Revoke(claims)
	logger.FromContext(ctx).Info(LogMsgUserSignedOut, "user_id", claims.Subject)
	return nil
}

func (s *Service) redirectAllowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme == "http" && isLoopback(u.Hostname()) {
		return true
	}
	for _, prefix := range s.allowedRedirects {
		if prefix != "" && strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	return false
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
