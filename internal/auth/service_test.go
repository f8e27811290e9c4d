package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/opitemdb/internal/database/memory"
	"github.com/osse101/opitemdb/internal/domain"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) AuthCodeURL(state string) string {
	return "https://discord.test/authorize?state=" + url.QueryEscape(state)
}

func (m *MockProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(Identity), args.Error(1)
}

func newTestService(t *testing.T, provider Provider) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.New()
	iss := NewIssuer(testSecret, time.Hour)
	svc := NewService(repo, iss, provider, Options{
		ModeratorDiscordIDs: []string{" 42 "},
		AllowedRedirects:    []string{"https://items.example.com/"},
	})
	return svc, repo
}

func stateFrom(t *testing.T, loginURL string) string {
	t.Helper()
	u, err := url.Parse(loginURL)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestLoginURL_Redirects(t *testing.T) {
	svc, _ := newTestService(t, &MockProvider{})

	tests := []struct {
		name     string
		redirect string
		allowed  bool
	}{
		{"loopback ipv4", "http://127.0.0.1:43111/callback", true},
		{"loopback ipv6", "http://[::1]:43111/callback", true},
		{"localhost", "http://localhost:3000/", true},
		{"allowlisted", "https://items.example.com/auth/done", true},
		{"https loopback is not implied", "https://127.0.0.1/callback", false},
		{"foreign host", "https://evil.example.net/", false},
		{"prefix trick", "https://items.example.com.evil.net/", false},
		{"relative", "/callback", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.LoginURL(tt.redirect)
			if !tt.allowed {
				assert.ErrorIs(t, err, ErrRedirectNotAllowed)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, stateFrom(t, got))
		})
	}
}

func TestLoginURL_Disabled(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.LoginURL("http://127.0.0.1/callback")
	assert.ErrorIs(t, err, ErrOAuthDisabled)
}

func TestCallback_MemberAndModerator(t *testing.T) {
	provider := &MockProvider{}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()

	provider.On("Exchange", mock.Anything, "code-member").
		Return(Identity{DiscordID: "7", Username: "steve"}, nil)
	provider.On("Exchange", mock.Anything, "code-mod").
		Return(Identity{DiscordID: "42", Username: "alex"}, nil)

	loginURL, err := svc.LoginURL("http://127.0.0.1:5000/callback")
	require.NoError(t, err)
	state := stateFrom(t, loginURL)

	redirect, token, err := svc.Callback(ctx, "code-member", state)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:5000/callback", redirect)
	member, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "steve", member.Username)
	assert.False(t, member.IsModerator())

	_, token, err = svc.Callback(ctx, "code-mod", state)
	require.NoError(t, err)
	mod, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.True(t, mod.IsModerator())

	provider.AssertExpectations(t)
}

func TestCallback_Failures(t *testing.T) {
	provider := &MockProvider{}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()

	loginURL, err := svc.LoginURL("http://127.0.0.1:5000/callback")
	require.NoError(t, err)
	state := stateFrom(t, loginURL)

	t.Run("forged state", func(t *testing.T) {
		redirect, _, err := svc.Callback(ctx, "code", "forged")
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Empty(t, redirect)
	})

	t.Run("missing code keeps redirect", func(t *testing.T) {
		redirect, _, err := svc.Callback(ctx, "", state)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Equal(t, "http://127.0.0.1:5000/callback", redirect)
	})

	t.Run("exchange failure keeps redirect", func(t *testing.T) {
		provider.On("Exchange", mock.Anything, "bad").Return(Identity{}, errors.New("invalid_grant")).Once()
		redirect, token, err := svc.Callback(ctx, "bad", state)
		assert.Error(t, err)
		assert.Empty(t, token)
		assert.Equal(t, "http://127.0.0.1:5000/callback", redirect)
	})
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t, nil)
	token, err := svc.issuer.Issue(domain.User{ID: "ghost"})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestSignOut(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()
	u, err := repo.UpsertDiscordUser(ctx, domain.User{DiscordID: "7", Username: "steve"})
	require.NoError(t, err)
	token, err := svc.issuer.Issue(*u)
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, token))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.ErrorIs(t, svc.SignOut(ctx, token), domain.ErrUnauthenticated)
}
