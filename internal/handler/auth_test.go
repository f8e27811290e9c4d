package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/opitemdb/internal/auth"
	"github.com/osse101/opitemdb/internal/database/memory"
	"github.com/osse101/opitemdb/internal/domain"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) AuthCodeURL(state string) string {
	return "https://discord.test/authorize?state=" + url.QueryEscape(state)
}

func (m *MockProvider) Exchange(ctx context.Context, code string) (auth.Identity, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(auth.Identity), args.Error(1)
}

func newAuthHandler(t *testing.T, provider auth.Provider) (*AuthHandler, *auth.Issuer) {
	t.Helper()
	iss := auth.NewIssuer("handler-test-secret-0123456789abcdef", time.Hour)
	svc := auth.NewService(memory.New(), iss, provider, auth.Options{ModeratorDiscordIDs: []string{"7"}})
	return NewAuthHandler(svc), iss
}

func loginState(t *testing.T, h *AuthHandler, redirect string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/discord/login?redirect_uri="+url.QueryEscape(redirect), nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "discord.test", loc.Host)
	return loc.Query().Get("state")
}

func TestHandleLogin_RejectsForeignRedirect(t *testing.T) {
	h, _ := newAuthHandler(t, &MockProvider{})

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/discord/login?redirect_uri="+url.QueryEscape("https://evil.test/cb"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/discord/login", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCallback_Success(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Exchange", mock.Anything, "good-code").
		Return(auth.Identity{DiscordID: "7", Username: "mod"}, nil)
	h, iss := newAuthHandler(t, provider)
	state := loginState(t, h, "http://127.0.0.1:5050/callback")

	rec := httptest.NewRecorder()
	h.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/discord/callback?code=good-code&state="+url.QueryEscape(state), nil))

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5050", loc.Host)
	token := loc.Query().Get(auth.ParamToken)
	require.NotEmpty(t, token)

	claims, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, claims.Role)
	provider.AssertExpectations(t)
}

func TestHandleCallback_ExchangeFailureRedirectsWithError(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Exchange", mock.Anything, "bad-code").
		Return(auth.Identity{}, errors.New("invalid_grant"))
	h, _ := newAuthHandler(t, provider)
	state := loginState(t, h, "http://localhost:5050/callback")

	rec := httptest.NewRecorder()
	h.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/discord/callback?code=bad-code&state="+url.QueryEscape(state), nil))

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, auth.MsgLoginFailed, loc.Query().Get(auth.ParamError))
	assert.Empty(t, loc.Query().Get(auth.ParamToken))
}

func TestHandleCallback_BadStateIsNotRedirected(t *testing.T) {
	h, _ := newAuthHandler(t, &MockProvider{})

	rec := httptest.NewRecorder()
	h.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/discord/callback?code=x&state=forged", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestHandleMe(t *testing.T) {
	h, _ := newAuthHandler(t, &MockProvider{})

	rec := httptest.NewRecorder()
	h.HandleMe(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	user := &domain.User{ID: "u-1", Username: "steve", Role: domain.RoleMember}
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(auth.WithUser(req.Context(), user))
	rec = httptest.NewRecorder()
	h.HandleMe(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"steve"`)
}

func TestWithQuery(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:1/cb?a=1&token=x", withQuery("http://127.0.0.1:1/cb?a=1", "token", "x"))
}
