package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/opitemdb/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestIssuer(clock *fakeClock) *Issuer {
	return NewIssuer(testSecret, time.Hour, WithClock(clock.Now))
}

func TestIssuer_IssueAndParse(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	iss := newTestIssuer(clock)

	token, err := iss.Issue(domain.User{ID: "u-1", Role: domain.RoleModerator})
	require.NoError(t, err)

	claims, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, domain.RoleModerator, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestIssuer_ParseRejects(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	iss := newTestIssuer(clock)
	token, err := iss.Issue(domain.User{ID: "u-1"})
	require.NoError(t, err)

	other := NewIssuer(strings.Repeat("x", 32), time.Hour, WithClock(clock.Now))
	state, err := iss.IssueState("http://127.0.0.1:9999/callback")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		iss   *Issuer
	}{
		{"empty", "", iss},
		{"garbage", "not-a-jwt", iss},
		{"wrong secret", token, other},
		{"state token used as access token", state, iss},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.iss.Parse(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}

func TestIssuer_Expired(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	iss := newTestIssuer(clock)
	token, err := iss.Issue(domain.User{ID: "u-1"})
	require.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Hour)

	_, err = iss.Parse(token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Contains(t, err.Error(), "expired")
}

func TestIssuer_Revoke(t *testing.T) {
	iss := newTestIssuer(&fakeClock{t: time.Now()})
	token, err := iss.Issue(domain.User{ID: "u-1"})
	require.NoError(t, err)
	claims, err := iss.Parse(token)
	require.NoError(t, err)

	iss.Revoke(claims)
	iss.Revoke(nil)

	_, err = iss.Parse(token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestIssuer_State(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	iss := newTestIssuer(clock)

	state, err := iss.IssueState("http://127.0.0.1:5000/callback")
	require.NoError(t, err)

	got, err := iss.ParseState(state)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:5000/callback", got)

	access, err := iss.Issue(domain.User{ID: "u-1"})
	require.NoError(t, err)
	_, err = iss.ParseState(access)
	assert.ErrorIs(t, err, ErrInvalidState)

	clock.t = clock.t.Add(stateTTL + time.Minute)
	_, err = iss.ParseState(state)
	assert.ErrorIs(t, err, ErrInvalidState)
}
