// Package session holds the signed-in user of the client and the bearer token that
// authenticates its calls.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/osse101/opitemdb/internal/bff"
	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/logger"
)

// TokenStore persists the access token between runs
type TokenStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

// Resolver looks up the user an access token belongs to
type Resolver func(ctx context.Context, token string) (domain.User, error)

// Session is a signed-in user with their access token
type Session struct {
	Token string
	User  domain.User
}

// Listener is called after every sign-in and sign-out. A nil session means signed out.
type Listener func(*Session)

type listener struct {
	id uint64
	fn Listener
}

// Manager owns the current session
type Manager struct {
	tokens  TokenStore
	resolve Resolver
	log     *slog.Logger

	mu        sync.Mutex
	current   *Session
	loaded    bool
	listeners []listener
	nextID    uint64
}

// NewManager creates a session manager. tokens may be nil for an in-memory session.
func NewManager(tokens TokenStore, resolve Resolver) *Manager {
	return &Manager{
		tokens:  tokens,
		resolve: resolve,
		log:     logger.Component("session"),
	}
}

// GetSession returns the current session, or nil when signed out.
// A persisted token the backend no longer accepts is discarded.
func (m *Manager) GetSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.loaded {
		s := m.current
		m.mu.Unlock()
		return copySession(s), nil
	}
	m.mu.Unlock()

	token, err := m.loadToken()
	if err != nil {
		return nil, err
	}
	if token == "" {
		m.mu.Lock()
		m.loaded = true
		m.mu.Unlock()
		return nil, nil
	}

	user, err := m.resolve(ctx, token)
	if err != nil {
		if domain.IsKind(err, domain.KindAuthorization) {
			m.log.Info("Stored session is no longer valid, signing out")
			return nil, m.SignOut(ctx)
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	s := &Session{Token: token, User: user}
	m.mu.Lock()
	m.current = s
	m.loaded = true
	m.mu.Unlock()
	return copySession(s), nil
}

// AccessToken returns the bearer token of the current session, or "" when signed out
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	s, err := m.GetSession(ctx)
	if err != nil || s == nil {
		return "", err
	}
	return s.Token, nil
}

// SignIn validates token against the backend and makes it the current session
func (m *Manager) SignIn(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty access token", domain.ErrInvalidInput)
	}

	user, err := m.resolve(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if m.tokens != nil {
		if err := m.tokens.SaveToken(token); err != nil {
			return nil, fmt.Errorf("save session token: %w", err)
		}
	}

	s := &Session{Token: token, User: user}
	m.set(s)
	m.log.Info("Signed in", "user_id", user.ID, "username", user.Username)
	return copySession(s), nil
}

// SignOut forgets the current session
func (m *Manager) SignOut(ctx context.Context) error {
	var err error
	if m.tokens != nil {
		if clearErr := m.tokens.ClearToken(); clearErr != nil {
			err = fmt.Errorf("clear session token: %w", clearErr)
		}
	}
	m.set(nil)
	return err
}

// OnChange registers fn for sign-in and sign-out notifications. The returned func unsubscribes.
func (m *Manager) OnChange(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, l := range m.listeners {
				if l.id == id {
					m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (m *Manager) set(s *Session) {
	m.mu.Lock()
	m.current = s
	m.loaded = true
	ls := make([]listener, len(m.listeners))
	copy(ls, m.listeners)
	m.mu.Unlock()

	for _, l := range ls {
		m.notify(l, copySession(s))
	}
}

func (m *Manager) notify(l listener, s *Session) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("Session listener failed", "listener", l.id, "panic", r)
		}
	}()
	l.fn(s)
}

func (m *Manager) loadToken() (string, error) {
	if m.tokens == nil {
		return "", nil
	}
	token, err := m.tokens.LoadToken()
	if err != nil {
		return "", fmt.Errorf("load session token: %w", err)
	}
	return strings.TrimSpace(token), nil
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// RequireUser returns the signed-in user or a KindAuthorization error
func (m *Manager) RequireUser(ctx context.Context) (domain.User, error) {
	s, err := m.GetSession(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if s == nil {
		return domain.User{}, &domain.Error{
			Kind:    domain.KindAuthorization,
			Op:      "session",
			Message: MsgSignInRequired,
			Err:     domain.ErrUnauthenticated,
		}
	}
	return s.User, nil
}

// ResolveWith resolves tokens through the BFF's /api/me
func ResolveWith(client *bff.Client) Resolver {
	return func(ctx context.Context, token string) (domain.User, error) {
		return client.WithToken(token).Me(ctx)
	}
}
