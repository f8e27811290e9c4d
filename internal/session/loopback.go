package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/osse101/opitemdb/internal/domain"
)

// ErrLoginTimeout is returned when the browser never completes the login redirect
var ErrLoginTimeout = errors.New("login was not completed in time")

// Opener shows the login URL to the user, typically by launching a browser
type Opener func(loginURL string) error

// LoginURL builds the BFF login URL that redirects back to redirectURI with a token
func LoginURL(apiURL, redirectURI string) string {
	q := url.Values{}
	q.Set(paramRedirectURI, redirectURI)
	return strings.TrimRight(apiURL, "/") + loginStartPath + "?" + q.Encode()
}

type loginResult struct {
	token string
	err   error
}

// Login runs the Discord login through the BFF. It listens on a loopback port, hands the
// login URL to open, and signs in with the token the BFF redirects back with.
func (m *Manager) Login(ctx context.Context, apiURL string, open Opener) (*Session, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for login callback: %w", err)
	}
	redirectURI := "http://" + ln.Addr().String() + loginCallbackPath

	results := make(chan loginResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(loginCallbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		res := loginResult{token: q.Get(paramToken)}
		if msg := q.Get(paramError); msg != "" {
			res.err = fmt.Errorf("%w: %s", domain.ErrUnauthenticated, msg)
		} else if res.token == "" {
			res.err = fmt.Errorf("%w: login callback carried no token", domain.ErrUnauthenticated)
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("Login failed. You can close this window.\n"))
		} else {
			_, _ = w.Write([]byte("Login complete. You can close this window.\n"))
		}

		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: loginReadHeaderTimeout}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Warn("Login callback listener stopped", "error", err)
		}
	}()
	defer func() { _ = srv.Close() }()

	if err := open(LoginURL(apiURL, redirectURI)); err != nil {
		return nil, fmt.Errorf("open login page: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, LoginTimeout)
	defer cancel()

	select {
	case <-waitCtx.Done():
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrLoginTimeout
		}
		return nil, waitCtx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		return m.SignIn(ctx, res.token)
	}
}
