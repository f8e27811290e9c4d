// Package bff is the client of the backend-for-frontend HTTP API.
//
// Every failure crossing this package is classified into a *domain.Error so the pipelines
// above it can decide between fatal errors, field errors and transport fallback.
package bff

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/osse101/opitemdb/internal/domain"
)

// TokenSource supplies the bearer credential for authenticated calls.
// An empty token means the call is made anonymously.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token
type StaticToken string

// AccessToken implements TokenSource
func (t StaticToken) AccessToken(context.Context) (string, error) {
	return string(t), nil
}

// Client talks to the BFF
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource sets the credential source for authenticated calls
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// NewClient creates a client for the BFF at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  StaticToken(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorBody is the JSON error shape returned by the BFF
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// do sends a request and decodes a 2xx JSON response into out (when non-nil).
// Non-2xx statuses, network failures and undecodable bodies come back as *domain.Error.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal body: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSuccessBodyBytes)).Decode(out); err != nil {
		return &domain.Error{
			Kind:    domain.KindUpstreamData,
			Op:      op,
			Message: MsgUpstreamFailure,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("malformed response: %w", err),
		}
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return &domain.Error{Kind: domain.KindAuthorization, Op: "authorize", Message: MsgSignInRequired, Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// transportError classifies a failure to get any response at all
func transportError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		// aborts are not classified; callers check for context.Canceled
		return fmt.Errorf("%s: %w", op, err)
	}
	return &domain.Error{
		Kind:    domain.KindTransportUnavailable,
		Op:      op,
		Message: MsgServiceUnavailable,
		Err:     err,
	}
}

// statusError classifies a non-2xx response
func statusError(op string, resp *http.Response) error {
	kind := domain.KindForStatus(resp.StatusCode)

	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	_ = json.Unmarshal(raw, &eb)

	de := &domain.Error{
		Kind:   kind,
		Op:     op,
		Status: resp.StatusCode,
		Fields: eb.Fields,
		Err:    fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncateBody(eb.Error, raw)),
	}

	switch kind {
	case domain.KindAuthorization:
		de.Message = MsgSignInRequired
	case domain.KindSchemaValidation:
		if len(eb.Fields) > 0 {
			de.Message = MsgCheckFields
		} else {
			de.Message = MsgRequestRejected
		}
	case domain.KindTransportUnavailable:
		de.Message = MsgServiceUnavailable
	default:
		de.Message = MsgUpstreamFailure
	}
	return de
}

func truncateBody(msg string, raw []byte) string {
	if msg != "" {
		return msg
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// WithToken returns a copy of the client that authenticates with token
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.tokens = StaticToken(token)
	return &cp
}
