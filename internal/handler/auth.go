package handler

import (
	"net/http"
	"net/url"

	"github.com/osse101/opitemdb/internal/auth"
	"github.com/osse101/opitemdb/internal/logger"
)

// AuthHandler serves the Discord login routes and /api/me
type AuthHandler struct {
	svc *auth.Service
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// HandleLogin redirects to Discord
// @Summary Start Discord login
// @Description After login the browser is sent to redirect_uri with token or error in the query.
// @Tags auth
// @Param redirect_uri query string true "Where to return after login"
// @Success 302
// @Failure 400 {object} ErrorResponse
// @Router /auth/discord/login [get]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" {
		respondError(w, http.StatusBadRequest, ErrMsgRedirectNotAllowed)
		return
	}
	target, err := h.svc.LoginURL(redirectURI)
	if err != nil {
		respondServiceError(w, r, "discord login", err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleCallback completes the Discord login
// @Summary Discord OAuth callback
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string true "State from the login redirect"
// @Success 302
// @Failure 400 {object} ErrorResponse
// @Router /auth/discord/callback [get]
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if denied := q.Get("error"); denied != "" && q.Get("code") == "" {
		logger.FromContext(r.Context()).Info("Discord login denied", "reason", denied)
	}

	redirectURI, token, err := h.svc.Callback(r.Context(), q.Get("code"), q.Get("state"))
	if redirectURI == "" {
		// without a verified state there is nowhere safe to send the browser
		respondServiceError(w, r, "discord callback", err)
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Warn("Discord login failed", "error", err)
		http.Redirect(w, r, withQuery(redirectURI, auth.ParamError, auth.MsgLoginFailed), http.StatusFound)
		return
	}
	http.Redirect(w, r, withQuery(redirectURI, auth.ParamToken, token), http.StatusFound)
}

// HandleSignOut revokes the caller's token
// @Summary Sign out
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Router /auth/signout [post]
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context(), auth.BearerToken(r)); err != nil {
		respondServiceError(w, r, "sign out", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated user
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User
// @Failure 401 {object} ErrorResponse
// @Router /api/me [get]
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, ErrMsgUnauthenticated)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func withQuery(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
