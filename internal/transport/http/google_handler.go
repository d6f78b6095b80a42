package http

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/opentrusty/taskboard/internal/audit"
	"github.com/opentrusty/taskboard/internal/identity"
	"github.com/opentrusty/taskboard/internal/observability/logger"
	"github.com/opentrusty/taskboard/internal/oidc"
)

// GoogleSignIn runs the authorization code flow against Google.
type GoogleSignIn interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*identity.ExternalIdentity, error)
}

// StateStore keeps one-time OAuth state values.
type StateStore interface {
	Save(ctx context.Context, state string) error
	Consume(ctx context.Context, state string) (bool, error)
}

// GoogleLogin redirects to Google
// @Summary Google Sign-in
// @Tags Auth
// @Success 302
// @Failure 404 {object} ErrorResponse
// @Router /auth/google [get]
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || h.states == nil {
		respondError(w, http.StatusNotFound, CodeNotFound, "google sign-in is not enabled")
		return
	}

	state := rand.Text()
	if err := h.states.Save(r.Context(), state); err != nil {
		slog.ErrorContext(r.Context(), "failed to store oauth state", logger.Error(err))
		respondError(w, http.StatusInternalServerError, CodeInternal, "failed to start sign-in")
		return
	}

	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback completes Google sign-in and hands the token to the frontend
// @Summary Google Callback
// @Tags Auth
// @Param state query string true "OAuth state"
// @Param code query string true "Authorization code"
// @Success 302
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/google/callback [get]
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || h.states == nil {
		respondError(w, http.StatusNotFound, CodeNotFound, "google sign-in is not enabled")
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		perr := oidc.NewError(e, q.Get("error_description"))
		if e != oidc.ErrAccessDenied {
			slog.WarnContext(r.Context(), "google returned an error", logger.Error(perr))
		}
		respondError(w, http.StatusBadRequest, CodeInvalidRequest, perr.Error())
		return
	}

	state := q.Get("state")
	if state == "" {
		respondError(w, http.StatusBadRequest, CodeInvalidRequest, "missing state")
		return
	}
	ok, err := h.states.Consume(r.Context(), state)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to consume oauth state", logger.Error(err))
		respondError(w, http.StatusInternalServerError, CodeInternal, "failed to complete sign-in")
		return
	}
	if !ok {
		respondError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid or expired state")
		return
	}

	ext, err := h.google.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		if errors.Is(err, oidc.ErrMissingCode) || errors.Is(err, oidc.ErrEmailNotVerified) {
			respondError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
			return
		}
		slog.WarnContext(r.Context(), "google code exchange failed", logger.Provider(string(identity.ProviderGoogle)), logger.Error(err))
		respondError(w, http.StatusUnauthorized, CodeInvalidCredentials, "google sign-in failed")
		return
	}

	user, err := h.identityService.LoginWithProvider(r.Context(), *ext)
	if err != nil {
		h.audit(r, audit.Event{Type: audit.TypeLoginFailed, Metadata: map[string]any{"email": ext.Email, "provider": string(identity.ProviderGoogle), "reason": err.Error()}})
		respondServiceError(w, r, err)
		return
	}
	h.audit(r, audit.Event{Type: audit.TypeLoginSuccess, ActorID: user.ID, Metadata: map[string]any{"provider": string(identity.ProviderGoogle)}})

	token, _, err := h.tokens.Issue(user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue token", logger.UserID(user.ID), logger.Error(err))
		respondError(w, http.StatusInternalServerError, CodeInternal, "failed to issue token")
		return
	}

	http.Redirect(w, r, h.frontendURL+"/auth/callback?token="+url.QueryEscape(token), http.StatusFound)
}
