package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/mmynk/hangout/internal/auth"
)

const stateCookie = "oauth_state"

type RedirectOutput struct {
	Status    int
	Location  string      `header:"Location"`
	SetCookie http.Cookie `header:"Set-Cookie"`
}

// HandleGoogleLogin redirects to the Google consent page. The state is kept
// in a short-lived cookie and checked on the callback.
func (h *Handler) HandleGoogleLogin(ctx context.Context, input *struct{}) (*RedirectOutput, error) {
	state := uuid.NewString()
	return &RedirectOutput{
		Status:   http.StatusTemporaryRedirect,
		Location: h.google.AuthCodeURL(state),
		SetCookie: http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/auth/google",
			MaxAge:   int((10 * time.Minute).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}, nil
}

type GoogleCallbackInput struct {
	Code        string `query:"code"`
	State       string `query:"state"`
	StateCookie string `cookie:"oauth_state"`
}

// HandleGoogleCallback finishes sign-in and redirects to the frontend with
// a session token.
func (h *Handler) HandleGoogleCallback(ctx context.Context, input *GoogleCallbackInput) (*RedirectOutput, error) {
	if input.Code == "" {
		return nil, huma.Error400BadRequest("Code not found")
	}
	if input.State == "" || input.State != input.StateCookie {
		return nil, huma.Error400BadRequest("Invalid OAuth state")
	}

	profile, err := h.google.Exchange(ctx, input.Code)
	if err != nil {
		h.logger.Warn("Google exchange failed", "error", err)
		return nil, huma.Error502BadGateway("Google auth failed")
	}

	user, err := auth.ResolveGoogleUser(ctx, h.users, profile)
	if errors.Is(err, auth.ErrGoogleEmailUnverified) {
		return nil, huma.Error403Forbidden("Google account email is not verified")
	}
	if err != nil {
		h.logger.Error("Google sign-in failed", "subject", profile.Subject, "error", err)
		return nil, huma.Error500InternalServerError("Failed to sign in")
	}

	token, err := h.jwt.Generate(user)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	h.logger.Info("User signed in with Google", "user_id", user.ID, "email", user.Email)
	return &RedirectOutput{
		Status:   http.StatusSeeOther,
		Location: h.publicURL + "/auth-success.html?token=" + url.QueryEscape(token),
		SetCookie: http.Cookie{
			Name:   stateCookie,
			Path:   "/auth/google",
			MaxAge: -1,
		},
	}, nil
}
