// Package httpapi serves the plain-HTTP routes next to the Connect
// services: health, calendar export and Google sign-in.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/mmynk/hangout/internal/auth"
	"github.com/mmynk/hangout/internal/models"
)

// EventReader loads an event on behalf of a member.
type EventReader interface {
	MemberEvent(ctx context.Context, code, userID string) (*models.Event, error)
}

// Handler holds the dependencies of the plain-HTTP routes.
type Handler struct {
	events    EventReader
	users     auth.UserStorage
	jwt       *auth.JWTManager
	google    *auth.GoogleProvider
	publicURL string
	logger    *slog.Logger
}

// Options configure a Handler. Google may be nil to disable Google sign-in.
type Options struct {
	Events    EventReader
	Users     auth.UserStorage
	JWT       *auth.JWTManager
	Google    *auth.GoogleProvider
	PublicURL string
	Logger    *slog.Logger
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		events:    opts.Events,
		users:     opts.Users,
		jwt:       opts.JWT,
		google:    opts.Google,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		logger:    logger,
	}
}

var bearerAuth = []map[string][]string{{"bearerAuth": {}}}

// RegisterRoutes mounts the routes on r and returns the huma API, which
// also serves the OpenAPI document at /openapi.json and docs at /docs.
func (h *Handler) RegisterRoutes(r chi.Router) huma.API {
	config := huma.DefaultConfig("Hangout API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(r, config)

	huma.Get(api, "/health", h.HandleHealth)

	huma.Register(api, huma.Operation{
		OperationID: "export-event-calendar",
		Method:      http.MethodGet,
		Path:        "/api/events/{code}/calendar.ics",
		Summary:     "Export a finalized event as iCalendar",
		Security:    bearerAuth,
	}, h.HandleCalendar)

	if h.google != nil {
		huma.Get(api, "/auth/google/login", h.HandleGoogleLogin)
		huma.Get(api, "/auth/google/callback", h.HandleGoogleCallback)
	}
	return api
}

type HealthOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

func (h *Handler) HandleHealth(ctx context.Context, input *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{}
	out.Body.Status = "ok"
	return out, nil
}
