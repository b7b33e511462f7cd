package httpapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mmynk/hangout/internal/auth"
	"github.com/mmynk/hangout/internal/calendar"
	"github.com/mmynk/hangout/internal/planner"
)

type CalendarInput struct {
	Code          string `path:"code" doc:"Event code"`
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `query:"token" doc:"Token for calendar clients that cannot send headers"`
}

type CalendarOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// HandleCalendar returns the .ics file of a finalized event to a member.
func (h *Handler) HandleCalendar(ctx context.Context, input *CalendarInput) (*CalendarOutput, error) {
	claims, err := h.authenticate(input.Authorization, input.Token)
	if err != nil {
		return nil, huma.Error401Unauthorized("Unauthorized: " + err.Error())
	}

	ev, err := h.events.MemberEvent(ctx, input.Code, claims.UserID)
	switch {
	case errors.Is(err, planner.ErrNotFound):
		return nil, huma.Error404NotFound("Event not found")
	case errors.Is(err, planner.ErrForbidden):
		return nil, huma.Error403Forbidden("Access denied: join the event first")
	case errors.Is(err, planner.ErrValidation):
		return nil, huma.Error400BadRequest(err.Error())
	case err != nil:
		h.logger.Error("Calendar export failed", "code", input.Code, "error", err)
		return nil, huma.Error500InternalServerError("Failed to load event")
	}

	ics, err := calendar.BuildICS(ev, h.eventURL(ev.Code))
	if errors.Is(err, calendar.ErrNotFinal) {
		return nil, huma.Error409Conflict("Event is not finalized yet")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to build calendar")
	}

	return &CalendarOutput{
		ContentType:        "text/calendar; charset=utf-8",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", "hangout-"+ev.Code+".ics"),
		Body:               []byte(ics),
	}, nil
}

func (h *Handler) authenticate(header, query string) (*auth.Claims, error) {
	token := query
	if header != "" {
		t, err := auth.BearerToken(header)
		if err != nil {
			return nil, err
		}
		token = t
	}
	if token == "" {
		return nil, auth.ErrMissingToken
	}
	return h.jwt.Validate(token)
}

func (h *Handler) eventURL(code string) string {
	if h.publicURL == "" {
		return ""
	}
	return h.publicURL + "/events/" + code
}
