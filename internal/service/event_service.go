package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/hangout/internal/metrics"
	"github.com/mmynk/hangout/internal/models"
	"github.com/mmynk/hangout/internal/planner"
	"github.com/mmynk/hangout/internal/storage"
	"github.com/mmynk/hangout/pkg/api"
	"github.com/mmynk/hangout/pkg/api/apiconnect"
)

// codeAttempts bounds retries when a generated event code is already taken.
const codeAttempts = 5

// EventService implements the Connect EventService: event lifecycle, polls,
// chat and finalization.
type EventService struct {
	eventAccess
}

var _ apiconnect.EventServiceHandler = (*EventService)(nil)

// NewEventService creates a new EventService with the given storage backend.
func NewEventService(store storage.Store, opts ...Option) *EventService {
	return &EventService{eventAccess: newEventAccess(store, opts)}
}

// CreateEvent creates a POLLING event owned by the caller.
func (s *EventService) CreateEvent(ctx context.Context, req *connect.Request[api.CreateEventRequest]) (*connect.Response[api.CreateEventResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateEvent request received",
		"user_id", userID,
		"title", req.Msg.Title,
		"date_options", len(req.Msg.DateOptions),
		"location_options", len(req.Msg.LocationOptions),
	)

	owner, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	in := planner.NewEventInput{
		Title:          req.Msg.Title,
		Description:    req.Msg.Description,
		Deadline:       req.Msg.Deadline,
		ProposedDates:  req.Msg.DateOptions,
		LocationLabels: req.Msg.LocationOptions,
	}

	now := s.clock()
	var ev *models.Event
	for attempt := 1; ; attempt++ {
		code, err := planner.GenerateCode(planner.CodeLength)
		if err != nil {
			return nil, toConnectError(fmt.Errorf("failed to generate code: %w", err))
		}
		ev, err = s.engine.CreateEvent(code, owner, in, now)
		if err != nil {
			return nil, toConnectError(err)
		}
		err = s.store.CreateEvent(ctx, ev)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrConflict) || attempt == codeAttempts {
			s.logger.Error("CreateEvent failed", "code", code, "attempt", attempt, "error", err)
			return nil, toConnectError(fmt.Errorf("failed to create event: %w", err))
		}
		s.logger.Warn("Event code collision, retrying", "code", code, "attempt", attempt)
	}

	s.metrics.EventCreated()
	s.logger.Info("Event created", "code", ev.Code, "owner", userID)

	return connect.NewResponse(&api.CreateEventResponse{
		Event: toAPIEvent(ev, userID, s.pollingOpen(ev)),
	}), nil
}

// ListEvents returns the events the caller owns or joined, newest first.
func (s *EventService) ListEvents(ctx context.Context, req *connect.Request[api.ListEventsRequest]) (*connect.Response[api.ListEventsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.summaries(ctx, userID)
	if err != nil {
		s.logger.Error("ListEvents failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	events := make([]*api.EventSummary, 0, len(list))
	for _, summary := range list {
		events = append(events, toAPISummary(summary))
	}
	return connect.NewResponse(&api.ListEventsResponse{Events: events}), nil
}

// JoinEvent adds the caller to the event. Joining twice is not an error.
func (s *EventService) JoinEvent(ctx context.Context, req *connect.Request[api.JoinEventRequest]) (*connect.Response[api.JoinEventResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("JoinEvent request received", "code", req.Msg.Code, "user_id", userID)

	ev, err := s.load(ctx, req.Msg.Code)
	if err != nil {
		return nil, toConnectError(err)
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	member, joined := s.engine.Join(ev, user, s.clock())
	if joined {
		if err := s.save(ctx, ev); err != nil {
			s.logger.Error("JoinEvent failed", "code", ev.Code, "error", err)
			return nil, toConnectError(err)
		}
		s.logger.Info("Member joined", "code", ev.Code, "member_id", member.ID, "name", member.Name)
	}

	return connect.NewResponse(&api.JoinEventResponse{
		Event:  toAPIEvent(ev, userID, s.pollingOpen(ev)),
		Joined: joined,
	}), nil
}

// GetEvent returns the full event to a member.
func (s *EventService) GetEvent(ctx context.Context, req *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	ev, _, err := s.loadAsMember(ctx, req.Msg.Code, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetEventResponse{
		Event: toAPIEvent(ev, userID, s.pollingOpen(ev)),
	}), nil
}

// AddDateOption proposes a new date.
func (s *EventService) AddDateOption(ctx context.Context, req *connect.Request[api.AddDateOptionRequest]) (*connect.Response[api.AddDateOptionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	ev, err := s.load(ctx, req.Msg.Code)
	if err != nil {
		return nil, toConnectError(err)
	}
	opt, err := s.engine.AddDateOption(ev, userID, req.Msg.DateTime, s.clock())
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.save(ctx, ev); err != nil {
		return nil, toConnectError(err)
	}
	s.logger.Info("Date option added", "code", ev.Code, "option_id", opt.ID, "at", opt.At)

	return connect.NewResponse(&api.AddDateOptionResponse{
		Option:  toAPIDateOption(opt, 0),
		Ranking: dateRanking(ev),
	}), nil
}

// AddLocationOption proposes a new location.
func (s *EventService) AddLocationOption(ctx context.Context, req *connect.Request[api.AddLocationOptionRequest]) (*connect.Response[api.AddLocationOptionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	ev, err := s.load(ctx, req.Msg.Code)
	if err != nil {
		return nil, toConnectError(err)
	}
	opt, err := s.engine.AddLocationOption(ev, userID, req.Msg.Label, s.clock())
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.save(ctx, ev); err != nil {
		return nil, toConnectError(err)
	}
	s.logger.Info("Location option added", "code", ev.Code, "option_id", opt.ID, "label", opt.Label)

	return connect.NewResponse(&api.AddLocationOptionResponse{
		Option:  toAPILocationOption(opt, 0),
		Ranking: locationRanking(ev),
	}), nil
}

// CastVote records or replaces the caller's vote in one category.
func (s *EventService) CastVote(ctx context.Context, req *connect.Request[api.CastVoteRequest]) (*connect.Response[api.CastVoteResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	category := models.Category(strings.ToUpper(strings.TrimSpace(req.Msg.Category)))
	if category != models.CategoryDate && category != models.CategoryLocation {
		return nil, toConnectError(fmt.Errorf("%w: category must be DATE or LOCATION", planner.ErrValidation))
	}

	ev, err := s.load(ctx, req.Msg.Code)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.engine.CastVote(ev, userID, category, req.Msg.OptionID, s.clock()); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.save(ctx, ev); err != nil {
		return nil, toConnectError(err)
	}
	s.metrics.Voted(string(category))

	ranking := dateRanking(ev)
	if category == models.CategoryLocation {
		ranking = locationRanking(ev)
	}
	return connect.NewResponse(&api.CastVoteResponse{Ranking: ranking}), nil
}

// PostMessage appends a chat message.
func (s *EventService) PostMessage(ctx context.Context, req *connect.Request[api.PostMessageRequest]) (*connect.Response[api.PostMessageResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	ev, err := s.load(ctx, req.Msg.Code)
	if err != nil {
		return nil, toConnectError(err)
	}
	msg, err := s.engine.PostMessage(ev, userID, req.Msg.Text, s.clock())
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.save(ctx, ev); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.PostMessageResponse{Message: toAPIMessage(msg)}), nil
}

// FinalizeEvent is the owner's explicit finalize.
func (s *EventService) FinalizeEvent(ctx context.Context, req *connect.Request[api.FinalizeEventRequest]) (*connect.Response[api.FinalizeEventResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("FinalizeEvent request received", "code", req.Msg.Code, "user_id", userID)

	ev, err := s.load(ctx, req.Msg.Code)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.engine.Finalize(ev, userID, s.clock()); err != nil {
		s.logger.Warn("FinalizeEvent rejected", "code", ev.Code, "error", err)
		return nil, toConnectError(err)
	}
	if err := s.save(ctx, ev); err != nil {
		s.logger.Error("FinalizeEvent failed", "code", ev.Code, "error", err)
		return nil, toConnectError(err)
	}
	s.logger.Info("Event finalized by owner",
		"code", ev.Code,
		"final_date", formatTime(ev.FinalDateTime),
		"final_location", deref(ev.FinalLocation),
	)
	s.finalized(ctx, ev, metrics.TriggerOwner)

	return connect.NewResponse(&api.FinalizeEventResponse{
		Event: toAPIEvent(ev, userID, s.pollingOpen(ev)),
	}), nil
}

// MemberEvent loads an event for one of its members, applying the deadline
// rule like every RPC does. Used by the plain-HTTP calendar export.
func (s *EventService) MemberEvent(ctx context.Context, code, userID string) (*models.Event, error) {
	ev, _, err := s.loadAsMember(ctx, code, userID)
	return ev, err
}
