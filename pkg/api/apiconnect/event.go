package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/hangout/pkg/api"
)

const EventServiceName = "hangout.v1.EventService"

const (
	EventServiceCreateEventProcedure       = "/hangout.v1.EventService/CreateEvent"
	EventServiceListEventsProcedure        = "/hangout.v1.EventService/ListEvents"
	EventServiceJoinEventProcedure         = "/hangout.v1.EventService/JoinEvent"
	EventServiceGetEventProcedure          = "/hangout.v1.EventService/GetEvent"
	EventServiceAddDateOptionProcedure     = "/hangout.v1.EventService/AddDateOption"
	EventServiceAddLocationOptionProcedure = "/hangout.v1.EventService/AddLocationOption"
	EventServiceCastVoteProcedure          = "/hangout.v1.EventService/CastVote"
	EventServicePostMessageProcedure       = "/hangout.v1.EventService/PostMessage"
	EventServiceFinalizeEventProcedure     = "/hangout.v1.EventService/FinalizeEvent"
)

// EventServiceHandler is implemented by the event planning service.
type EventServiceHandler interface {
	CreateEvent(context.Context, *connect.Request[api.CreateEventRequest]) (*connect.Response[api.CreateEventResponse], error)
	ListEvents(context.Context, *connect.Request[api.ListEventsRequest]) (*connect.Response[api.ListEventsResponse], error)
	JoinEvent(context.Context, *connect.Request[api.JoinEventRequest]) (*connect.Response[api.JoinEventResponse], error)
	GetEvent(context.Context, *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error)
	AddDateOption(context.Context, *connect.Request[api.AddDateOptionRequest]) (*connect.Response[api.AddDateOptionResponse], error)
	AddLocationOption(context.Context, *connect.Request[api.AddLocationOptionRequest]) (*connect.Response[api.AddLocationOptionResponse], error)
	CastVote(context.Context, *connect.Request[api.CastVoteRequest]) (*connect.Response[api.CastVoteResponse], error)
	PostMessage(context.Context, *connect.Request[api.PostMessageRequest]) (*connect.Response[api.PostMessageResponse], error)
	FinalizeEvent(context.Context, *connect.Request[api.FinalizeEventRequest]) (*connect.Response[api.FinalizeEventResponse], error)
}

// NewEventServiceHandler returns the mount path and handler for svc.
func NewEventServiceHandler(svc EventServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	r := routes{}
	handle(r, EventServiceCreateEventProcedure, svc.CreateEvent, opts)
	handle(r, EventServiceListEventsProcedure, svc.ListEvents, opts)
	handle(r, EventServiceJoinEventProcedure, svc.JoinEvent, opts)
	handle(r, EventServiceGetEventProcedure, svc.GetEvent, opts)
	handle(r, EventServiceAddDateOptionProcedure, svc.AddDateOption, opts)
	handle(r, EventServiceAddLocationOptionProcedure, svc.AddLocationOption, opts)
	handle(r, EventServiceCastVoteProcedure, svc.CastVote, opts)
	handle(r, EventServicePostMessageProcedure, svc.PostMessage, opts)
	handle(r, EventServiceFinalizeEventProcedure, svc.FinalizeEvent, opts)
	return r.serve("/" + EventServiceName + "/")
}

// EventServiceClient calls the event planning service.
type EventServiceClient struct {
	createEvent       *connect.Client[api.CreateEventRequest, api.CreateEventResponse]
	listEvents        *connect.Client[api.ListEventsRequest, api.ListEventsResponse]
	joinEvent         *connect.Client[api.JoinEventRequest, api.JoinEventResponse]
	getEvent          *connect.Client[api.GetEventRequest, api.GetEventResponse]
	addDateOption     *connect.Client[api.AddDateOptionRequest, api.AddDateOptionResponse]
	addLocationOption *connect.Client[api.AddLocationOptionRequest, api.AddLocationOptionResponse]
	castVote          *connect.Client[api.CastVoteRequest, api.CastVoteResponse]
	postMessage       *connect.Client[api.PostMessageRequest, api.PostMessageResponse]
	finalizeEvent     *connect.Client[api.FinalizeEventRequest, api.FinalizeEventResponse]
}

func NewEventServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *EventServiceClient {
	return &EventServiceClient{
		createEvent:       newClient[api.CreateEventRequest, api.CreateEventResponse](httpClient, baseURL, EventServiceCreateEventProcedure, opts),
		listEvents:        newClient[api.ListEventsRequest, api.ListEventsResponse](httpClient, baseURL, EventServiceListEventsProcedure, opts),
		joinEvent:         newClient[api.JoinEventRequest, api.JoinEventResponse](httpClient, baseURL, EventServiceJoinEventProcedure, opts),
		getEvent:          newClient[api.GetEventRequest, api.GetEventResponse](httpClient, baseURL, EventServiceGetEventProcedure, opts),
		addDateOption:     newClient[api.AddDateOptionRequest, api.AddDateOptionResponse](httpClient, baseURL, EventServiceAddDateOptionProcedure, opts),
		addLocationOption: newClient[api.AddLocationOptionRequest, api.AddLocationOptionResponse](httpClient, baseURL, EventServiceAddLocationOptionProcedure, opts),
		castVote:          newClient[api.CastVoteRequest, api.CastVoteResponse](httpClient, baseURL, EventServiceCastVoteProcedure, opts),
		postMessage:       newClient[api.PostMessageRequest, api.PostMessageResponse](httpClient, baseURL, EventServicePostMessageProcedure, opts),
		finalizeEvent:     newClient[api.FinalizeEventRequest, api.FinalizeEventResponse](httpClient, baseURL, EventServiceFinalizeEventProcedure, opts),
	}
}

func (c *EventServiceClient) CreateEvent(ctx context.Context, req *connect.Request[api.CreateEventRequest]) (*connect.Response[api.CreateEventResponse], error) {
	return c.createEvent.CallUnary(ctx, req)
}

func (c *EventServiceClient) ListEvents(ctx context.Context, req *connect.Request[api.ListEventsRequest]) (*connect.Response[api.ListEventsResponse], error) {
	return c.listEvents.CallUnary(ctx, req)
}

func (c *EventServiceClient) JoinEvent(ctx context.Context, req *connect.Request[api.JoinEventRequest]) (*connect.Response[api.JoinEventResponse], error) {
	return c.joinEvent.CallUnary(ctx, req)
}

func (c *EventServiceClient) GetEvent(ctx context.Context, req *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error) {
	return c.getEvent.CallUnary(ctx, req)
}

func (c *EventServiceClient) AddDateOption(ctx context.Context, req *connect.Request[api.AddDateOptionRequest]) (*connect.Response[api.AddDateOptionResponse], error) {
	return c.addDateOption.CallUnary(ctx, req)
}

func (c *EventServiceClient) AddLocationOption(ctx context.Context, req *connect.Request[api.AddLocationOptionRequest]) (*connect.Response[api.AddLocationOptionResponse], error) {
	return c.addLocationOption.CallUnary(ctx, req)
}

func (c *EventServiceClient) CastVote(ctx context.Context, req *connect.Request[api.CastVoteRequest]) (*connect.Response[api.CastVoteResponse], error) {
	return c.castVote.CallUnary(ctx, req)
}

func (c *EventServiceClient) PostMessage(ctx context.Context, req *connect.Request[api.PostMessageRequest]) (*connect.Response[api.PostMessageResponse], error) {
	return c.postMessage.CallUnary(ctx, req)
}

func (c *EventServiceClient) FinalizeEvent(ctx context.Context, req *connect.Request[api.FinalizeEventRequest]) (*connect.Response[api.FinalizeEventResponse], error) {
	return c.finalizeEvent.CallUnary(ctx, req)
}
