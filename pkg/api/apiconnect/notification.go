package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/hangout/pkg/api"
)

const NotificationServiceName = "hangout.v1.NotificationService"

const NotificationServiceListNotificationsProcedure = "/hangout.v1.NotificationService/ListNotifications"

// NotificationServiceHandler is implemented by the in-app feed service.
type NotificationServiceHandler interface {
	ListNotifications(context.Context, *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error)
}

// NewNotificationServiceHandler returns the mount path and handler for svc.
func NewNotificationServiceHandler(svc NotificationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	r := routes{}
	handle(r, NotificationServiceListNotificationsProcedure, svc.ListNotifications, opts)
	return r.serve("/" + NotificationServiceName + "/")
}

// NotificationServiceClient calls the in-app feed service.
type NotificationServiceClient struct {
	listNotifications *connect.Client[api.ListNotificationsRequest, api.ListNotificationsResponse]
}

func NewNotificationServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *NotificationServiceClient {
	return &NotificationServiceClient{
		listNotifications: newClient[api.ListNotificationsRequest, api.ListNotificationsResponse](httpClient, baseURL, NotificationServiceListNotificationsProcedure, opts),
	}
}

func (c *NotificationServiceClient) ListNotifications(ctx context.Context, req *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error) {
	return c.listNotifications.CallUnary(ctx, req)
}
