package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/hangout/internal/notify"
	"github.com/mmynk/hangout/internal/storage"
	"github.com/mmynk/hangout/pkg/api"
	"github.com/mmynk/hangout/pkg/api/apiconnect"
)

// NotificationService implements the in-app feed. Entries are derived from
// event state on every call and never stored.
type NotificationService struct {
	eventAccess
}

var _ apiconnect.NotificationServiceHandler = (*NotificationService)(nil)

func NewNotificationService(store storage.Store, opts ...Option) *NotificationService {
	return &NotificationService{eventAccess: newEventAccess(store, opts)}
}

// ListNotifications returns the caller's feed, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, req *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.summaries(ctx, userID)
	if err != nil {
		s.logger.Error("ListNotifications failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	feed := notify.BuildFeed(s.translator, s.locale, list, s.clock())
	out := make([]*api.Notification, 0, len(feed))
	for _, n := range feed {
		out = append(out, toAPINotification(n))
	}
	return connect.NewResponse(&api.ListNotificationsResponse{Notifications: out}), nil
}
