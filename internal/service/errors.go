package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/hangout/internal/auth"
	"github.com/mmynk/hangout/internal/middleware"
	"github.com/mmynk/hangout/internal/planner"
	"github.com/mmynk/hangout/internal/storage"
)

// toConnectError maps domain errors to Connect codes. Errors that already
// carry a code pass through.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}

	switch {
	case errors.Is(err, planner.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, planner.ErrForbidden):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, planner.ErrPollingClosed):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, planner.ErrInvalidReference),
		errors.Is(err, planner.ErrValidation),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrEmailExists), errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// callerID returns the authenticated user ID set by the auth interceptor.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}
