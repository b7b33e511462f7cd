package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"connectrpc.com/connect"

	"github.com/mmynk/hangout/internal/auth"
	"github.com/mmynk/hangout/internal/middleware"
	"github.com/mmynk/hangout/internal/models"
	"github.com/mmynk/hangout/internal/planner"
	"github.com/mmynk/hangout/pkg/api"
	"github.com/mmynk/hangout/pkg/api/apiconnect"
)

const maxDisplayName = 50

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         auth.UserStorage
	logger        *slog.Logger
}

var _ apiconnect.AuthServiceHandler = (*AuthService)(nil)

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users auth.UserStorage, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	displayName := strings.TrimSpace(req.Msg.DisplayName)
	if utf8.RuneCountInString(displayName) > maxDisplayName {
		return nil, toConnectError(fmt.Errorf("%w: display name is limited to %d characters", planner.ErrValidation, maxDisplayName))
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Email, displayName, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&api.RegisterResponse{Token: token, User: toAPIUser(user)}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&api.LoginResponse{Token: token, User: toAPIUser(user)}), nil
}

// Logout is a no-op: JWTs are stateless and the client discards the token.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error) {
	s.logger.Info("Logout request", "user_id", middleware.GetUserID(ctx), "email", middleware.GetEmail(ctx))
	return connect.NewResponse(&api.LogoutResponse{}), nil
}

// GetCurrentUser returns the currently authenticated user's information.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetCurrentUserResponse{User: toAPIUser(user)}), nil
}

// UpdateProfile changes the display name and/or photo.
func (s *AuthService) UpdateProfile(ctx context.Context, req *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if req.Msg.DisplayName != nil {
		name := strings.TrimSpace(*req.Msg.DisplayName)
		if name == "" || utf8.RuneCountInString(name) > maxDisplayName {
			return nil, toConnectError(fmt.Errorf("%w: display name must be 1-%d characters", planner.ErrValidation, maxDisplayName))
		}
		user.DisplayName = name
	}
	if req.Msg.Photo != nil {
		user.Photo = strings.TrimSpace(*req.Msg.Photo)
	}
	user.UpdatedAt = time.Now().Unix()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		s.logger.Error("UpdateProfile failed", "user_id", user.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Profile updated", "user_id", user.ID)
	return connect.NewResponse(&api.UpdateProfileResponse{User: toAPIUser(user)}), nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, req *connect.Request[api.ChangePasswordRequest]) (*connect.Response[api.ChangePasswordResponse], error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.authenticator.ChangeCredential(ctx, user, req.Msg.CurrentPassword, req.Msg.NewPassword); err != nil {
		s.logger.Warn("ChangePassword failed", "user_id", user.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Password changed", "user_id", user.ID)
	return connect.NewResponse(&api.ChangePasswordResponse{}), nil
}

// UpdateNotificationSettings stores the email preferences.
func (s *AuthService) UpdateNotificationSettings(ctx context.Context, req *connect.Request[api.UpdateNotificationSettingsRequest]) (*connect.Response[api.UpdateNotificationSettingsResponse], error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	settings := req.Msg.Settings
	user.Notifications = models.NotificationPrefs{
		Enabled:      settings.Enabled,
		ReminderH3:   settings.ReminderH3,
		ReminderH1:   settings.ReminderH1,
		EventUpdates: settings.EventUpdates,
	}
	user.UpdatedAt = time.Now().Unix()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		s.logger.Error("UpdateNotificationSettings failed", "user_id", user.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Notification settings updated", "user_id", user.ID, "enabled", settings.Enabled)
	return connect.NewResponse(&api.UpdateNotificationSettingsResponse{User: toAPIUser(user)}), nil
}

func (s *AuthService) currentUser(ctx context.Context) (*models.User, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Authenticated user not found", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	return user, nil
}
