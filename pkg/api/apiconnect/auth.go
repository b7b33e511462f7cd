package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/hangout/pkg/api"
)

const AuthServiceName = "hangout.v1.AuthService"

const (
	AuthServiceRegisterProcedure                   = "/hangout.v1.AuthService/Register"
	AuthServiceLoginProcedure                      = "/hangout.v1.AuthService/Login"
	AuthServiceLogoutProcedure                     = "/hangout.v1.AuthService/Logout"
	AuthServiceGetCurrentUserProcedure             = "/hangout.v1.AuthService/GetCurrentUser"
	AuthServiceUpdateProfileProcedure              = "/hangout.v1.AuthService/UpdateProfile"
	AuthServiceChangePasswordProcedure             = "/hangout.v1.AuthService/ChangePassword"
	AuthServiceUpdateNotificationSettingsProcedure = "/hangout.v1.AuthService/UpdateNotificationSettings"
)

// AuthServiceHandler is implemented by the account service.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
	Logout(context.Context, *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error)
	GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error)
	UpdateProfile(context.Context, *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error)
	ChangePassword(context.Context, *connect.Request[api.ChangePasswordRequest]) (*connect.Response[api.ChangePasswordResponse], error)
	UpdateNotificationSettings(context.Context, *connect.Request[api.UpdateNotificationSettingsRequest]) (*connect.Response[api.UpdateNotificationSettingsResponse], error)
}

// NewAuthServiceHandler returns the mount path and handler for svc.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	r := routes{}
	handle(r, AuthServiceRegisterProcedure, svc.Register, opts)
	handle(r, AuthServiceLoginProcedure, svc.Login, opts)
	handle(r, AuthServiceLogoutProcedure, svc.Logout, opts)
	handle(r, AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts)
	handle(r, AuthServiceUpdateProfileProcedure, svc.UpdateProfile, opts)
	handle(r, AuthServiceChangePasswordProcedure, svc.ChangePassword, opts)
	handle(r, AuthServiceUpdateNotificationSettingsProcedure, svc.UpdateNotificationSettings, opts)
	return r.serve("/" + AuthServiceName + "/")
}

// AuthServiceClient calls the account service.
type AuthServiceClient struct {
	register                   *connect.Client[api.RegisterRequest, api.RegisterResponse]
	login                      *connect.Client[api.LoginRequest, api.LoginResponse]
	logout                     *connect.Client[api.LogoutRequest, api.LogoutResponse]
	getCurrentUser             *connect.Client[api.GetCurrentUserRequest, api.GetCurrentUserResponse]
	updateProfile              *connect.Client[api.UpdateProfileRequest, api.UpdateProfileResponse]
	changePassword             *connect.Client[api.ChangePasswordRequest, api.ChangePasswordResponse]
	updateNotificationSettings *connect.Client[api.UpdateNotificationSettingsRequest, api.UpdateNotificationSettingsResponse]
}

func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	return &AuthServiceClient{
		register:                   newClient[api.RegisterRequest, api.RegisterResponse](httpClient, baseURL, AuthServiceRegisterProcedure, opts),
		login:                      newClient[api.LoginRequest, api.LoginResponse](httpClient, baseURL, AuthServiceLoginProcedure, opts),
		logout:                     newClient[api.LogoutRequest, api.LogoutResponse](httpClient, baseURL, AuthServiceLogoutProcedure, opts),
		getCurrentUser:             newClient[api.GetCurrentUserRequest, api.GetCurrentUserResponse](httpClient, baseURL, AuthServiceGetCurrentUserProcedure, opts),
		updateProfile:              newClient[api.UpdateProfileRequest, api.UpdateProfileResponse](httpClient, baseURL, AuthServiceUpdateProfileProcedure, opts),
		changePassword:             newClient[api.ChangePasswordRequest, api.ChangePasswordResponse](httpClient, baseURL, AuthServiceChangePasswordProcedure, opts),
		updateNotificationSettings: newClient[api.UpdateNotificationSettingsRequest, api.UpdateNotificationSettingsResponse](httpClient, baseURL, AuthServiceUpdateNotificationSettingsProcedure, opts),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Logout(ctx context.Context, req *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error) {
	return c.logout.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

func (c *AuthServiceClient) UpdateProfile(ctx context.Context, req *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error) {
	return c.updateProfile.CallUnary(ctx, req)
}

func (c *AuthServiceClient) ChangePassword(ctx context.Context, req *connect.Request[api.ChangePasswordRequest]) (*connect.Response[api.ChangePasswordResponse], error) {
	return c.changePassword.CallUnary(ctx, req)
}

func (c *AuthServiceClient) UpdateNotificationSettings(ctx context.Context, req *connect.Request[api.UpdateNotificationSettingsRequest]) (*connect.Response[api.UpdateNotificationSettingsResponse], error) {
	return c.updateNotificationSettings.CallUnary(ctx, req)
}
