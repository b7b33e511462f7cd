package api

// User is the public view of an account.
type User struct {
	ID            string               `json:"id"`
	Email         string               `json:"email"`
	DisplayName   string               `json:"displayName"`
	Photo         string               `json:"photo,omitempty"`
	HasPassword   bool                 `json:"hasPassword"`
	GoogleLinked  bool                 `json:"googleLinked"`
	Notifications NotificationSettings `json:"notifications"`
}

// NotificationSettings are the email preferences of an account.
type NotificationSettings struct {
	Enabled      bool `json:"enabled"`
	ReminderH3   bool `json:"reminderH3"`
	ReminderH1   bool `json:"reminderH1"`
	EventUpdates bool `json:"eventUpdates"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type RegisterResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// UpdateProfileRequest changes only the fields that are set.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	Photo       *string `json:"photo,omitempty"`
}

type UpdateProfileResponse struct {
	User *User `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ChangePasswordResponse struct{}

type UpdateNotificationSettingsRequest struct {
	Settings NotificationSettings `json:"settings"`
}

type UpdateNotificationSettingsResponse struct {
	User *User `json:"user"`
}
