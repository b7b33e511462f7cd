package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
//
// Accounts are created either by email/password registration or by Google
// sign-in, in which case PasswordHash is empty and GoogleID is set.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's lower-cased email address (unique).
	Email string

	// DisplayName is the name shown to other members. May be empty, in which
	// case the email prefix is used.
	DisplayName string

	// PasswordHash is the bcrypt hash of the password.
	PasswordHash string

	// GoogleID is the Google account subject for OAuth sign-ins.
	GoogleID string

	// Photo is an optional avatar URL.
	Photo string

	// Notifications holds the user's email preferences.
	Notifications NotificationPrefs

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NotificationPrefs controls which emails a user receives.
type NotificationPrefs struct {
	Enabled      bool
	ReminderH3   bool
	ReminderH1   bool
	EventUpdates bool
}

// DefaultNotificationPrefs has everything switched on.
func DefaultNotificationPrefs() NotificationPrefs {
	return NotificationPrefs{Enabled: true, ReminderH3: true, ReminderH1: true, EventUpdates: true}
}

// NewUser creates a user with a fresh ID, timestamps and default preferences.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:            uuid.New().String(),
		Email:         email,
		DisplayName:   displayName,
		PasswordHash:  passwordHash,
		Notifications: DefaultNotificationPrefs(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
