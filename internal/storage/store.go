// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/hangout/internal/models"
)

var (
	// ErrNotFound is returned when the requested event or user does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrConflict is returned when a unique key (event code, email, Google
	// ID) is already taken.
	ErrConflict = errors.New("storage: conflict")
)

// Store defines the interface for event and account storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// An event is read and written as one document: SaveEvent replaces its
// members, options, votes, messages and bill in a single transaction. There
// is no optimistic locking, so of two concurrent saves the last one wins.
type Store interface {
	// CreateEvent persists a new event. Returns ErrConflict if the code is taken.
	CreateEvent(ctx context.Context, ev *models.Event) error

	// GetEvent loads the full event document by code.
	GetEvent(ctx context.Context, code string) (*models.Event, error)

	// SaveEvent writes back the full event document.
	SaveEvent(ctx context.Context, ev *models.Event) error

	// ListEventsByUser returns summaries of events the user owns or joined,
	// newest first.
	ListEventsByUser(ctx context.Context, userID string) ([]models.EventSummary, error)

	// ListFinalEvents returns FINAL events whose final date falls in
	// [from, to). Used by the reminder job.
	ListFinalEvents(ctx context.Context, from, to time.Time) ([]*models.Event, error)

	// CreateUser persists a new account. Returns ErrConflict on a duplicate
	// email or Google ID.
	CreateUser(ctx context.Context, user *models.User) error

	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error)

	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// UpdateUser writes profile, password and notification settings.
	UpdateUser(ctx context.Context, user *models.User) error

	// Close releases any resources held by the store.
	Close() error
}
