// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	msqlite "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/hangout/internal/models"
	"github.com/mmynk/hangout/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps the foreign_keys pragma in effect and serializes
	// writers, which SQLite does anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateEvent inserts a new event document.
func (s *SQLiteStore) CreateEvent(ctx context.Context, ev *models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (code, owner_user_id, title, description, deadline, status,
			final_at, final_location, bill_total, split_mode, created_at, updated_at, finalized_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Code, ev.OwnerUserID, ev.Title, ev.Description, ev.Deadline, string(ev.Status),
		unixOrNull(ev.FinalDateTime), stringOrNull(ev.FinalLocation),
		ev.Bill.Total, string(ev.Bill.SplitMode), ev.CreatedAt, ev.UpdatedAt, ev.FinalizedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("event %s: %w", ev.Code, storage.ErrConflict)
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}

	if err := insertChildren(ctx, tx, ev); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveEvent replaces the stored document with ev.
func (s *SQLiteStore) SaveEvent(ctx context.Context, ev *models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE events SET title = ?, description = ?, deadline = ?, status = ?,
			final_at = ?, final_location = ?, bill_total = ?, split_mode = ?,
			updated_at = ?, finalized_at = ?
		WHERE code = ?`,
		ev.Title, ev.Description, ev.Deadline, string(ev.Status),
		unixOrNull(ev.FinalDateTime), stringOrNull(ev.FinalLocation),
		ev.Bill.Total, string(ev.Bill.SplitMode), ev.UpdatedAt, ev.FinalizedAt,
		ev.Code,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", ev.Code, storage.ErrNotFound)
	}

	for _, table := range childTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE event_code = ?", ev.Code); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := insertChildren(ctx, tx, ev); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var childTables = []string{"event_members", "date_options", "location_options", "votes", "messages", "bill_items"}

func insertChildren(ctx context.Context, tx *sql.Tx, ev *models.Event) error {
	for i, m := range ev.Members {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO event_members (id, event_code, user_id, name, joined_at, position) VALUES (?, ?, ?, ?, ?, ?)",
			m.ID, ev.Code, m.UserID, m.Name, m.JoinedAt, i,
		); err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}
	for i, o := range ev.DateOptions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO date_options (id, event_code, at, created_by, created_at, position) VALUES (?, ?, ?, ?, ?, ?)",
			o.ID, ev.Code, o.At.Unix(), o.CreatedBy, o.CreatedAt, i,
		); err != nil {
			return fmt.Errorf("failed to insert date option: %w", err)
		}
	}
	for i, o := range ev.LocationOptions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO location_options (id, event_code, label, created_by, created_at, position) VALUES (?, ?, ?, ?, ?, ?)",
			o.ID, ev.Code, o.Label, o.CreatedBy, o.CreatedAt, i,
		); err != nil {
			return fmt.Errorf("failed to insert location option: %w", err)
		}
	}
	for _, c := range []models.Category{models.CategoryDate, models.CategoryLocation} {
		for memberID, optionID := range ev.Ledger(c) {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO votes (event_code, category, member_id, option_id) VALUES (?, ?, ?, ?)",
				ev.Code, string(c), memberID, optionID,
			); err != nil {
				return fmt.Errorf("failed to insert vote: %w", err)
			}
		}
	}
	for i, m := range ev.Messages {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO messages (id, event_code, member_id, user_id, name, text, at, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			m.ID, ev.Code, m.MemberID, m.UserID, m.Name, m.Text, m.At, i,
		); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}
	for i, item := range ev.Bill.Items {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO bill_items (id, event_code, name, cost, assignee_member_id, created_by, position) VALUES (?, ?, ?, ?, ?, ?, ?)",
			item.ID, ev.Code, item.Name, item.Cost, item.AssigneeMemberID, item.CreatedBy, i,
		); err != nil {
			return fmt.Errorf("failed to insert bill item: %w", err)
		}
	}
	return nil
}

const eventColumns = `code, owner_user_id, title, description, deadline, status,
	final_at, final_location, bill_total, split_mode, created_at, updated_at, finalized_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		ev            models.Event
		status, mode  string
		finalAt       sql.NullInt64
		finalLocation sql.NullString
	)
	if err := row.Scan(&ev.Code, &ev.OwnerUserID, &ev.Title, &ev.Description, &ev.Deadline, &status,
		&finalAt, &finalLocation, &ev.Bill.Total, &mode, &ev.CreatedAt, &ev.UpdatedAt, &ev.FinalizedAt,
	); err != nil {
		return nil, err
	}
	ev.Status = models.Status(status)
	ev.Bill.SplitMode = models.SplitMode(mode)
	if finalAt.Valid {
		t := time.Unix(finalAt.Int64, 0).UTC()
		ev.FinalDateTime = &t
	}
	if finalLocation.Valid {
		l := finalLocation.String
		ev.FinalLocation = &l
	}
	ev.DateVotes = models.VoteLedger{}
	ev.LocationVotes = models.VoteLedger{}
	return &ev, nil
}

// GetEvent loads an event with all of its children.
func (s *SQLiteStore) GetEvent(ctx context.Context, code string) (*models.Event, error) {
	ev, err := scanEvent(s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE code = ?", code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", code, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if err := s.loadChildren(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *SQLiteStore) loadChildren(ctx context.Context, ev *models.Event) error {
	err := s.each(ctx, "members",
		"SELECT id, user_id, name, joined_at FROM event_members WHERE event_code = ? ORDER BY position", ev.Code,
		func(rows *sql.Rows) error {
			var m models.Member
			if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.JoinedAt); err != nil {
				return err
			}
			ev.Members = append(ev.Members, m)
			return nil
		})
	if err != nil {
		return err
	}

	err = s.each(ctx, "date options",
		"SELECT id, at, created_by, created_at FROM date_options WHERE event_code = ? ORDER BY position", ev.Code,
		func(rows *sql.Rows) error {
			var (
				o  models.DateOption
				at int64
			)
			if err := rows.Scan(&o.ID, &at, &o.CreatedBy, &o.CreatedAt); err != nil {
				return err
			}
			o.At = time.Unix(at, 0).UTC()
			ev.DateOptions = append(ev.DateOptions, o)
			return nil
		})
	if err != nil {
		return err
	}

	err = s.each(ctx, "location options",
		"SELECT id, label, created_by, created_at FROM location_options WHERE event_code = ? ORDER BY position", ev.Code,
		func(rows *sql.Rows) error {
			var o models.LocationOption
			if err := rows.Scan(&o.ID, &o.Label, &o.CreatedBy, &o.CreatedAt); err != nil {
				return err
			}
			ev.LocationOptions = append(ev.LocationOptions, o)
			return nil
		})
	if err != nil {
		return err
	}

	err = s.each(ctx, "votes",
		"SELECT category, member_id, option_id FROM votes WHERE event_code = ?", ev.Code,
		func(rows *sql.Rows) error {
			var category, memberID, optionID string
			if err := rows.Scan(&category, &memberID, &optionID); err != nil {
				return err
			}
			if ledger := ev.Ledger(models.Category(category)); ledger != nil {
				ledger[memberID] = optionID
			}
			return nil
		})
	if err != nil {
		return err
	}

	err = s.each(ctx, "messages",
		"SELECT id, member_id, user_id, name, text, at FROM messages WHERE event_code = ? ORDER BY position", ev.Code,
		func(rows *sql.Rows) error {
			var m models.Message
			if err := rows.Scan(&m.ID, &m.MemberID, &m.UserID, &m.Name, &m.Text, &m.At); err != nil {
				return err
			}
			ev.Messages = append(ev.Messages, m)
			return nil
		})
	if err != nil {
		return err
	}

	return s.each(ctx, "bill items",
		"SELECT id, name, cost, assignee_member_id, created_by FROM bill_items WHERE event_code = ? ORDER BY position", ev.Code,
		func(rows *sql.Rows) error {
			var item models.BillItem
			if err := rows.Scan(&item.ID, &item.Name, &item.Cost, &item.AssigneeMemberID, &item.CreatedBy); err != nil {
				return err
			}
			ev.Bill.Items = append(ev.Bill.Items, item)
			return nil
		})
}

// each runs query and calls fn for every row.
func (s *SQLiteStore) each(ctx context.Context, what, query string, arg any, fn func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", what, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("failed to scan %s: %w", what, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate %s: %w", what, err)
	}
	return nil
}

// ListEventsByUser returns summaries of events the user owns or joined,
// newest first.
func (s *SQLiteStore) ListEventsByUser(ctx context.Context, userID string) ([]models.EventSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE owner_user_id = ?
		   OR code IN (SELECT event_code FROM event_members WHERE user_id = ?)
		ORDER BY created_at DESC, code`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var summaries []models.EventSummary
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		summaries = append(summaries, ev.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return summaries, nil
}

// ListFinalEvents returns FINAL events whose final date is in [from, to).
func (s *SQLiteStore) ListFinalEvents(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code FROM events
		WHERE status = ? AND final_at >= ? AND final_at < ?
		ORDER BY final_at`,
		string(models.StatusFinal), from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list final events: %w", err)
	}
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan event code: %w", err)
		}
		codes = append(codes, code)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate final events: %w", err)
	}

	events := make([]*models.Event, 0, len(codes))
	for _, code := range codes {
		ev, err := s.GetEvent(ctx, code)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func unixOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func stringOrNull(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
