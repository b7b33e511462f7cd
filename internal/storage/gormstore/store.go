// Package gormstore implements storage.Store on GORM. Production runs it
// against PostgreSQL; tests use the GORM SQLite driver.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mmynk/hangout/internal/models"
	"github.com/mmynk/hangout/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is a GORM-backed storage.Store.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve postgres sql db handle: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return New(db, logger)
}

// New wraps an open GORM handle and migrates the schema. The handle should
// be opened with TranslateError so duplicate keys map to ErrConflict on
// every dialect.
func New(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.AutoMigrate(allRows()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateEvent inserts the event row and its children in one transaction.
func (s *Store) CreateEvent(ctx context.Context, ev *models.Event) error {
	row := eventRowFromModel(ev)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return insertChildren(tx, childrenFromModel(ev))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("event %s: %w", ev.Code, storage.ErrConflict)
		}
		return s.logError("create event", err, "code", ev.Code)
	}
	return nil
}

// SaveEvent overwrites the event row and replaces all children.
func (s *Store) SaveEvent(ctx context.Context, ev *models.Event) error {
	row := eventRowFromModel(ev)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&eventRow{}).Where("code = ?", ev.Code).Select("*").Omit("code", "owner_user_id", "created_at").Updates(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		for _, model := range []any{&memberRow{}, &dateOptionRow{}, &locationOptionRow{}, &voteRow{}, &messageRow{}, &billItemRow{}} {
			if err := tx.Where("event_code = ?", ev.Code).Delete(model).Error; err != nil {
				return err
			}
		}
		return insertChildren(tx, childrenFromModel(ev))
	})
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("event %s: %w", ev.Code, storage.ErrNotFound)
	}
	if err != nil {
		return s.logError("save event", err, "code", ev.Code)
	}
	return nil
}

func insertChildren(tx *gorm.DB, c children) error {
	// Create on an empty slice is an error in GORM, so each batch is guarded.
	if len(c.members) > 0 {
		if err := tx.Create(&c.members).Error; err != nil {
			return err
		}
	}
	if len(c.dates) > 0 {
		if err := tx.Create(&c.dates).Error; err != nil {
			return err
		}
	}
	if len(c.locations) > 0 {
		if err := tx.Create(&c.locations).Error; err != nil {
			return err
		}
	}
	if len(c.votes) > 0 {
		if err := tx.Create(&c.votes).Error; err != nil {
			return err
		}
	}
	if len(c.messages) > 0 {
		if err := tx.Create(&c.messages).Error; err != nil {
			return err
		}
	}
	if len(c.items) > 0 {
		if err := tx.Create(&c.items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetEvent loads the event document.
func (s *Store) GetEvent(ctx context.Context, code string) (*models.Event, error) {
	db := s.db.WithContext(ctx)

	var row eventRow
	if err := db.Where("code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("event %s: %w", code, storage.ErrNotFound)
		}
		return nil, s.logError("get event", err, "code", code)
	}

	var c children
	for _, q := range []struct {
		dest  any
		order string
	}{
		{&c.members, "position"},
		{&c.dates, "position"},
		{&c.locations, "position"},
		{&c.votes, "member_id"},
		{&c.messages, "position"},
		{&c.items, "position"},
	} {
		if err := db.Where("event_code = ?", code).Order(q.order).Find(q.dest).Error; err != nil {
			return nil, s.logError("get event children", err, "code", code)
		}
	}

	ev := row.toModel()
	c.apply(ev)
	return ev, nil
}

// ListEventsByUser returns events the user owns or joined, newest first.
func (s *Store) ListEventsByUser(ctx context.Context, userID string) ([]models.EventSummary, error) {
	joined := s.db.Model(&memberRow{}).Select("event_code").Where("user_id = ?", userID)

	var rows []eventRow
	err := s.db.WithContext(ctx).
		Where("owner_user_id = ? OR code IN (?)", userID, joined).
		Order("created_at DESC").Order("code").
		Find(&rows).Error
	if err != nil {
		return nil, s.logError("list events", err, "user_id", userID)
	}

	summaries := make([]models.EventSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, r.toModel().Summary())
	}
	return summaries, nil
}

// ListFinalEvents returns FINAL events whose final date is in [from, to).
func (s *Store) ListFinalEvents(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	var codes []string
	err := s.db.WithContext(ctx).Model(&eventRow{}).
		Where("status = ? AND final_at >= ? AND final_at < ?", string(models.StatusFinal), from.UTC(), to.UTC()).
		Order("final_at").
		Pluck("code", &codes).Error
	if err != nil {
		return nil, s.logError("list final events", err)
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

// CreateUser inserts an account.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	row := userRowFromModel(user)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Email, storage.ErrConflict)
		}
		return s.logError("create user", err, "user_id", user.ID)
	}
	return nil
}

// UpdateUser writes every mutable account field, including zero values.
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	row := userRowFromModel(user)
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", user.ID).
		Select("*").Omit("id", "created_at").Updates(&row)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return fmt.Errorf("user %s: %w", user.Email, storage.ErrConflict)
		}
		return s.logError("update user", res.Error, "user_id", user.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", user.ID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return s.getUser(ctx, "google_id", googleID)
}

func (s *Store) getUser(ctx context.Context, column, value string) (*models.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where(column+" = ?", value).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s=%s: %w", column, value, storage.ErrNotFound)
		}
		return nil, s.logError("get user", err, column, value)
	}
	return row.toModel(), nil
}

// GetUsersByIDs returns the users that exist, keyed by ID.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	var rows []userRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, s.logError("get users", err, "count", len(ids))
	}
	for _, r := range rows {
		users[r.ID] = r.toModel()
	}
	return users, nil
}

func (s *Store) logError(op string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+4)
	fields = append(fields, "op", op, "error", err.Error())
	fields = append(fields, attrs...)
	s.logger.Error("gorm store operation failed", fields...)
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
