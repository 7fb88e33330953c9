package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"techstore/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

const uniqueViolation = "23505"

// translateErr maps driver errors onto the domain taxonomy. A unique
// violation on the coupon index is a retryable coupon collision; everything
// else from the driver is a transient store failure.
func translateErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == "bookings_coupon_code_key" {
			return &models.ConflictError{
				Msg:             "coupon code already in use",
				CouponCollision: true,
			}
		}
		return &models.ConflictError{Msg: "duplicate record: " + pqErr.Constraint}
	}
	return &models.TransientStoreError{Op: op, Err: err}
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	if err != nil {
		return false, translateErr("check processed event", err)
	}
	return exists, nil
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	if err != nil {
		return translateErr("mark event processed", err)
	}
	return nil
}
