package models

import "time"

// Event types
const (
	EventTypeBookingCreated   = "BookingCreated"
	EventTypeBookingCancelled = "BookingCancelled"
	EventTypeBookingCompleted = "BookingCompleted"
)

// BaseEvent contains common event fields
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCreatedEvent is published after a booking is persisted
type BookingCreatedEvent struct {
	BaseEvent
	BookingID  int64   `json:"booking_id"`
	UserID     int64   `json:"user_id"`
	ProductID  int64   `json:"product_id"`
	Quantity   int     `json:"quantity"`
	CouponCode string  `json:"coupon_code"`
	Total      float64 `json:"total_amount"`
}

// BookingCancelledEvent is published after a confirmed booking is cancelled
type BookingCancelledEvent struct {
	BaseEvent
	BookingID   int64     `json:"booking_id"`
	UserID      int64     `json:"user_id"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
	ByAdmin     bool      `json:"by_admin"`
}

// BookingCompletedEvent is published after a confirmed booking is completed
type BookingCompletedEvent struct {
	BaseEvent
	BookingID   int64     `json:"booking_id"`
	UserID      int64     `json:"user_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// ProcessedEvent records a consumed event for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
