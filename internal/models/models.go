package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Product availability states
const (
	AvailabilityAvailable    = "Available"
	AvailabilityOutOfStock   = "OutOfStock"
	AvailabilityDiscontinued = "Discontinued"
)

// Image bounds per product
const (
	MinProductImages = 2
	MaxProductImages = 5
)

// Product represents a catalog product. Images and ImagePublicIDs are parallel
// sequences: Images[i] is the serving path for the storage handle ImagePublicIDs[i].
type Product struct {
	ID                 int64          `db:"id" json:"id"`
	Name               string         `db:"name" json:"name"`
	Description        string         `db:"description" json:"description"`
	Category           string         `db:"category" json:"category"`
	Brand              string         `db:"brand" json:"brand"`
	ActualPrice        float64        `db:"actual_price" json:"actual_price"`
	StrikePrice        float64        `db:"strike_price" json:"strike_price"`
	SellingPrice       float64        `db:"selling_price" json:"selling_price"`
	DiscountPercentage float64        `db:"discount_percentage" json:"discount_percentage"`
	Availability       string         `db:"availability" json:"availability"`
	Images             pq.StringArray `db:"images" json:"images"`
	ImagePublicIDs     pq.StringArray `db:"image_public_ids" json:"-"`
	Views              int64          `db:"views" json:"views"`
	Likes              int64          `db:"likes" json:"likes"`
	IsActive           bool           `db:"is_active" json:"is_active"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// Booking statuses. Confirmed is the initial state; cancelled and completed
// are both terminal.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Cancellation reason defaults by role
const (
	CancelReasonAdmin    = "Cancelled by Admin"
	CancelReasonCustomer = "Cancelled by customer"
)

// Booking represents an order for a product. ProductName, ProductImage and
// ProductCategory are a snapshot frozen at creation; they are never re-synced
// from the live product.
type Booking struct {
	ID                 int64      `db:"id" json:"id"`
	UserID             int64      `db:"user_id" json:"user_id"`
	ProductID          int64      `db:"product_id" json:"product_id"`
	ProductName        string     `db:"product_name" json:"product_name"`
	ProductImage       string     `db:"product_image" json:"product_image"`
	ProductCategory    string     `db:"product_category" json:"product_category"`
	CustomerName       string     `db:"customer_name" json:"customer_name"`
	CustomerEmail      string     `db:"customer_email" json:"customer_email"`
	CustomerPhone      string     `db:"customer_phone" json:"customer_phone"`
	Address            string     `db:"address" json:"address"`
	Quantity           int        `db:"quantity" json:"quantity"`
	BookingDate        time.Time  `db:"booking_date" json:"booking_date"`
	ActualPrice        float64    `db:"actual_price" json:"actual_price"`
	StrikePrice        float64    `db:"strike_price" json:"strike_price"`
	SellingPrice       float64    `db:"selling_price" json:"selling_price"`
	TotalAmount        float64    `db:"total_amount" json:"total_amount"`
	DiscountPercentage float64    `db:"discount_percentage" json:"discount_percentage"`
	CouponCode         string     `db:"coupon_code" json:"coupon_code"`
	Status             string     `db:"status" json:"status"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Cancel transitions the booking confirmed -> cancelled. It is one of the two
// only mutators of Status; terminal states are rejected so a cancelled or
// completed booking can never move again.
func (b *Booking) Cancel(at time.Time, reason string) error {
	switch b.Status {
	case BookingStatusCancelled:
		return &ConflictError{Msg: "booking is already cancelled"}
	case BookingStatusCompleted:
		return &ConflictError{Msg: "cannot cancel a completed booking"}
	case BookingStatusConfirmed:
		b.Status = BookingStatusCancelled
		b.CancelledAt = &at
		b.CancellationReason = &reason
		return nil
	default:
		return fmt.Errorf("booking %d has unknown status %q", b.ID, b.Status)
	}
}

// Complete transitions the booking confirmed -> completed.
func (b *Booking) Complete(at time.Time) error {
	switch b.Status {
	case BookingStatusCompleted:
		return &ConflictError{Msg: "booking is already completed"}
	case BookingStatusCancelled:
		return &ConflictError{Msg: "cannot complete a cancelled booking"}
	case BookingStatusConfirmed:
		b.Status = BookingStatusCompleted
		b.CompletedAt = &at
		return nil
	default:
		return fmt.Errorf("booking %d has unknown status %q", b.ID, b.Status)
	}
}

// IsTerminal reports whether the booking can take no further transitions.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCancelled || b.Status == BookingStatusCompleted
}

// Roles carried by the authenticated identity
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the per-request authenticated identity, set by the auth
// middleware. The core never verifies credentials itself.
type Identity struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the identity holds admin privilege.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
