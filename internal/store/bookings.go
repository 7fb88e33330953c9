package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"techstore/internal/models"
)

// BookingFilter narrows booking listings. UserID 0 means all users.
type BookingFilter struct {
	UserID int64
	Status string
	Limit  int
	Offset int
}

// CreateBooking inserts a new booking. A coupon code collision surfaces as a
// ConflictError with CouponCollision set, which the service retries with a
// freshly generated code.
func (s *Store) CreateBooking(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (
			user_id, product_id, product_name, product_image, product_category,
			customer_name, customer_email, customer_phone, address,
			quantity, booking_date,
			actual_price, strike_price, selling_price, total_amount, discount_percentage,
			coupon_code, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at`

	err := s.db.GetContext(ctx, b, query,
		b.UserID, b.ProductID, b.ProductName, b.ProductImage, b.ProductCategory,
		b.CustomerName, b.CustomerEmail, b.CustomerPhone, b.Address,
		b.Quantity, b.BookingDate,
		b.ActualPrice, b.StrikePrice, b.SellingPrice, b.TotalAmount, b.DiscountPercentage,
		b.CouponCode, b.Status)
	if err != nil {
		return translateErr("create booking", err)
	}
	return nil
}

// GetBookingByID retrieves a booking by ID
func (s *Store) GetBookingByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.GetContext(ctx, &booking, "SELECT * FROM bookings WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "booking", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, translateErr("get booking", err)
	}
	return &booking, nil
}

// GetBookingByCoupon retrieves a booking by its coupon code. Codes are stored
// uppercase; callers normalize before the exact match.
func (s *Store) GetBookingByCoupon(ctx context.Context, code string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.GetContext(ctx, &booking, "SELECT * FROM bookings WHERE coupon_code = $1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "booking", ID: code}
	}
	if err != nil {
		return nil, translateErr("get booking by coupon", err)
	}
	return &booking, nil
}

// ListBookings retrieves bookings, most recent order first
func (s *Store) ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	query := "SELECT * FROM bookings WHERE 1=1"
	args := []interface{}{}

	if f.UserID != 0 {
		args = append(args, f.UserID)
		query += " AND user_id = $" + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += " AND status = $" + strconv.Itoa(len(args))
	}

	query += " ORDER BY created_at DESC"

	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	bookings := []models.Booking{}
	if err := s.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, translateErr("list bookings", err)
	}
	return bookings, nil
}

// CancelBooking persists the confirmed -> cancelled transition as a single
// conditional update. Returns false if the booking was not in the confirmed
// state at write time, in which case the caller re-reads for the precise
// conflict.
func (s *Store) CancelBooking(ctx context.Context, id int64, at time.Time, reason string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, cancelled_at = $2, cancellation_reason = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5`,
		models.BookingStatusCancelled, at, reason, id, models.BookingStatusConfirmed)
	if err != nil {
		return false, translateErr("cancel booking", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translateErr("cancel booking", err)
	}
	return n == 1, nil
}

// CompleteBooking persists the confirmed -> completed transition as a single
// conditional update.
func (s *Store) CompleteBooking(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, completed_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`,
		models.BookingStatusCompleted, at, id, models.BookingStatusConfirmed)
	if err != nil {
		return false, translateErr("complete booking", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translateErr("complete booking", err)
	}
	return n == 1, nil
}
