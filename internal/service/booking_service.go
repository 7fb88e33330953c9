package service

import (
	"context"
	"strings"
	"time"

	"techstore/internal/couponcode"
	"techstore/internal/models"
	"techstore/internal/store"
	"techstore/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingStore is the persistence surface the booking service depends on.
// Implemented by *store.Store.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBookingByID(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByCoupon(ctx context.Context, code string) (*models.Booking, error)
	ListBookings(ctx context.Context, f store.BookingFilter) ([]models.Booking, error)
	CancelBooking(ctx context.Context, id int64, at time.Time, reason string) (bool, error)
	CompleteBooking(ctx context.Context, id int64, at time.Time) (bool, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// BookingEvents publishes booking lifecycle events. Implemented by
// *broker.EventPublisher.
type BookingEvents interface {
	PublishBookingCreated(ctx context.Context, event *models.BookingCreatedEvent) error
	PublishBookingCancelled(ctx context.Context, event *models.BookingCancelledEvent) error
	PublishBookingCompleted(ctx context.Context, event *models.BookingCompletedEvent) error
}

// BookingService orchestrates the booking lifecycle
type BookingService struct {
	store             BookingStore
	events            BookingEvents
	couponPrefix      string
	couponMaxAttempts int
	logger            *zap.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(st BookingStore, events BookingEvents, couponPrefix string, couponMaxAttempts int) *BookingService {
	if couponMaxAttempts < 1 {
		couponMaxAttempts = 3
	}
	return &BookingService{
		store:             st,
		events:            events,
		couponPrefix:      couponPrefix,
		couponMaxAttempts: couponMaxAttempts,
		logger:            util.GetLogger(),
	}
}

// CreateBookingRequest represents a request to create a booking
type CreateBookingRequest struct {
	ProductID          int64     `json:"product_id" binding:"required"`
	CustomerName       string    `json:"customer_name" binding:"required"`
	CustomerEmail      string    `json:"customer_email" binding:"required"`
	CustomerPhone      string    `json:"customer_phone" binding:"required"`
	Address            string    `json:"address"`
	Quantity           int       `json:"quantity" binding:"required,min=1"`
	BookingDate        time.Time `json:"booking_date" binding:"required"`
	ActualPrice        float64   `json:"actual_price"`
	StrikePrice        float64   `json:"strike_price"`
	SellingPrice       float64   `json:"selling_price"`
	TotalAmount        float64   `json:"total_amount"`
	DiscountPercentage float64   `json:"discount_percentage"`
}

func (r *CreateBookingRequest) validate() error {
	if r.ProductID <= 0 {
		return &models.ValidationError{Field: "product_id", Msg: "must be set"}
	}
	if strings.TrimSpace(r.CustomerName) == "" {
		return &models.ValidationError{Field: "customer_name", Msg: "must not be empty"}
	}
	if strings.TrimSpace(r.CustomerEmail) == "" {
		return &models.ValidationError{Field: "customer_email", Msg: "must not be empty"}
	}
	if strings.TrimSpace(r.CustomerPhone) == "" {
		return &models.ValidationError{Field: "customer_phone", Msg: "must not be empty"}
	}
	if r.Quantity < 1 {
		return &models.ValidationError{Field: "quantity", Msg: "must be at least 1"}
	}
	if r.BookingDate.IsZero() {
		return &models.ValidationError{Field: "booking_date", Msg: "must be set"}
	}
	prices := []struct {
		field string
		value float64
	}{
		{"actual_price", r.ActualPrice},
		{"strike_price", r.StrikePrice},
		{"selling_price", r.SellingPrice},
		{"total_amount", r.TotalAmount},
	}
	for _, p := range prices {
		if p.value < 0 {
			return &models.ValidationError{Field: p.field, Msg: "must not be negative"}
		}
	}
	if r.DiscountPercentage < 0 || r.DiscountPercentage > 100 {
		return &models.ValidationError{Field: "discount_percentage", Msg: "must be between 0 and 100"}
	}
	return nil
}

// CreateBooking validates the referenced product, snapshots it, and persists a
// confirmed booking with a freshly generated coupon code. A coupon collision
// is retried with a new code up to the configured attempt cap.
func (s *BookingService) CreateBooking(ctx context.Context, ident models.Identity, req *CreateBookingRequest) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CreateBooking")
	defer span.End()

	start := time.Now()
	defer func() {
		util.BookingCreateLatency.Observe(time.Since(start).Seconds())
	}()

	if err := req.validate(); err != nil {
		util.BookingsFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, req.ProductID)
	if err != nil {
		util.BookingsFailedTotal.WithLabelValues("product_not_found").Inc()
		return nil, err
	}

	if product.Availability != models.AvailabilityAvailable {
		util.BookingsFailedTotal.WithLabelValues("product_unavailable").Inc()
		return nil, &models.ConflictError{Msg: "product is not available for booking"}
	}

	var image string
	if len(product.Images) > 0 {
		image = product.Images[0]
	}

	booking := &models.Booking{
		UserID:             ident.UserID,
		ProductID:          product.ID,
		ProductName:        product.Name,
		ProductImage:       image,
		ProductCategory:    product.Category,
		CustomerName:       strings.TrimSpace(req.CustomerName),
		CustomerEmail:      strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:      strings.TrimSpace(req.CustomerPhone),
		Address:            strings.TrimSpace(req.Address),
		Quantity:           req.Quantity,
		BookingDate:        req.BookingDate,
		ActualPrice:        req.ActualPrice,
		StrikePrice:        req.StrikePrice,
		SellingPrice:       req.SellingPrice,
		TotalAmount:        req.TotalAmount,
		DiscountPercentage: req.DiscountPercentage,
		Status:             models.BookingStatusConfirmed,
	}

	if err := s.insertWithCoupon(ctx, booking); err != nil {
		return nil, err
	}

	util.BookingsCreatedTotal.Inc()
	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("product_id", booking.ProductID),
		zap.String("coupon_code", booking.CouponCode))

	event := &models.BookingCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBookingCreated,
			Timestamp: time.Now(),
		},
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		ProductID:  booking.ProductID,
		Quantity:   booking.Quantity,
		CouponCode: booking.CouponCode,
		Total:      booking.TotalAmount,
	}
	if err := s.events.PublishBookingCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish BookingCreated event", zap.Error(err))
	}

	return booking, nil
}

// insertWithCoupon generates a coupon code and inserts the booking, retrying
// with a fresh code when the store reports a coupon uniqueness collision.
func (s *BookingService) insertWithCoupon(ctx context.Context, booking *models.Booking) error {
	for attempt := 1; attempt <= s.couponMaxAttempts; attempt++ {
		booking.CouponCode = couponcode.Generate(s.couponPrefix)

		err := s.store.CreateBooking(ctx, booking)
		if err == nil {
			return nil
		}
		if !models.IsCouponCollision(err) {
			util.BookingsFailedTotal.WithLabelValues("store_error").Inc()
			return err
		}

		util.CouponCollisionsTotal.Inc()
		s.logger.Warn("Coupon code collision, regenerating",
			zap.String("coupon_code", booking.CouponCode),
			zap.Int("attempt", attempt))
	}

	util.BookingsFailedTotal.WithLabelValues("coupon_exhausted").Inc()
	return &models.ConflictError{Msg: "could not allocate a unique coupon code"}
}

// GetBooking retrieves a booking for its owner or an admin
func (s *BookingService) GetBooking(ctx context.Context, ident models.Identity, id int64) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.GetBooking")
	defer span.End()

	booking, err := s.store.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeOwnerOrAdmin(ident, booking.UserID); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListBookings returns all bookings for admins and the caller's own bookings
// otherwise, most recent order first.
func (s *BookingService) ListBookings(ctx context.Context, ident models.Identity, limit, offset int) ([]models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.ListBookings")
	defer span.End()

	filter := store.BookingFilter{Limit: limit, Offset: offset}
	if !ident.IsAdmin() {
		filter.UserID = ident.UserID
	}
	return s.store.ListBookings(ctx, filter)
}

// CancelBooking transitions a confirmed booking to cancelled on behalf of its
// owner or an admin. Terminal states are rejected with a ConflictError.
func (s *BookingService) CancelBooking(ctx context.Context, ident models.Identity, id int64, reason string) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CancelBooking")
	defer span.End()

	booking, err := s.store.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeOwnerOrAdmin(ident, booking.UserID); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		if ident.IsAdmin() {
			reason = models.CancelReasonAdmin
		} else {
			reason = models.CancelReasonCustomer
		}
	}

	now := time.Now()
	if err := booking.Cancel(now, reason); err != nil {
		return nil, err
	}

	ok, err := s.store.CancelBooking(ctx, id, now, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Raced with another transition; re-derive the precise conflict.
		return nil, s.transitionConflict(ctx, id, func(b *models.Booking) error {
			return b.Cancel(now, reason)
		})
	}

	by := "customer"
	if ident.IsAdmin() {
		by = "admin"
	}
	util.BookingsCancelledTotal.WithLabelValues(by).Inc()
	s.logger.Info("Booking cancelled",
		zap.Int64("booking_id", id),
		zap.String("reason", reason))

	event := &models.BookingCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBookingCancelled,
			Timestamp: time.Now(),
		},
		BookingID:   id,
		UserID:      booking.UserID,
		Reason:      reason,
		CancelledAt: now,
		ByAdmin:     ident.IsAdmin(),
	}
	if err := s.events.PublishBookingCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish BookingCancelled event", zap.Error(err))
	}

	return booking, nil
}

// CompleteBooking transitions a confirmed booking to completed. Admin only,
// regardless of ownership.
func (s *BookingService) CompleteBooking(ctx context.Context, ident models.Identity, id int64) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CompleteBooking")
	defer span.End()

	if err := AuthorizeAdmin(ident); err != nil {
		return nil, err
	}

	booking, err := s.store.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := booking.Complete(now); err != nil {
		return nil, err
	}

	ok, err := s.store.CompleteBooking(ctx, id, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionConflict(ctx, id, func(b *models.Booking) error {
			return b.Complete(now)
		})
	}

	util.BookingsCompletedTotal.Inc()
	s.logger.Info("Booking completed", zap.Int64("booking_id", id))

	event := &models.BookingCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBookingCompleted,
			Timestamp: time.Now(),
		},
		BookingID:   id,
		UserID:      booking.UserID,
		CompletedAt: now,
	}
	if err := s.events.PublishBookingCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish BookingCompleted event", zap.Error(err))
	}

	return booking, nil
}

// GetBookingByCoupon looks up a booking by its coupon code, case-insensitively.
func (s *BookingService) GetBookingByCoupon(ctx context.Context, ident models.Identity, code string) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.GetBookingByCoupon")
	defer span.End()

	normalized := couponcode.Normalize(code)
	if normalized == "" {
		return nil, &models.ValidationError{Field: "coupon_code", Msg: "must not be empty"}
	}

	booking, err := s.store.GetBookingByCoupon(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeOwnerOrAdmin(ident, booking.UserID); err != nil {
		return nil, err
	}
	return booking, nil
}

// transitionConflict re-reads a booking whose conditional transition update
// touched zero rows and converts its current state into the matching error.
func (s *BookingService) transitionConflict(ctx context.Context, id int64, apply func(*models.Booking) error) error {
	fresh, err := s.store.GetBookingByID(ctx, id)
	if err != nil {
		return err
	}
	if err := apply(fresh); err != nil {
		return err
	}
	return &models.ConflictError{Msg: "booking was modified concurrently"}
}
