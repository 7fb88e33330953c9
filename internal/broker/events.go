package broker

import (
	"context"
	"fmt"

	"techstore/internal/models"
)

// EventPublisher handles publishing booking lifecycle events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishBookingCreated publishes a BookingCreated event
func (ep *EventPublisher) PublishBookingCreated(ctx context.Context, event *models.BookingCreatedEvent) error {
	key := fmt.Sprintf("booking-%d", event.BookingID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishBookingCancelled publishes a BookingCancelled event
func (ep *EventPublisher) PublishBookingCancelled(ctx context.Context, event *models.BookingCancelledEvent) error {
	key := fmt.Sprintf("booking-%d", event.BookingID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishBookingCompleted publishes a BookingCompleted event
func (ep *EventPublisher) PublishBookingCompleted(ctx context.Context, event *models.BookingCompletedEvent) error {
	key := fmt.Sprintf("booking-%d", event.BookingID)
	return ep.producer.PublishEvent(ctx, key, event)
}
