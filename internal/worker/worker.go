package worker

import (
	"context"
	"encoding/json"
	"time"

	"techstore/internal/broker"
	"techstore/internal/models"
	"techstore/internal/redisclient"
	"techstore/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ViewStore is the slice of the store the flush worker writes through.
type ViewStore interface {
	IncrementProductViews(ctx context.Context, id int64, delta int64) error
}

// ViewFlushWorker periodically drains the buffered view counters from redis
// into atomic database increments. Everything here is best-effort: a failed
// flush drops that interval's counts and is only logged.
type ViewFlushWorker struct {
	redis    *redisclient.Client
	store    ViewStore
	interval time.Duration
	logger   *zap.Logger
}

// NewViewFlushWorker creates a new view flush worker
func NewViewFlushWorker(redis *redisclient.Client, store ViewStore, interval time.Duration) *ViewFlushWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &ViewFlushWorker{
		redis:    redis,
		store:    store,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start runs the flush loop until the context is cancelled
func (w *ViewFlushWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting view flush worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final drain so buffered views survive a clean shutdown.
			w.flush(context.Background())
			return ctx.Err()
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *ViewFlushWorker) flush(ctx context.Context) {
	counts, err := w.redis.DrainViews(ctx)
	if err != nil {
		util.ProductViewFlushFailures.Inc()
		w.logger.Warn("Failed to drain view counters", zap.Error(err))
	}

	for productID, delta := range counts {
		if err := w.store.IncrementProductViews(ctx, productID, delta); err != nil {
			util.ProductViewFlushFailures.Inc()
			w.logger.Warn("Failed to flush product views",
				zap.Int64("product_id", productID),
				zap.Int64("delta", delta),
				zap.Error(err))
			continue
		}
		util.ProductViewsFlushedTotal.Add(float64(delta))
	}
}

// AuditStore is the slice of the store the audit worker records into.
type AuditStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// BookingAuditWorker consumes booking lifecycle events and records them
// idempotently via the processed_events table.
type BookingAuditWorker struct {
	consumer *broker.Consumer
	store    AuditStore
	logger   *zap.Logger
}

// NewBookingAuditWorker creates a new booking audit worker
func NewBookingAuditWorker(consumer *broker.Consumer, store AuditStore) *BookingAuditWorker {
	return &BookingAuditWorker{
		consumer: consumer,
		store:    store,
		logger:   util.GetLogger(),
	}
}

// Start starts the worker
func (w *BookingAuditWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting booking audit worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *BookingAuditWorker) Stop() error {
	w.logger.Info("Stopping booking audit worker")
	return w.consumer.Close()
}

func (w *BookingAuditWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		w.logger.Error("Failed to unmarshal event", zap.Error(err))
		// Poison message; commit past it.
		return nil
	}

	processed, err := w.store.IsEventProcessed(ctx, base.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	switch base.EventType {
	case models.EventTypeBookingCreated,
		models.EventTypeBookingCancelled,
		models.EventTypeBookingCompleted:
		util.BookingEventsAuditedTotal.WithLabelValues(base.EventType).Inc()
	default:
		w.logger.Warn("Unhandled event type", zap.String("type", base.EventType))
	}

	return w.store.MarkEventProcessed(ctx, base.EventID, base.EventType)
}
