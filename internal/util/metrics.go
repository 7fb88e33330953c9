package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total number of bookings created",
	})

	BookingsCancelledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_cancelled_total",
		Help: "Total number of bookings cancelled",
	}, []string{"by"})

	BookingsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_completed_total",
		Help: "Total number of bookings completed",
	})

	BookingsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_failed_total",
		Help: "Total number of failed booking operations",
	}, []string{"reason"})

	CouponCollisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coupon_collisions_total",
		Help: "Total number of coupon code uniqueness collisions",
	})

	ProductViewsFlushedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_views_flushed_total",
		Help: "Total number of buffered product views flushed to the database",
	})

	ProductViewFlushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_view_flush_failures_total",
		Help: "Total number of failed view counter flushes",
	})

	ImageCleanupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "image_cleanup_failures_total",
		Help: "Total number of failed image storage deletions",
	})

	BookingEventsAuditedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_events_audited_total",
		Help: "Total number of booking events processed by the audit worker",
	}, []string{"type"})

	BookingCreateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booking_create_latency_seconds",
		Help:    "Latency of booking creation including coupon retries",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
