package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated counts persisted notifications by type
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrimarket_notifications_created_total",
		Help: "Notifications persisted, by type",
	}, []string{"type"})

	// NotificationCreateFailures counts rejected or failed creations by reason
	NotificationCreateFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrimarket_notification_create_failures_total",
		Help: "Notification creations that did not persist, by reason",
	}, []string{"reason"})

	// AlertEmails counts stock alert email outcomes.
	// result is one of sent, failed, skipped, enqueued, enqueue_failed
	AlertEmails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrimarket_stock_alert_emails_total",
		Help: "Stock alert email outcomes by kind and result",
	}, []string{"kind", "result"})

	// AlertEmailDuration tracks how long one send attempt takes
	AlertEmailDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agrimarket_stock_alert_email_duration_seconds",
		Help:    "Duration of one stock alert send attempt",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	})

	// OutboxJobs counts worker pool outcomes.
	// result is one of delivered, retried, dead_lettered, requeued
	OutboxJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrimarket_outbox_jobs_total",
		Help: "Outbox job outcomes",
	}, []string{"result"})

	// RetentionDeleted counts notifications removed by the retention sweep
	RetentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agrimarket_retention_deleted_total",
		Help: "Read notifications deleted by the retention sweep",
	})
)
