package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus counters shared across the service. Registered once at import
// time on the default registry, which /metrics serves.
var (
	SubscriptionsActiveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subscriptions_active_total",
		Help: "Total number of active subscriptions",
	}, []string{"tier"})

	FeatureUsageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feature_usage_total",
		Help: "Total usage of metered features",
	}, []string{"feature", "user_id"})

	GDPRActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gdpr_actions_total",
		Help: "Total GDPR actions performed",
	}, []string{"action_type"})

	TaskRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "background_task_retries_total",
		Help: "Total background task retries by task kind",
	}, []string{"kind"})
)
