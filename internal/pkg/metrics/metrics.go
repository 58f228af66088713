package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubetalk_payment_reconcile_total",
		Help: "Reconciliation attempts by outcome.",
	}, []string{"outcome"})

	webhookTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubetalk_webhook_events_total",
		Help: "Webhook deliveries by disposition.",
	}, []string{"disposition"})

	attemptsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubetalk_attempts_consumed_total",
		Help: "Transcript/chat attempts consumed by plan.",
	}, []string{"plan"})
)

// ReconcileOutcome counts one reconciliation attempt outcome.
func ReconcileOutcome(outcome string) {
	reconcileTotal.WithLabelValues(outcome).Inc()
}

// WebhookDisposition counts one webhook delivery disposition.
func WebhookDisposition(disposition string) {
	webhookTotal.WithLabelValues(disposition).Inc()
}

// AttemptConsumed counts one consumed attempt for a plan.
func AttemptConsumed(plan string) {
	attemptsConsumed.WithLabelValues(plan).Inc()
}
