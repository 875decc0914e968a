package services

import "github.com/prometheus/client_golang/prometheus"

var (
	webhookCallsCounter    *prometheus.CounterVec
	syncRunsCounter        *prometheus.CounterVec
	topicsGeneratedCounter prometheus.Counter
	saveFailuresCounter    prometheus.Counter
)

func init() {
	webhookCallsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_webhook_calls_total",
			Help: "Calls to automation webhooks by webhook and result.",
		},
		[]string{"webhook", "result"},
	)
	syncRunsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_sync_runs_total",
			Help: "Sync attempts by source and result.",
		},
		[]string{"source", "result"},
	)
	topicsGeneratedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "content_topics_generated_total",
			Help: "Total number of topics created from generation responses.",
		},
	)
	saveFailuresCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "content_background_save_failures_total",
			Help: "Background saves to the remote store that failed.",
		},
	)
	prometheus.MustRegister(webhookCallsCounter, syncRunsCounter, topicsGeneratedCounter, saveFailuresCounter)
}

// RecordWebhookCall zählt einen Webhook-Aufruf; result ist "ok" oder "error".
func RecordWebhookCall(webhook, result string) {
	webhookCallsCounter.WithLabelValues(webhook, result).Inc()
}
