package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wrenchbid",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status class.",
		},
		[]string{"endpoint", "status"},
	)

	rfqsOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wrenchbid",
			Name:      "rfqs_opened_total",
			Help:      "RFQs opened for bidding.",
		},
	)

	rfqsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wrenchbid",
			Name:      "rfqs_closed_total",
			Help:      "RFQs that reached a terminal state, by outcome.",
		},
		[]string{"outcome"},
	)

	bidsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wrenchbid",
			Name:      "bids_submitted_total",
			Help:      "Bids accepted by the submission gate.",
		},
	)

	bidsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wrenchbid",
			Name:      "bid_rejections_total",
			Help:      "Bid submissions refused, by gate reason.",
		},
		[]string{"reason"},
	)

	notificationsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wrenchbid",
			Name:      "notifications_total",
			Help:      "Notification outcomes, by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			rfqsOpened,
			rfqsClosed,
			bidsSubmitted,
			bidsRejected,
			notificationsDelivered,
		)
	})
}

// IncHTTP increments the request counter for an endpoint and status class.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncRfqOpened counts a newly opened RFQ.
func IncRfqOpened() {
	rfqsOpened.Inc()
}

// IncRfqClosed counts a terminal RFQ transition: accepted, expired or
// cancelled.
func IncRfqClosed(outcome string) {
	rfqsClosed.WithLabelValues(outcome).Inc()
}

// IncBidSubmitted counts a bid that passed every gate.
func IncBidSubmitted() {
	bidsSubmitted.Inc()
}

// IncBidRejected counts a refused submission by reason, for example
// "capacity" or "duplicate".
func IncBidRejected(reason string) {
	bidsRejected.WithLabelValues(reason).Inc()
}

// IncNotification counts a delivery outcome: "delivered", "retry" or
// "dead".
func IncNotification(result string) {
	notificationsDelivered.WithLabelValues(result).Inc()
}
