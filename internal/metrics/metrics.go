// Package metrics exposes prometheus counters for the auth core.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	sessionservice "github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/service"
)

// AuthMetrics holds the counters the auth core emits.
type AuthMetrics struct {
	FingerprintMismatches prometheus.Counter
	SessionsRevoked       *prometheus.CounterVec
}

// New registers and returns the auth counters on reg.
func New(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		FingerprintMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_fingerprint_mismatches_total",
			Help: "Refresh attempts rejected because the device fingerprint no longer matched.",
		}),
		SessionsRevoked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_sessions_revoked_total",
			Help: "Sessions revoked, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.FingerprintMismatches, m.SessionsRevoked)
	return m
}

// Notifier decorates an inner security-event notifier with counter updates.
type Notifier struct {
	inner   sessionservice.Notifier
	metrics *AuthMetrics
}

// NewNotifier returns a Notifier that counts events and forwards them to
// inner. inner may be nil.
func NewNotifier(inner sessionservice.Notifier, m *AuthMetrics) *Notifier {
	return &Notifier{inner: inner, metrics: m}
}

func (n *Notifier) HandleFingerprintMismatch(ctx context.Context, ev sessionservice.FingerprintMismatch) {
	n.metrics.FingerprintMismatches.Inc()
	if n.inner != nil {
		n.inner.HandleFingerprintMismatch(ctx, ev)
	}
}

func (n *Notifier) HandleSessionRevoked(ctx context.Context, ev sessionservice.SessionRevoked) {
	n.metrics.SessionsRevoked.WithLabelValues(ev.Reason).Inc()
	if n.inner != nil {
		n.inner.HandleSessionRevoked(ctx, ev)
	}
}
