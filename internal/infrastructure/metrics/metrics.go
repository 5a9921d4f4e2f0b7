// Package metrics registers the Prometheus collectors for the OTP ledger,
// notification ledger and background workers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder groups the collectors so tests can use a private registry.
type Recorder struct {
	OtpIssued            *prometheus.CounterVec
	OtpConsumed          *prometheus.CounterVec
	ReaperDeleted        prometheus.Counter
	ReaperRuns           *prometheus.CounterVec
	NotificationsCreated *prometheus.CounterVec
	OutboxDispatched     *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production so promhttp.Handler exposes them.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		OtpIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_issued_total",
			Help: "One-time codes issued, by purpose.",
		}, []string{"purpose"}),
		OtpConsumed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_consume_total",
			Help: "Consume attempts, by purpose and result.",
		}, []string{"purpose", "result"}),
		ReaperDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "otp_reaper_deleted_total",
			Help: "Expired or consumed tokens purged by the reaper.",
		}),
		ReaperRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_reaper_runs_total",
			Help: "Reaper sweeps, by result.",
		}, []string{"result"}),
		NotificationsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Notifications appended, by type.",
		}, []string{"type"}),
		OutboxDispatched: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_dispatched_total",
			Help: "Outbox events handled, by kind and result (ok, error, parked).",
		}, []string{"kind", "result"}),
	}
}

// Nop returns a Recorder bound to a throwaway registry.
func Nop() *Recorder {
	return New(prometheus.NewRegistry())
}

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
