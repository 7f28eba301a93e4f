package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "focusforge"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	slotReads      *prom.CounterVec
	slotWrites     *prom.CounterVec
	writeDuration  *prom.HistogramVec
	writeRetries   *prom.CounterVec
	notifications  *prom.CounterVec
	handlerPanics  *prom.CounterVec
	sessionOutcome *prom.CounterVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		slotReads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "slot_reads_total",
			Help:      "Slot reads by key and outcome",
		}, []string{"key", "outcome"}),
		slotWrites: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "slot_writes_total",
			Help:      "Slot writes by key and result",
		}, []string{"key", "result"}),
		writeDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "slot_write_duration_seconds",
			Help:      "Duration of persisted slot writes including retries",
			Buckets:   prom.DefBuckets,
		}, []string{"backend"}),
		writeRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "slot_write_retries_total",
			Help:      "Retries of slot writes after transient backend failures",
		}, []string{"key"}),
		notifications: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Change notifications by transport and direction",
		}, []string{"transport", "direction"}),
		handlerPanics: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notification_handler_panics_total",
			Help:      "Recovered panics in change handlers",
		}, []string{"key"}),
		sessionOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "session_outcomes_total",
			Help:      "Completed countdown sessions by mode",
		}, []string{"mode"}),
	}
	reg.MustRegister(pr.slotReads, pr.slotWrites, pr.writeDuration, pr.writeRetries, pr.notifications, pr.handlerPanics, pr.sessionOutcome)
	return pr
}

func (p *PrometheusRecorder) IncSlotRead(key string, outcome ReadOutcome) {
	if p == nil {
		return
	}
	p.slotReads.WithLabelValues(key, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncSlotWrite(key string, result ResultLabel) {
	if p == nil {
		return
	}
	p.slotWrites.WithLabelValues(key, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveWriteDuration(backend string, d time.Duration) {
	if p == nil {
		return
	}
	p.writeDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncWriteRetry(key string) {
	if p == nil {
		return
	}
	p.writeRetries.WithLabelValues(key).Inc()
}

func (p *PrometheusRecorder) IncNotification(transport, direction string) {
	if p == nil {
		return
	}
	p.notifications.WithLabelValues(transport, direction).Inc()
}

func (p *PrometheusRecorder) IncHandlerPanic(key string) {
	if p == nil {
		return
	}
	p.handlerPanics.WithLabelValues(key).Inc()
}

func (p *PrometheusRecorder) IncSessionOutcome(mode string) {
	if p == nil {
		return
	}
	p.sessionOutcome.WithLabelValues(mode).Inc()
}
