// Package metrics holds the Prometheus counters for conversation flows,
// admin decisions and notification delivery.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	flowsStarted   *prometheus.CounterVec
	flowsCompleted *prometheus.CounterVec
	flowsCancelled *prometheus.CounterVec
	flowsFailed    *prometheus.CounterVec
	reprompts      *prometheus.CounterVec
	decisions      *prometheus.CounterVec
	notifyFailures prometheus.Counter
}

// New registers the collectors with reg. A nil registry disables metrics;
// every method is safe on a nil *Metrics.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}
	m := &Metrics{
		flowsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeydesk", Subsystem: "flow", Name: "started_total",
			Help: "Conversation flows entered",
		}, []string{"flow"}),
		flowsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeydesk", Subsystem: "flow", Name: "completed_total",
			Help: "Conversation flows committed",
		}, []string{"flow"}),
		flowsCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeydesk", Subsystem: "flow", Name: "cancelled_total",
			Help: "Conversation flows cancelled by the user",
		}, []string{"flow"}),
		flowsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeydesk", Subsystem: "flow", Name: "failed_total",
			Help: "Conversation flows aborted by an error, by error kind",
		}, []string{"flow", "kind"}),
		reprompts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeydesk", Subsystem: "flow", Name: "reprompts_total",
			Help: "Steps re-asked after invalid input",
		}, []string{"flow", "step"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeydesk", Subsystem: "admin", Name: "decisions_total",
			Help: "Admin decisions by entity and outcome",
		}, []string{"entity", "outcome"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "honeydesk", Subsystem: "notify", Name: "failures_total",
			Help: "Notifications that could not be delivered",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.flowsStarted, m.flowsCompleted, m.flowsCancelled, m.flowsFailed,
		m.reprompts, m.decisions, m.notifyFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) FlowStarted(flow string) {
	if m != nil {
		m.flowsStarted.WithLabelValues(flow).Inc()
	}
}

func (m *Metrics) FlowCompleted(flow string) {
	if m != nil {
		m.flowsCompleted.WithLabelValues(flow).Inc()
	}
}

func (m *Metrics) FlowCancelled(flow string) {
	if m != nil {
		m.flowsCancelled.WithLabelValues(flow).Inc()
	}
}

func (m *Metrics) FlowFailed(flow, kind string) {
	if m != nil {
		m.flowsFailed.WithLabelValues(flow, kind).Inc()
	}
}

func (m *Metrics) Reprompt(flow, step string) {
	if m != nil {
		m.reprompts.WithLabelValues(flow, step).Inc()
	}
}

func (m *Metrics) Decision(entity, outcome string) {
	if m != nil {
		m.decisions.WithLabelValues(entity, outcome).Inc()
	}
}

func (m *Metrics) NotifyFailed() {
	if m != nil {
		m.notifyFailures.Inc()
	}
}
