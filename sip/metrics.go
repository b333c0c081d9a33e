package sip

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes transaction layer counters and gauges.
// A nil *Metrics disables collection.
type Metrics struct {
	active      *prometheus.GaugeVec
	created     *prometheus.CounterVec
	terminated  *prometheus.CounterVec
	retransmits *prometheus.CounterVec
}

// NewMetrics creates transaction metrics and registers them on reg.
// If reg is nil, metrics are collected but not registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sip",
			Subsystem: "transaction",
			Name:      "active",
			Help:      "Number of currently active SIP transactions.",
		}, []string{"type"}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sip",
			Subsystem: "transaction",
			Name:      "created_total",
			Help:      "Total number of SIP transactions created.",
		}, []string{"type"}),
		terminated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sip",
			Subsystem: "transaction",
			Name:      "terminated_total",
			Help:      "Total number of SIP transactions terminated, by stop reason.",
		}, []string{"type", "reason"}),
		retransmits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sip",
			Subsystem: "transaction",
			Name:      "retransmits_total",
			Help:      "Total number of messages retransmitted by SIP transactions.",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(m.active, m.created, m.terminated, m.retransmits)
	}
	return m
}

// ActiveGauge returns the active transactions gauge.
func (m *Metrics) ActiveGauge() *prometheus.GaugeVec { return m.active }

// CreatedCounter returns the created transactions counter.
func (m *Metrics) CreatedCounter() *prometheus.CounterVec { return m.created }

// TerminatedCounter returns the terminated transactions counter.
func (m *Metrics) TerminatedCounter() *prometheus.CounterVec { return m.terminated }

// RetransmitCounter returns the retransmitted messages counter.
func (m *Metrics) RetransmitCounter() *prometheus.CounterVec { return m.retransmits }

func (m *Metrics) txCreated(typ TransactionType) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(string(typ)).Inc()
	m.active.WithLabelValues(string(typ)).Inc()
}

func (m *Metrics) txTerminated(typ TransactionType, reason StopReason) {
	if m == nil {
		return
	}
	m.terminated.WithLabelValues(string(typ), string(reason)).Inc()
	m.active.WithLabelValues(string(typ)).Dec()
}

func (m *Metrics) retransmit(typ TransactionType) {
	if m == nil {
		return
	}
	m.retransmits.WithLabelValues(string(typ)).Inc()
}
