// Package metrics exposes factory activity as prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ruteri/bonding-factory-backend/provisioning"
)

const namespace = "bonding_factory"

// Metrics implements the admin and provisioning recorders.
type Metrics struct {
	provisioningStarted   *prometheus.CounterVec
	provisioningCompleted *prometheus.CounterVec
	adminCommands         *prometheus.CounterVec
	stateSaves            *prometheus.CounterVec
	registeredPairs       prometheus.Gauge
	pendingJobs           prometheus.Gauge
}

// NewMetrics creates the factory metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		provisioningStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provisioning",
			Name:      "started_total",
			Help:      "Provisioning requests by result.",
		}, []string{"result"}),
		provisioningCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provisioning",
			Name:      "completed_total",
			Help:      "Issuance callbacks processed by terminal status and result.",
		}, []string{"status", "result"}),
		adminCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "commands_total",
			Help:      "Administrative commands by command, target kind and result.",
		}, []string{"command", "target", "result"}),
		stateSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "saves_total",
			Help:      "State snapshot saves by result.",
		}, []string{"result"}),
		registeredPairs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "pairs",
			Help:      "Number of registered pair sub-systems.",
		}),
		pendingJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "provisioning",
			Name:      "pending_jobs",
			Help:      "Provisioning jobs awaiting their issuance callback.",
		}),
	}

	reg.MustRegister(
		m.provisioningStarted,
		m.provisioningCompleted,
		m.adminCommands,
		m.stateSaves,
		m.registeredPairs,
		m.pendingJobs,
	)
	return m
}

func (m *Metrics) ProvisioningStarted(err error) {
	m.provisioningStarted.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ProvisioningCompleted(status provisioning.Status, err error) {
	m.provisioningCompleted.WithLabelValues(string(status), result(err)).Inc()
}

func (m *Metrics) AdminCommand(command string, local bool, err error) {
	target := "subsystem"
	if local {
		target = "self"
	}
	m.adminCommands.WithLabelValues(command, target, result(err)).Inc()
}

func (m *Metrics) StateSaved(err error) {
	m.stateSaves.WithLabelValues(result(err)).Inc()
}

// SetRegistrySize reports the current registry and pending job counts.
func (m *Metrics) SetRegistrySize(pairs, pending int) {
	m.registeredPairs.Set(float64(pairs))
	m.pendingJobs.Set(float64(pending))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
