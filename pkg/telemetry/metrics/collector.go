// Package metrics exposes Prometheus metrics for the filter: message
// dispositions, node executions, condition evaluations, and evaluation
// latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bugport/mailflow/pkg/workflow"
)

// Config contains configuration for the metrics collector.
type Config struct {
	// Enabled enables metric collection.
	Enabled bool

	// Namespace is the metric name prefix. Default: "mailflow".
	Namespace string
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		Namespace: "mailflow",
	}
}

// Collector owns the Prometheus registry and all filter metrics. It
// implements workflow.Observer so the graph can report traversal
// events without depending on Prometheus.
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	messagesTotal   *prometheus.CounterVec
	nodeExecutions  *prometheus.CounterVec
	conditionEvals  *prometheus.CounterVec
	workflowReloads *prometheus.CounterVec
	evalDuration    prometheus.Histogram
}

// NewCollector creates a metrics collector. If registry is nil a fresh
// registry is used.
func NewCollector(cfg *Config, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "messages_total",
			Help:      "Messages processed, labeled by final disposition.",
		}, []string{"action"}),

		nodeExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "node_executions_total",
			Help:      "Workflow node executions, labeled by node type.",
		}, []string{"type"}),

		conditionEvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "condition_evaluations_total",
			Help:      "Filter condition evaluations, labeled by operator and outcome.",
		}, []string{"operator", "matched"}),

		workflowReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "workflow_reloads_total",
			Help:      "Workflow document reloads, labeled by outcome.",
		}, []string{"result"}),

		evalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "End-to-end message evaluation duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}

	registry.MustRegister(
		c.messagesTotal,
		c.nodeExecutions,
		c.conditionEvals,
		c.workflowReloads,
		c.evalDuration,
	)

	return c
}

// RecordDisposition counts a processed message by its final action.
func (c *Collector) RecordDisposition(action workflow.ActionType) {
	if !c.config.Enabled {
		return
	}
	c.messagesTotal.WithLabelValues(string(action)).Inc()
}

// ObserveEvalDuration records the end-to-end evaluation time.
func (c *Collector) ObserveEvalDuration(d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.evalDuration.Observe(d.Seconds())
}

// RecordReload counts a workflow document reload.
func (c *Collector) RecordReload(ok bool) {
	if !c.config.Enabled {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	c.workflowReloads.WithLabelValues(result).Inc()
}

// NodeExecuted implements workflow.Observer.
func (c *Collector) NodeExecuted(nodeType workflow.NodeType) {
	if !c.config.Enabled {
		return
	}
	c.nodeExecutions.WithLabelValues(string(nodeType)).Inc()
}

// ConditionEvaluated implements workflow.Observer.
func (c *Collector) ConditionEvaluated(op workflow.Operator, matched bool) {
	if !c.config.Enabled {
		return
	}
	outcome := "false"
	if matched {
		outcome = "true"
	}
	c.conditionEvals.WithLabelValues(string(op), outcome).Inc()
}
