// Package metrics exports trigger activity to Prometheus through
// trigger.ObservabilityHooks.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	trigger "github.com/netresearch/go-trigger"
)

// Collector counts firings, misfire recoveries and completion answers.
// Registration errors are logged through the supplied trigger.Logger and
// never propagated, so a duplicate registration does not stop triggers.
type Collector struct {
	firedTotal       *prometheus.CounterVec
	exhaustedTotal   *prometheus.CounterVec
	misfiresTotal    *prometheus.CounterVec
	misfireLateness  prometheus.Histogram
	completionsTotal *prometheus.CounterVec

	logger trigger.Logger
}

// NewCollector creates the collectors and registers them with reg.
// A nil logger falls back to trigger.DefaultLogger.
func NewCollector(reg prometheus.Registerer, logger trigger.Logger) *Collector {
	if logger == nil {
		logger = trigger.DefaultLogger
	}
	c := &Collector{logger: logger}

	c.firedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_fired_total",
		Help: "Total number of firings recorded by Triggered.",
	}, []string{"trigger"})
	c.exhaustedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_exhausted_total",
		Help: "Total number of firings after which the trigger had no next fire time.",
	}, []string{"trigger"})
	c.misfiresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_misfires_total",
		Help: "Total number of misfire recoveries by requested and applied instruction.",
	}, []string{"requested", "applied"})
	c.misfireLateness = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trigger_misfire_lateness_seconds",
		Help:    "How far the missed fire time lay behind now when recovery ran.",
		Buckets: []float64{1, 5, 30, 60, 300, 900, 3600, 86400},
	})
	c.completionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_completions_total",
		Help: "Total number of completed executions by resulting instruction.",
	}, []string{"instruction"})

	c.register(reg, c.firedTotal, "trigger_fired_total")
	c.register(reg, c.exhaustedTotal, "trigger_exhausted_total")
	c.register(reg, c.misfiresTotal, "trigger_misfires_total")
	c.register(reg, c.misfireLateness, "trigger_misfire_lateness_seconds")
	c.register(reg, c.completionsTotal, "trigger_completions_total")
	return c
}

// register attempts to register a collector, logging any errors without propagating them.
func (c *Collector) register(reg prometheus.Registerer, col prometheus.Collector, name string) {
	if reg == nil {
		return
	}
	if err := reg.Register(col); err != nil {
		c.logger.Error(err, "failed to register metric", "metric", name)
	}
}

// Hooks returns observability hooks that feed this collector.
func (c *Collector) Hooks() trigger.ObservabilityHooks {
	return trigger.ObservabilityHooks{
		OnFired:    c.fired,
		OnMisfire:  c.misfired,
		OnComplete: c.completed,
	}
}

func (c *Collector) fired(key string, _, _ time.Time, ok bool) {
	c.firedTotal.WithLabelValues(key).Inc()
	if !ok {
		c.exhaustedTotal.WithLabelValues(key).Inc()
	}
}

func (c *Collector) misfired(_ string, requested, applied trigger.MisfireInstruction, late time.Duration, _ time.Time, _ bool) {
	c.misfiresTotal.WithLabelValues(requested.String(), applied.String()).Inc()
	c.misfireLateness.Observe(late.Seconds())
}

func (c *Collector) completed(_ string, instr trigger.CompletedExecutionInstruction) {
	c.completionsTotal.WithLabelValues(instr.String()).Inc()
}
