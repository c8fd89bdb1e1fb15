// Package filter runs raw messages through the workflow graph and maps
// the terminal record to a delivery disposition.
package filter

import (
	"context"
	"log/slog"
	"time"

	"github.com/bugport/mailflow/pkg/evidence/recorder"
	"github.com/bugport/mailflow/pkg/extract"
	"github.com/bugport/mailflow/pkg/telemetry/metrics"
	"github.com/bugport/mailflow/pkg/workflow"
)

// GraphSource yields the graph to evaluate a message against. A bare
// *workflow.Graph satisfies it for one-shot runs; workflow.Manager
// satisfies it for long-running deployments with hot reload.
type GraphSource interface {
	Graph() *workflow.Graph
}

// StaticGraph adapts a single graph to the GraphSource interface.
type StaticGraph struct {
	G *workflow.Graph
}

// Graph returns the wrapped graph.
func (s StaticGraph) Graph() *workflow.Graph {
	return s.G
}

// Processor evaluates messages. Metrics and evidence are optional; a
// nil collector or recorder simply disables that concern.
type Processor struct {
	source   GraphSource
	logger   *slog.Logger
	metrics  *metrics.Collector
	recorder *recorder.Recorder
}

// Option configures a Processor.
type Option func(*Processor)

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Processor) { p.metrics = c }
}

// WithRecorder attaches an evidence recorder.
func WithRecorder(r *recorder.Recorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// NewProcessor creates a message processor.
func NewProcessor(source GraphSource, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		source: source,
		logger: logger.With("component", "filter"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process extracts the message's fields, runs the workflow, and
// returns the terminal record. It never fails: extraction and
// evaluation both degrade internally, so the caller always receives a
// record whose Action() is a usable disposition. Evidence is recorded
// asynchronously.
func (p *Processor) Process(ctx context.Context, raw []byte) workflow.Record {
	return p.process(ctx, raw, false)
}

// ProcessSync is Process with synchronous evidence recording, for
// one-shot invocations that exit immediately after dispatch.
func (p *Processor) ProcessSync(ctx context.Context, raw []byte) workflow.Record {
	return p.process(ctx, raw, true)
}

func (p *Processor) process(ctx context.Context, raw []byte, sync bool) workflow.Record {
	start := time.Now()

	rec := extract.Fields(raw, p.logger)
	result := p.source.Graph().Run(rec)

	elapsed := time.Since(start)
	action := result.Action()

	p.logger.Info("message processed",
		"action", action,
		"message_id", result.String("message_id"),
		"duration_ms", elapsed.Milliseconds(),
	)

	if p.metrics != nil {
		p.metrics.RecordDisposition(action)
		p.metrics.ObserveEvalDuration(elapsed)
	}
	if p.recorder != nil {
		if sync {
			p.recorder.RecordSync(ctx, result, elapsed)
		} else {
			p.recorder.Record(result, elapsed)
		}
	}

	return result
}
