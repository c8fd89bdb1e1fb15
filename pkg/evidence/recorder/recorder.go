// Package recorder assembles evidence records from workflow results
// and hands them to storage without ever blocking message delivery.
package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bugport/mailflow/pkg/evidence"
	"github.com/bugport/mailflow/pkg/workflow"
)

// Config contains configuration for the evidence recorder.
type Config struct {
	// Enabled enables evidence recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing evidence to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder records a disposition evidence row for every processed
// message. Writes happen on a background worker; a full buffer drops
// the record with a warning rather than stalling the filter.
type Recorder struct {
	storage    evidence.Storage
	config     *Config
	recordChan chan *evidence.Record
	wg         sync.WaitGroup
	done       chan struct{}
	logger     *slog.Logger
}

// NewRecorder creates a recorder backed by the given storage.
func NewRecorder(storage evidence.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *evidence.Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "evidence.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// Record builds an evidence row from a workflow result and queues it
// for persistence. Never blocks and never returns an error: evidence
// is best-effort and must not affect delivery.
func (r *Recorder) Record(result workflow.Record, duration time.Duration) {
	if !r.config.Enabled {
		return
	}

	rec := FromResult(result, duration)

	select {
	case r.recordChan <- rec:
	default:
		r.logger.Warn("evidence buffer full, dropping record",
			"message_id", rec.MessageID,
			"action", rec.Action,
		)
	}
}

// RecordSync builds and persists an evidence row immediately. Used by
// one-shot filter invocations that exit right after dispatch.
func (r *Recorder) RecordSync(ctx context.Context, result workflow.Record, duration time.Duration) {
	if !r.config.Enabled {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, FromResult(result, duration)); err != nil {
		r.logger.Warn("failed to store evidence record", "error", err)
	}
}

// Close drains pending records and stops the worker.
func (r *Recorder) Close() {
	close(r.done)
	r.wg.Wait()
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.recordChan:
			r.store(rec)
		case <-r.done:
			// Drain whatever is still buffered.
			for {
				select {
				case rec := <-r.recordChan:
					r.store(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) store(rec *evidence.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, rec); err != nil {
		r.logger.Warn("failed to store evidence record", "error", err, "id", rec.ID)
	}
}

// FromResult converts a terminal workflow record into an evidence row.
func FromResult(result workflow.Record, duration time.Duration) *evidence.Record {
	rec := &evidence.Record{
		ID:         uuid.NewString(),
		MessageID:  result.String("message_id"),
		From:       result.String("from"),
		To:         result.String("to"),
		Subject:    result.String("subject"),
		Action:     string(result.Action()),
		Error:      result.String(workflow.KeyError),
		Duration:   duration,
		RecordedAt: time.Now(),
	}

	if size, ok := result["size"].(int); ok {
		rec.Size = size
	}
	if results, ok := result[workflow.KeyFilterResults].([]workflow.ConditionResult); ok {
		rec.FilterResults = results
	}

	payload := map[string]any{}
	for _, key := range []string{
		workflow.KeyQuarantineFolder,
		workflow.KeyForwardTo,
		workflow.KeyHeaderModifications,
		workflow.KeyTags,
	} {
		if v, ok := result[key]; ok {
			payload[key] = v
		}
	}
	if len(payload) > 0 {
		rec.Payload = payload
	}
	rec.RejectReason = result.String(workflow.KeyRejectReason)

	return rec
}
