// Package retention prunes aged-out quarantine files and evidence
// records on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Target is a store that can delete entries older than a cutoff.
type Target interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// TargetConfig pairs a target with its retention window.
type TargetConfig struct {
	// Name identifies the target in logs ("quarantine", "evidence").
	Name string

	// Target is the store to prune.
	Target Target

	// RetentionDays is the age in days past which entries are deleted.
	// Zero disables pruning for this target.
	RetentionDays int
}

// Pruner runs retention passes over a set of targets.
type Pruner struct {
	targets []TargetConfig
	logger  *slog.Logger
}

// NewPruner creates a pruner over the given targets.
func NewPruner(targets []TargetConfig) *Pruner {
	return &Pruner{
		targets: targets,
		logger:  slog.Default().With("component", "retention.pruner"),
	}
}

// Prune runs one retention pass and returns the total number of entries
// removed. A failing target does not stop the others; the first error
// is returned after all targets ran.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64
	var firstErr error

	for _, t := range p.targets {
		if t.RetentionDays <= 0 || t.Target == nil {
			continue
		}

		cutoff := time.Now().AddDate(0, 0, -t.RetentionDays)
		deleted, err := t.Target.Prune(ctx, cutoff)
		if err != nil {
			p.logger.Error("retention pass failed", "target", t.Name, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("pruning %s: %w", t.Name, err)
			}
			continue
		}

		total += deleted
		p.logger.Info("retention pass completed",
			"target", t.Name,
			"deleted", deleted,
			"retention_days", t.RetentionDays,
		)
	}

	return total, firstErr
}
