package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bugport/mailflow/pkg/cli"
	"github.com/bugport/mailflow/pkg/config"
	"github.com/bugport/mailflow/pkg/evidence/recorder"
	"github.com/bugport/mailflow/pkg/evidence/storage"
	"github.com/bugport/mailflow/pkg/filter"
	"github.com/bugport/mailflow/pkg/quarantine"
	"github.com/bugport/mailflow/pkg/retention"
	"github.com/bugport/mailflow/pkg/server"
	"github.com/bugport/mailflow/pkg/telemetry/logging"
	"github.com/bugport/mailflow/pkg/telemetry/metrics"
	"github.com/bugport/mailflow/pkg/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP evaluation service",
	Long: `Run a long-lived HTTP service that evaluates messages POSTed to
/check and returns the terminal workflow record as JSON. The workflow
document is watched for changes and reloaded in place. Retention
pruning of quarantine and evidence stores runs on the configured cron
schedule.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return &cli.ConfigError{Message: err.Error()}
	}

	logger, err := logging.New(logging.Config{
		Level:     logLevel(cfg),
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(&metrics.Config{
			Enabled:   true,
			Namespace: cfg.Metrics.Namespace,
		}, nil)
	}

	ctx := cli.SetupSignalHandler()

	var observer workflow.Observer
	if collector != nil {
		observer = collector
	}
	manager := workflow.NewManager(cfg.Workflow.Path, logger, observer)
	if collector != nil {
		manager.OnReload = func(*workflow.Graph) { collector.RecordReload(true) }
	}
	if cfg.Workflow.Watch {
		go func() {
			if err := manager.Watch(ctx); err != nil {
				logger.Warn("workflow watch unavailable", "error", err)
			}
		}()
	}

	opts := []filter.Option{}
	if collector != nil {
		opts = append(opts, filter.WithMetrics(collector))
	}

	var retentionTargets []retention.TargetConfig

	if cfg.Evidence.Enabled {
		store, serr := storage.NewSQLiteStorage(&storage.SQLiteConfig{Path: cfg.Evidence.Path})
		if serr != nil {
			return fmt.Errorf("opening evidence storage: %w", serr)
		}
		defer store.Close()

		rec := recorder.NewRecorder(store, &recorder.Config{
			Enabled:      true,
			AsyncBuffer:  cfg.Evidence.AsyncBuffer,
			WriteTimeout: cfg.Evidence.WriteTimeout,
		})
		defer rec.Close()
		opts = append(opts, filter.WithRecorder(rec))

		retentionTargets = append(retentionTargets, retention.TargetConfig{
			Name:          "evidence",
			Target:        store,
			RetentionDays: cfg.Evidence.RetentionDays,
		})
	}

	if cfg.Quarantine.RetentionDays > 0 {
		qstore, qerr := quarantine.Open(quarantine.Config{
			Folder:    cfg.Quarantine.Folder,
			IndexPath: cfg.Quarantine.IndexPath,
		})
		if qerr != nil {
			logger.Warn("quarantine store unavailable, retention disabled for it", "error", qerr)
		} else {
			defer qstore.Close()
			retentionTargets = append(retentionTargets, retention.TargetConfig{
				Name:          "quarantine",
				Target:        qstore,
				RetentionDays: cfg.Quarantine.RetentionDays,
			})
		}
	}

	if len(retentionTargets) > 0 && cfg.Retention.Schedule != "" {
		scheduler := retention.NewScheduler(retention.NewPruner(retentionTargets), cfg.Retention.Schedule)
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("starting retention scheduler: %w", err)
		}
	}

	processor := filter.NewProcessor(manager, logger, opts...)

	srv := server.NewServer(&cfg.Server, processor, collector, logger)
	return srv.Start(ctx)
}
