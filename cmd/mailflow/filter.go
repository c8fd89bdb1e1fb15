package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bugport/mailflow/pkg/cli"
	"github.com/bugport/mailflow/pkg/config"
	"github.com/bugport/mailflow/pkg/evidence/recorder"
	"github.com/bugport/mailflow/pkg/evidence/storage"
	"github.com/bugport/mailflow/pkg/filter"
	"github.com/bugport/mailflow/pkg/quarantine"
	"github.com/bugport/mailflow/pkg/telemetry/logging"
	"github.com/bugport/mailflow/pkg/workflow"
)

var filterFlags struct {
	workflowPath string
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter one message from stdin",
	Long: `Read a complete raw message from stdin, evaluate the workflow, and act
on the disposition:

  accept (and forward/tag/modify_headers)  echo the message to stdout, exit 0
  reject                                   exit 1 without echoing
  quarantine                               persist the message, exit 1

This is the MTA entry point, e.g. as a postfix content_filter pipe
command. Any internal fault fails open: the original message is echoed
to stdout and the command exits 0, so a filter bug can never lose mail.`,
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().StringVarP(&filterFlags.workflowPath, "workflow", "w", "", "override workflow document path")
}

func runFilter(cmd *cobra.Command, args []string) error {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading message from stdin: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("no message content received")
	}

	return dispatch(raw)
}

// dispatch runs the message through the workflow and maps the
// disposition to the process contract. Everything below the stdin read
// fails open: whatever goes wrong, the original message is echoed and
// the exit code signals acceptance.
func dispatch(raw []byte) (err error) {
	logger := setupFilterLogger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("internal fault, failing open", "panic", r)
			os.Stdout.Write(raw)
			err = nil
		}
	}()

	cfg, cfgErr := config.LoadOrDefault(cfgFile)
	if cfgErr != nil {
		logger.Error("invalid configuration, using defaults", "error", cfgErr)
		cfg = config.DefaultConfig()
	}
	if lg, lgErr := logging.New(logging.Config{
		Level:     logLevel(cfg),
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	}); lgErr == nil {
		logger = lg
	}

	workflowPath := cfg.Workflow.Path
	if filterFlags.workflowPath != "" {
		workflowPath = filterFlags.workflowPath
	}
	graph := workflow.LoadOrDefault(workflowPath, logger)

	opts := []filter.Option{}
	var rec *recorder.Recorder
	if cfg.Evidence.Enabled {
		store, serr := storage.NewSQLiteStorage(&storage.SQLiteConfig{Path: cfg.Evidence.Path})
		if serr != nil {
			logger.Warn("evidence storage unavailable", "error", serr)
		} else {
			defer store.Close()
			rec = recorder.NewRecorder(store, &recorder.Config{
				Enabled:      true,
				AsyncBuffer:  cfg.Evidence.AsyncBuffer,
				WriteTimeout: cfg.Evidence.WriteTimeout,
			})
			defer rec.Close()
			opts = append(opts, filter.WithRecorder(rec))
		}
	}

	processor := filter.NewProcessor(filter.StaticGraph{G: graph}, logger, opts...)
	result := processor.ProcessSync(context.Background(), raw)

	switch result.Action() {
	case workflow.ActionReject:
		return &cli.RejectionError{
			Action: string(workflow.ActionReject),
			Reason: result.String(workflow.KeyRejectReason),
		}

	case workflow.ActionQuarantine:
		folder := result.String(workflow.KeyQuarantineFolder)
		if folder == "" {
			folder = cfg.Quarantine.Folder
		}
		qcfg := quarantine.Config{Folder: folder}
		if folder == cfg.Quarantine.Folder {
			qcfg.IndexPath = cfg.Quarantine.IndexPath
		}
		store, qerr := quarantine.Open(qcfg)
		if qerr != nil {
			logger.Error("quarantine store unavailable, failing open", "error", qerr)
			os.Stdout.Write(raw)
			return nil
		}
		defer store.Close()

		if _, derr := store.Deposit(context.Background(), raw, result); derr != nil {
			logger.Error("quarantine write failed, failing open", "error", derr)
			os.Stdout.Write(raw)
			return nil
		}
		return &cli.RejectionError{
			Action: string(workflow.ActionQuarantine),
			Reason: folder,
		}

	default:
		// accept, forward, tag, modify_headers: deliver. The downstream
		// MTA stage acts on the payload attributes if it cares.
		os.Stdout.Write(raw)
		return nil
	}
}

// setupFilterLogger builds the pre-config logger. Logs go to stderr;
// stdout belongs to the message.
func setupFilterLogger() *slog.Logger {
	level := "info"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{Level: level, Format: "text"})
	if err != nil {
		return slog.Default()
	}
	return logger
}

func logLevel(cfg *config.Config) string {
	if verbose {
		return "debug"
	}
	return cfg.Logging.Level
}
