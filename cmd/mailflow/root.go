package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mailflow",
	Short: "Workflow-based content filter for mail transfer agents",
	Long: `Mailflow is a content filter invoked by a mail transfer agent for every
inbound message. It evaluates a declarative node/connection workflow
against the message's attributes and emits a disposition: accept,
reject, quarantine, forward, tag, or header modification.

The filter reads its workflow from a JSON document, bootstrapping a
built-in spam-filtering default when none exists, and fails open on
any internal fault so mail is never lost to a filter bug.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "/etc/mailflow/config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
