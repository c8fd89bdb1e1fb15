package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bugport/mailflow/pkg/cli"
	"github.com/bugport/mailflow/pkg/config"
	"github.com/bugport/mailflow/pkg/workflow"
)

var validateFlags struct {
	workflowPath string
	output       string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Lint a workflow document",
	Long: `Parse the workflow document and report structural problems: missing
or duplicate triggers, unknown node types and operators, dangling
connections, and unreachable nodes. Errors make the command exit
non-zero; warnings do not.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateFlags.workflowPath, "workflow", "w", "", "workflow document path (defaults to the configured path)")
	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "text", "output format (text or json)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateFlags.output)
	if err != nil {
		return err
	}

	path := validateFlags.workflowPath
	if path == "" {
		cfg, cerr := config.LoadOrDefault(cfgFile)
		if cerr != nil {
			return &cli.ConfigError{Message: cerr.Error()}
		}
		path = cfg.Workflow.Path
	}

	def, err := workflow.LoadDefinition(path)
	if err != nil {
		return fmt.Errorf("loading workflow document: %w", err)
	}

	problems := workflow.Lint(def)

	if format == cli.FormatJSON {
		if err := cli.WriteJSON(os.Stdout, problems); err != nil {
			return err
		}
	} else {
		if len(problems) == 0 {
			fmt.Printf("%s: ok (%d nodes, %d connections)\n", path, len(def.Nodes), len(def.Connections))
		}
		for _, p := range problems {
			fmt.Println(p.String())
		}
	}

	for _, p := range problems {
		if p.Severity == workflow.SeverityError {
			return fmt.Errorf("workflow document has errors")
		}
	}
	return nil
}
