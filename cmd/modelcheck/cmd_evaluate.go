package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"modelcheck/internal/annotate"
	"modelcheck/internal/exercise"
	"modelcheck/internal/format"
	"modelcheck/internal/logging"
	"modelcheck/internal/model"
	"modelcheck/internal/rules"
)

var evaluateFlags struct {
	versionPath string
	rulesPath   string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Apply a rule file to a model version",
	Long: `Flatten a model version, apply every rule of a YAML or JSON rule file to
every object and print one row per rule. The run fails when any object has
an error-severity finding or when the rule file holds no rules.

Example rule file:

  rules:
    - property: height
      predicate: greater_than
      value: 2.4
      severity: warning
      category: Walls`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.versionPath, "version", "", "Model version JSON file (required)")
	f.StringVar(&evaluateFlags.rulesPath, "rules", "", "Rule file, YAML or JSON (required)")

	_ = evaluateCmd.MarkFlagRequired("version")
	_ = evaluateCmd.MarkFlagRequired("rules")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	mode, err := outputMode()
	if err != nil {
		return err
	}
	root, err := model.DecodeFile(evaluateFlags.versionPath)
	if err != nil {
		return err
	}
	rs, err := rules.LoadFile(evaluateFlags.rulesPath)
	if err != nil {
		return err
	}
	if cfg.FuzzyThreshold > 0 {
		rules.SetFuzzyThreshold(rs, cfg.FuzzyThreshold)
	}

	nodes := model.Flatten(root)
	report, err := rules.Evaluate(cmd.Context(), nodes, rs, ruleOptions())
	if err != nil {
		return err
	}

	sink, err := newRunSink(exercise.NameApplyRules)
	if err != nil {
		return err
	}
	defer sink.Close()
	if err := annotate.Publish(cmd.Context(), sink, report); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	logging.New("cli").Info("rules evaluated",
		slog.Int("rules", len(rs)),
		slog.Int("objects", len(nodes)),
		slog.String("status", string(report.Status())),
	)

	out := cmd.OutOrStdout()
	if mode == format.JSON {
		if err := writeJSON(out, report); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, format.Report(report, mode))
	}
	return sink.finish(out)
}
