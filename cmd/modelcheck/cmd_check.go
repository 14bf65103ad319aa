package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"modelcheck/internal/exercise"
	"modelcheck/internal/format"
)

var checkFlags struct {
	versionPath string
	category    string
	property    string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that every object of a category carries a property",
	Long: `Filter the objects of a model version to one category and report which of
them lack the property (errors, the run fails), hold an empty or default
value (warnings) or hold a real value.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkFlags.versionPath, "version", "", "Model version JSON file (required)")
	f.StringVar(&checkFlags.category, "category", "", "Category to check, e.g. Walls (required)")
	f.StringVar(&checkFlags.property, "property", "", "Property name (required)")

	_ = checkCmd.MarkFlagRequired("version")
	_ = checkCmd.MarkFlagRequired("category")
	_ = checkCmd.MarkFlagRequired("property")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	mode, err := outputMode()
	if err != nil {
		return err
	}
	sink, err := newRunSink(exercise.NameValidateProperty)
	if err != nil {
		return err
	}
	defer sink.Close()

	runner := &exercise.Runner{EmptyValues: cfg.EmptyValueSet()}
	pc, err := runner.ValidateProperty(cmd.Context(),
		exercise.NewFileContext(checkFlags.versionPath, sink),
		exercise.ValidatePropertyInputs{Category: checkFlags.category, Property: checkFlags.property},
	)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if mode == format.JSON {
		if err := writeJSON(out, pc); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, format.PropertyCheck(pc, mode))
	}
	return sink.finish(out)
}
