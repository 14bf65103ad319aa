package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"modelcheck/internal/annotate"
	"modelcheck/internal/display"
	"modelcheck/internal/exercise"
	"modelcheck/internal/format"
	"modelcheck/internal/rules"
)

var exerciseFlags struct {
	versionPath string
	phrase      string
	count       int
	category    string
	property    string
	rulesPath   string
	seed        uint64
}

var exerciseCmd = &cobra.Command{
	Use:   "exercise <0|1|2|3|name>",
	Short: "Run one of the automation functions against a model version",
	Long: `Run an automation function against a version file, the way the hosted
automation would on a new model version:

  0  comment-random     comment on one random displayable object (--phrase)
  1  comment-many       comment on --count random objects with an index gradient
  2  validate-property  check --property on every --category object
  3  apply-rules        apply the --rules file`,
	Args: cobra.ExactArgs(1),
	RunE: runExercise,
}

func init() {
	f := exerciseCmd.Flags()
	f.StringVar(&exerciseFlags.versionPath, "version", "", "Model version JSON file (required)")
	f.StringVar(&exerciseFlags.phrase, "phrase", "Hello from modelcheck", "Comment phrase (0, 1)")
	f.IntVar(&exerciseFlags.count, "count", 5, "Number of objects to comment on (1)")
	f.StringVar(&exerciseFlags.category, "category", "", "Category (2)")
	f.StringVar(&exerciseFlags.property, "property", "", "Property name (2)")
	f.StringVar(&exerciseFlags.rulesPath, "rules", "", "Rule file (3)")
	f.Uint64Var(&exerciseFlags.seed, "seed", 0, "Random seed for object selection; 0 picks one")

	_ = exerciseCmd.MarkFlagRequired("version")
}

// exerciseName accepts an exercise number or function name.
func exerciseName(arg string) (string, error) {
	if i, err := strconv.Atoi(arg); err == nil {
		if i < 0 || i >= len(exercise.Names) {
			return "", fmt.Errorf("exercise %d out of range 0-%d", i, len(exercise.Names)-1)
		}
		return exercise.Names[i], nil
	}
	if slices.Contains(exercise.Names, arg) {
		return arg, nil
	}
	return "", fmt.Errorf("unknown exercise %q (want one of %s)", arg, strings.Join(exercise.Names, ", "))
}

func runExercise(cmd *cobra.Command, args []string) error {
	name, err := exerciseName(args[0])
	if err != nil {
		return err
	}
	mode, err := outputMode()
	if err != nil {
		return err
	}
	sink, err := newRunSink(name)
	if err != nil {
		return err
	}
	defer sink.Close()

	runner := &exercise.Runner{
		Rules:          ruleOptions(),
		EmptyValues:    cfg.EmptyValueSet(),
		FuzzyThreshold: cfg.FuzzyThreshold,
	}
	if exerciseFlags.seed != 0 {
		runner.Rand = rand.New(rand.NewPCG(exerciseFlags.seed, exerciseFlags.seed))
	}
	ctx := cmd.Context()
	fc := exercise.NewFileContext(exerciseFlags.versionPath, sink)
	out := cmd.OutOrStdout()
	tabular := mode != format.JSON
	reported := false

	switch name {
	case exercise.NameCommentRandom:
		if _, err := runner.CommentRandom(ctx, fc, exercise.CommentRandomInputs{CommentPhrase: exerciseFlags.phrase}); err != nil {
			return err
		}
	case exercise.NameCommentMany:
		in := exercise.CommentManyInputs{CommentPhrase: exerciseFlags.phrase, NumberOfElements: exerciseFlags.count}
		if _, err := runner.CommentMany(ctx, fc, in); err != nil {
			return err
		}
	case exercise.NameValidateProperty:
		in := exercise.ValidatePropertyInputs{Category: exerciseFlags.category, Property: exerciseFlags.property}
		pc, err := runner.ValidateProperty(ctx, fc, in)
		if err != nil {
			return err
		}
		if tabular {
			fmt.Fprint(out, format.PropertyCheck(pc, mode))
			reported = true
		}
	case exercise.NameApplyRules:
		report, err := runner.ApplyRules(ctx, fc, exercise.ApplyRulesInputs{RulesPath: exerciseFlags.rulesPath})
		if err != nil {
			return err
		}
		if report != nil && tabular {
			fmt.Fprint(out, format.Report(report, mode))
			reported = true
		}
	}

	if !reported {
		if err := printEntries(out, sink.mem, mode); err != nil {
			return err
		}
	}
	return sink.finish(out)
}

// printEntries shows the annotations and final status a function recorded.
func printEntries(out io.Writer, mem *annotate.MemorySink, mode format.Mode) error {
	status, msg := mem.Status()
	entries := mem.Entries()
	if mode == format.JSON {
		return writeJSON(out, struct {
			Status      string           `json:"status"`
			Message     string           `json:"message"`
			Annotations []annotate.Entry `json:"annotations"`
		}{status, msg, entries})
	}
	if len(entries) > 0 {
		tb := format.NewTable(mode)
		tb.Header("Level", "Category", "Objects", "Message")
		tb.Columns(format.ColumnConfig{Number: 3, MaxWidth: 50})
		for _, e := range entries {
			tb.Row(display.Severity(e.Level), e.Category, display.ObjectIDs(e.ObjectIDs, 10), e.Message)
		}
		fmt.Fprintf(out, "%s\n\n", tb.String())
	}
	fmt.Fprintf(out, "%s %s: %s\n", format.BoolMark(status == string(rules.StatusSucceeded)), display.Status(status), msg)
	return nil
}
