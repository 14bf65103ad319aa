// modelcheck validates BIM model versions against property rules and records
// the outcome as runs with object-scoped annotations.
//
// Usage:
//
//	modelcheck evaluate --version <file> --rules <file> [--format ascii|markdown|json]
//	modelcheck check --version <file> --category <c> --property <p>
//	modelcheck exercise <0|1|2|3> --version <file> [...]
//	modelcheck runs [run-id]
//	modelcheck serve
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"modelcheck/internal/config"
	"modelcheck/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

// errRunFailed signals a completed run whose status is failed. The report
// has already been printed, so main only sets the exit code.
var errRunFailed = errors.New("run failed")

var rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	dbPath     string
	parallel   int
	format     string
}

// cfg is the effective configuration after flags are applied.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "modelcheck",
	Short: "Rule-based property validation for BIM model versions",
	Long: `modelcheck flattens a model version into its objects, checks their
properties against a rule file and reports which objects pass, fail, lack
the property or cannot be compared. Runs and their annotations are kept in
a local SQLite store.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.configPath, "config", config.DefaultPath, "Config file (YAML or JSON); missing file means defaults")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: text or json")
	f.StringVar(&rootFlags.dbPath, "db", "", "Run store path; empty string disables persistence (default from config)")
	f.IntVar(&rootFlags.parallel, "parallel", 0, "Rules evaluated concurrently (default from config)")
	f.StringVarP(&rootFlags.format, "format", "f", "ascii", "Output format: ascii, markdown, json")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(exerciseCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

// loadConfig reads the config file, applies flag overrides and sets up
// logging. Logs go to stderr so stdout carries only command output.
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.LoadOptional(rootFlags.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Log.Level = rootFlags.logLevel
	}
	if flags.Changed("log-format") {
		c.Log.Format = rootFlags.logFormat
	}
	if flags.Changed("db") {
		c.DBPath = rootFlags.dbPath
	}
	if flags.Changed("parallel") {
		c.Parallel = rootFlags.parallel
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	logging.Init(cfg.SlogLevel(), cfg.Log.Format, cmd.ErrOrStderr())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
