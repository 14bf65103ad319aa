package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"modelcheck/internal/format"
	"modelcheck/internal/store"
)

var runsFlags struct {
	object string
	limit  int
}

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List stored runs, or the annotations of one run",
	Long: `Without arguments, list the runs in the store, newest first. With a run
id, show that run's annotations. --object lists the runs that annotated
the given object.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	f := runsCmd.Flags()
	f.StringVar(&runsFlags.object, "object", "", "Only runs that annotated this object id")
	f.IntVar(&runsFlags.limit, "limit", 20, "Maximum runs to list (0 = all)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	mode, err := outputMode()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	if st == nil {
		return errors.New("no run store configured (--db or db_path)")
	}
	defer st.Close()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		run, err := st.GetRun(args[0])
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %q not found", args[0])
		}
		anns, err := st.ListAnnotations(run.ID)
		if err != nil {
			return err
		}
		if mode == format.JSON {
			return writeJSON(out, struct {
				Run         *store.Run          `json:"run"`
				Annotations []*store.Annotation `json:"annotations"`
			}{run, anns})
		}
		fmt.Fprint(out, format.Runs([]*store.Run{run}, mode))
		fmt.Fprintf(out, "\n\n%s\n", format.Annotations(anns, mode))
		return nil
	}

	runs, err := st.ListRuns()
	if err != nil {
		return err
	}
	if runsFlags.object != "" {
		ids, err := st.RunsForObject(runsFlags.object)
		if err != nil {
			return err
		}
		keep := make(map[string]bool, len(ids))
		for _, id := range ids {
			keep[id] = true
		}
		filtered := runs[:0]
		for _, r := range runs {
			if keep[r.ID] {
				filtered = append(filtered, r)
			}
		}
		runs = filtered
	}
	if runsFlags.limit > 0 && len(runs) > runsFlags.limit {
		runs = runs[:runsFlags.limit]
	}
	if mode == format.JSON {
		return writeJSON(out, runs)
	}
	fmt.Fprintln(out, format.Runs(runs, mode))
	return nil
}
