package main

import (
	"encoding/json"
	"fmt"
	"io"

	"modelcheck/internal/annotate"
	"modelcheck/internal/format"
	"modelcheck/internal/rules"
	"modelcheck/internal/store"
)

// openStore opens the configured run store. It returns nil when
// persistence is disabled.
func openStore() (*store.SqlStore, error) {
	if cfg.DBPath == "" {
		return nil, nil
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// runSink records into memory and, when persistence is on, into a new store
// run for function.
type runSink struct {
	annotate.Sink
	mem   *annotate.MemorySink
	st    *store.SqlStore
	runID string
}

func newRunSink(function string) (*runSink, error) {
	rs := &runSink{mem: &annotate.MemorySink{}}
	rs.Sink = rs.mem
	st, err := openStore()
	if err != nil || st == nil {
		return rs, err
	}
	ss, err := annotate.NewStoreSink(st, function)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	rs.st = st
	rs.runID = ss.RunID()
	rs.Sink = annotate.Tee(rs.mem, ss)
	return rs, nil
}

func (rs *runSink) Close() error {
	if rs.st == nil {
		return nil
	}
	return rs.st.Close()
}

// finish prints where the run was stored and maps a failed status to
// errRunFailed.
func (rs *runSink) finish(w io.Writer) error {
	status, _ := rs.mem.Status()
	if rs.runID != "" {
		fmt.Fprintf(w, "Run: %s (%s)\n", rs.runID, cfg.DBPath)
	}
	if status == store.RunFailed {
		return errRunFailed
	}
	return nil
}

func outputMode() (format.Mode, error) {
	return format.ParseMode(rootFlags.format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ruleOptions() rules.Options {
	return rules.Options{
		Parallel: cfg.Parallel,
		Default:  cfg.UnsetValue(),
	}
}
