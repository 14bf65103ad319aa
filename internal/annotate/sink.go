// Package annotate delivers check results to wherever annotations are
// recorded: an in-memory recorder or the run store.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"modelcheck/internal/store"
)

// ErrRunFinished is returned when a sink is used after its run was marked.
var ErrRunFinished = errors.New("annotate: run already finished")

// Annotation is a message attached to a set of objects.
type Annotation struct {
	Category  string         `json:"category"`
	ObjectIDs []string       `json:"object_ids"`
	Message   string         `json:"message,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Sink receives annotations and the final run status.
type Sink interface {
	AttachError(ctx context.Context, a Annotation) error
	AttachWarning(ctx context.Context, a Annotation) error
	AttachInfo(ctx context.Context, a Annotation) error
	MarkRunSucceeded(ctx context.Context, msg string) error
	MarkRunFailed(ctx context.Context, msg string) error
}

// Entry is one annotation recorded by a MemorySink.
type Entry struct {
	Level string `json:"level"`
	Annotation
}

// MemorySink records everything in memory. Safe for concurrent use.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
	status  string
	message string
}

var _ Sink = (*MemorySink)(nil)

func (s *MemorySink) attach(level string, a Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != "" {
		return ErrRunFinished
	}
	a.ObjectIDs = append([]string(nil), a.ObjectIDs...)
	s.entries = append(s.entries, Entry{Level: level, Annotation: a})
	return nil
}

func (s *MemorySink) mark(status, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != "" {
		return ErrRunFinished
	}
	s.status, s.message = status, msg
	return nil
}

func (s *MemorySink) AttachError(_ context.Context, a Annotation) error {
	return s.attach(store.LevelError, a)
}

func (s *MemorySink) AttachWarning(_ context.Context, a Annotation) error {
	return s.attach(store.LevelWarning, a)
}

func (s *MemorySink) AttachInfo(_ context.Context, a Annotation) error {
	return s.attach(store.LevelInfo, a)
}

func (s *MemorySink) MarkRunSucceeded(_ context.Context, msg string) error {
	return s.mark(store.RunSucceeded, msg)
}

func (s *MemorySink) MarkRunFailed(_ context.Context, msg string) error {
	return s.mark(store.RunFailed, msg)
}

// Entries returns a copy of the recorded annotations in attach order.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Level returns the recorded annotations of one level.
func (s *MemorySink) Level(level string) []Entry {
	var out []Entry
	for _, e := range s.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Status returns the run status ("" while running) and its message.
func (s *MemorySink) Status() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.message
}

// StoreSink writes annotations and the final status to a store run.
type StoreSink struct {
	store store.Store
	run   *store.Run
}

var _ Sink = (*StoreSink)(nil)

// NewStoreSink opens a new run for function in st.
func NewStoreSink(st store.Store, function string) (*StoreSink, error) {
	run, err := st.CreateRun(function)
	if err != nil {
		return nil, fmt.Errorf("annotate: create run %q: %w", function, err)
	}
	return &StoreSink{store: st, run: run}, nil
}

// RunID is the id of the run this sink writes to.
func (s *StoreSink) RunID() string { return s.run.ID }

func (s *StoreSink) attach(ctx context.Context, level string, a Annotation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.store.AddAnnotation(&store.Annotation{
		RunID:     s.run.ID,
		Level:     level,
		Category:  a.Category,
		Message:   a.Message,
		ObjectIDs: a.ObjectIDs,
		Metadata:  a.Metadata,
	})
	if err != nil {
		return fmt.Errorf("annotate: %s %q: %w", level, a.Category, err)
	}
	return nil
}

func (s *StoreSink) finish(ctx context.Context, status, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.FinishRun(s.run.ID, status, msg); err != nil {
		return fmt.Errorf("annotate: mark run %s: %w", status, err)
	}
	return nil
}

func (s *StoreSink) AttachError(ctx context.Context, a Annotation) error {
	return s.attach(ctx, store.LevelError, a)
}

func (s *StoreSink) AttachWarning(ctx context.Context, a Annotation) error {
	return s.attach(ctx, store.LevelWarning, a)
}

func (s *StoreSink) AttachInfo(ctx context.Context, a Annotation) error {
	return s.attach(ctx, store.LevelInfo, a)
}

func (s *StoreSink) MarkRunSucceeded(ctx context.Context, msg string) error {
	return s.finish(ctx, store.RunSucceeded, msg)
}

func (s *StoreSink) MarkRunFailed(ctx context.Context, msg string) error {
	return s.finish(ctx, store.RunFailed, msg)
}

// Tee fans every call out to all sinks, stopping at the first error.
func Tee(sinks ...Sink) Sink { return tee(sinks) }

type tee []Sink

func (t tee) each(fn func(Sink) error) error {
	for _, s := range t {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) AttachError(ctx context.Context, a Annotation) error {
	return t.each(func(s Sink) error { return s.AttachError(ctx, a) })
}

func (t tee) AttachWarning(ctx context.Context, a Annotation) error {
	return t.each(func(s Sink) error { return s.AttachWarning(ctx, a) })
}

func (t tee) AttachInfo(ctx context.Context, a Annotation) error {
	return t.each(func(s Sink) error { return s.AttachInfo(ctx, a) })
}

func (t tee) MarkRunSucceeded(ctx context.Context, msg string) error {
	return t.each(func(s Sink) error { return s.MarkRunSucceeded(ctx, msg) })
}

func (t tee) MarkRunFailed(ctx context.Context, msg string) error {
	return t.each(func(s Sink) error { return s.MarkRunFailed(ctx, msg) })
}
