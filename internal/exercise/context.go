package exercise

import (
	"context"
	"fmt"

	"modelcheck/internal/annotate"
	"modelcheck/internal/model"
)

// Context is what an automation function runs against: the model version
// that triggered it and a sink for its results.
type Context interface {
	annotate.Sink
	ReceiveVersion(ctx context.Context) (*model.Node, error)
}

// FileContext reads the version from a JSON file on disk.
type FileContext struct {
	annotate.Sink
	Path string
}

// NewFileContext returns a context reading path and reporting into sink.
func NewFileContext(path string, sink annotate.Sink) *FileContext {
	return &FileContext{Sink: sink, Path: path}
}

func (c *FileContext) ReceiveVersion(ctx context.Context) (*model.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := model.DecodeFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("exercise: receive version %q: %w", c.Path, err)
	}
	return root, nil
}

// StaticContext serves an already decoded version.
type StaticContext struct {
	annotate.Sink
	Root *model.Node
}

func (c *StaticContext) ReceiveVersion(ctx context.Context) (*model.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Root == nil {
		return nil, fmt.Errorf("exercise: no version loaded")
	}
	return c.Root, nil
}
