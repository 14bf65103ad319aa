// Package store persists automation runs and the annotations they attach to
// model objects.
package store

// DefaultDBPath is the default relative path for the SQLite DB.
// Open() creates the parent dir (.modelcheck) if needed.
const DefaultDBPath = ".modelcheck/runs.db"

// Run status values.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Annotation levels.
const (
	LevelError   = "error"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// Run is one execution of an automation function against one model version.
type Run struct {
	ID         string `json:"id"`
	Function   string `json:"function"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	CreatedAt  string `json:"created_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// Annotation is one message attached to a set of objects during a run.
type Annotation struct {
	ID        int64          `json:"id"`
	RunID     string         `json:"run_id"`
	Level     string         `json:"level"`
	Category  string         `json:"category"`
	Message   string         `json:"message,omitempty"`
	ObjectIDs []string       `json:"object_ids"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// Store is the persistence facade for runs and annotations. Implementations
// are SQLite (SqlStore) and in-memory (MemStore).
type Store interface {
	CreateRun(function string) (*Run, error)
	// FinishRun sets the final status and message of a running run.
	FinishRun(runID, status, message string) error
	AddAnnotation(a *Annotation) (int64, error)
	// GetRun returns nil, nil when the run does not exist.
	GetRun(runID string) (*Run, error)
	// ListRuns returns runs newest first.
	ListRuns() ([]*Run, error)
	// ListAnnotations returns a run's annotations in insertion order.
	ListAnnotations(runID string) ([]*Annotation, error)
	Close() error
}
