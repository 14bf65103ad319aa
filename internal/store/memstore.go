package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store for tests and one-shot CLI runs.
type MemStore struct {
	mu          sync.Mutex
	runs        map[string]*Run
	order       []string
	annotations map[string][]*Annotation
	nextID      int64
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		runs:        make(map[string]*Run),
		annotations: make(map[string][]*Annotation),
	}
}

func (s *MemStore) CreateRun(function string) (*Run, error) {
	if function == "" {
		return nil, errors.New("run function is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Run{
		ID:        uuid.NewString(),
		Function:  function,
		Status:    RunRunning,
		CreatedAt: nowUTC(),
	}
	s.runs[r.ID] = r
	s.order = append(s.order, r.ID)
	cp := *r
	return &cp, nil
}

func (s *MemStore) FinishRun(runID, status, message string) error {
	if status != RunSucceeded && status != RunFailed {
		return fmt.Errorf("finish run %s: invalid status %q", runID, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %s not found", runID)
	}
	r.Status = status
	r.Message = message
	r.FinishedAt = nowUTC()
	return nil
}

// AddAnnotation stores a copy of a. Metadata goes through a JSON round
// trip so readers see the same shapes SqlStore returns.
func (s *MemStore) AddAnnotation(a *Annotation) (int64, error) {
	if a == nil {
		return 0, errors.New("annotation is nil")
	}
	var meta map[string]any
	if len(a.Metadata) > 0 {
		data, err := json.Marshal(a.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshal annotation metadata: %w", err)
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			return 0, fmt.Errorf("unmarshal annotation metadata: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if a.CreatedAt == "" {
		a.CreatedAt = nowUTC()
	}
	a.ID = s.nextID
	cp := *a
	cp.ObjectIDs = append([]string{}, a.ObjectIDs...)
	cp.Metadata = meta
	s.annotations[a.RunID] = append(s.annotations[a.RunID], &cp)
	return a.ID, nil
}

func (s *MemStore) GetRun(runID string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *MemStore) ListRuns() ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		cp := *s.runs[s.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) ListAnnotations(runID string) ([]*Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.annotations[runID]
	out := make([]*Annotation, 0, len(src))
	for _, a := range src {
		cp := *a
		cp.ObjectIDs = append([]string{}, a.ObjectIDs...)
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) Close() error { return nil }
