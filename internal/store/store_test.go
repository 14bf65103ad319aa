package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQL(t *testing.T) Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func openMem(t *testing.T) Store {
	t.Helper()
	return NewMemStore()
}

func TestStore_RunLifecycle(t *testing.T) {
	for name, open := range map[string]func(*testing.T) Store{"sqlite": openSQL, "memory": openMem} {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			first, err := s.CreateRun("apply-rules")
			require.NoError(t, err)
			assert.Equal(t, RunRunning, first.Status)
			assert.Len(t, first.ID, 36)

			second, err := s.CreateRun("validate-property")
			require.NoError(t, err)
			assert.NotEqual(t, first.ID, second.ID)

			require.NoError(t, s.FinishRun(first.ID, RunFailed, "Validation failed"))

			got, err := s.GetRun(first.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, RunFailed, got.Status)
			assert.Equal(t, "Validation failed", got.Message)
			assert.NotEmpty(t, got.FinishedAt)

			missing, err := s.GetRun("no-such-run")
			require.NoError(t, err)
			assert.Nil(t, missing)

			runs, err := s.ListRuns()
			require.NoError(t, err)
			require.Len(t, runs, 2)
			assert.Equal(t, second.ID, runs[0].ID, "newest first")
			assert.Equal(t, first.ID, runs[1].ID)

			assert.Error(t, s.FinishRun("no-such-run", RunSucceeded, ""))
			assert.Error(t, s.FinishRun(second.ID, "done", ""))
			_, err = s.CreateRun("")
			assert.Error(t, err)
		})
	}
}

func TestStore_Annotations(t *testing.T) {
	for name, open := range map[string]func(*testing.T) Store{"sqlite": openSQL, "memory": openMem} {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			run, err := s.CreateRun("comment-many")
			require.NoError(t, err)

			id, err := s.AddAnnotation(&Annotation{
				RunID:     run.ID,
				Level:     LevelInfo,
				Category:  "Index Visualisation",
				ObjectIDs: []string{"b", "a", "c"},
				Metadata: map[string]any{
					"gradient": true,
					"gradientValues": map[string]any{
						"b": map[string]any{"gradientValue": 1},
					},
				},
			})
			require.NoError(t, err)
			assert.Positive(t, id)

			_, err = s.AddAnnotation(&Annotation{
				RunID:     run.ID,
				Level:     LevelError,
				Category:  "Rule 1: category",
				Message:   "category must be Walls",
				ObjectIDs: []string{"x"},
			})
			require.NoError(t, err)

			got, err := s.ListAnnotations(run.ID)
			require.NoError(t, err)
			require.Len(t, got, 2)

			assert.Equal(t, []string{"b", "a", "c"}, got[0].ObjectIDs, "object order preserved")
			assert.Equal(t, true, got[0].Metadata["gradient"])
			values := got[0].Metadata["gradientValues"].(map[string]any)
			assert.Equal(t, float64(1), values["b"].(map[string]any)["gradientValue"])
			assert.Empty(t, got[0].Message)

			assert.Equal(t, LevelError, got[1].Level)
			assert.Equal(t, "category must be Walls", got[1].Message)
			assert.Nil(t, got[1].Metadata)

			other, err := s.ListAnnotations("other-run")
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestSqlStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	run, err := s.CreateRun("apply-rules")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "apply-rules", got.Function)
}

func TestSqlStore_RunsForObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	r1, err := s.CreateRun("apply-rules")
	require.NoError(t, err)
	r2, err := s.CreateRun("apply-rules")
	require.NoError(t, err)
	for _, r := range []*Run{r1, r2} {
		_, err := s.AddAnnotation(&Annotation{RunID: r.ID, Level: LevelWarning, Category: "c", ObjectIDs: []string{"wall-1"}})
		require.NoError(t, err)
	}
	_, err = s.AddAnnotation(&Annotation{RunID: r1.ID, Level: LevelWarning, Category: "c", ObjectIDs: []string{"door-1"}})
	require.NoError(t, err)

	ids, err := s.RunsForObject("wall-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{r1.ID, r2.ID}, ids)

	ids, err = s.RunsForObject("door-1")
	require.NoError(t, err)
	assert.Equal(t, []string{r1.ID}, ids)
}

func TestSqlStore_MigratesV1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v1.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaV1)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersionV1)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO runs(id, function, status, created_at) VALUES('r1', 'apply-rules', 'failed', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO annotations(run_id, level, category, message, object_ids, created_at)
		VALUES('r1', 'error', 'Rule 1: height', 'too low', '["w1","w2"]', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var v int
	require.NoError(t, s.db.QueryRow("SELECT version FROM schema_version").Scan(&v))
	assert.Equal(t, schemaVersionV2, v)

	got, err := s.ListAnnotations("r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"w1", "w2"}, got[0].ObjectIDs)
	assert.Equal(t, "too low", got[0].Message)

	// New annotations land in the v2 tables.
	_, err = s.AddAnnotation(&Annotation{RunID: "r1", Level: LevelInfo, Category: "c", ObjectIDs: []string{"w3"}})
	require.NoError(t, err)
	got, err = s.ListAnnotations("r1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
