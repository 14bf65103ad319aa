package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(timeLayout) }

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = schemaVersionV2

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

var _ Store = (*SqlStore)(nil)

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		return s.freshInstall()
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		// schema_version exists but is empty: treat as v1.
		v = schemaVersionV1
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", v); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}

	switch v {
	case currentSchemaVersion:
		return nil
	case schemaVersionV1:
		return s.migrateV1ToV2()
	default:
		return fmt.Errorf("unknown schema version %d", v)
	}
}

func (s *SqlStore) freshInstall() error {
	if _, err := s.db.Exec(schemaV2); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// migrateV1ToV2 runs inside one transaction.
func (s *SqlStore) migrateV1ToV2() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(migrationV1ToV2); err != nil {
		return fmt.Errorf("v1 to v2 migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration tx: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

// CreateRun inserts a running run with a fresh UUID.
func (s *SqlStore) CreateRun(function string) (*Run, error) {
	if function == "" {
		return nil, errors.New("run function is empty")
	}
	r := &Run{
		ID:        uuid.NewString(),
		Function:  function,
		Status:    RunRunning,
		CreatedAt: nowUTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs(id, function, status, message, created_at, finished_at)
		 VALUES(?, ?, ?, NULL, ?, NULL)`,
		r.ID, r.Function, r.Status, r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return r, nil
}

func (s *SqlStore) FinishRun(runID, status, message string) error {
	if status != RunSucceeded && status != RunFailed {
		return fmt.Errorf("finish run %s: invalid status %q", runID, status)
	}
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, message = ?, finished_at = ? WHERE id = ?`,
		status, nilIfEmpty(message), nowUTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// AddAnnotation stores a and its object ids in one transaction.
func (s *SqlStore) AddAnnotation(a *Annotation) (int64, error) {
	if a == nil {
		return 0, errors.New("annotation is nil")
	}
	if a.CreatedAt == "" {
		a.CreatedAt = nowUTC()
	}
	var meta any
	if len(a.Metadata) > 0 {
		data, err := json.Marshal(a.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshal annotation metadata: %w", err)
		}
		meta = string(data)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin annotation tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(
		`INSERT INTO annotations(run_id, level, category, message, metadata, created_at)
		 VALUES(?, ?, ?, ?, ?, ?)`,
		a.RunID, a.Level, a.Category, nilIfEmpty(a.Message), meta, a.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert annotation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	for i, objID := range a.ObjectIDs {
		if _, err := tx.Exec(
			`INSERT INTO annotation_objects(annotation_id, position, object_id) VALUES(?, ?, ?)`,
			id, i, objID,
		); err != nil {
			return 0, fmt.Errorf("insert annotation object: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit annotation tx: %w", err)
	}
	a.ID = id
	return id, nil
}

func (s *SqlStore) GetRun(runID string) (*Run, error) {
	var r Run
	var msg, finished sql.NullString
	err := s.db.QueryRow(
		`SELECT id, function, status, message, created_at, finished_at
		 FROM runs WHERE id = ?`, runID,
	).Scan(&r.ID, &r.Function, &r.Status, &msg, &r.CreatedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	r.Message = nullStr(msg)
	r.FinishedAt = nullStr(finished)
	return &r, nil
}

func (s *SqlStore) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, function, status, message, created_at, finished_at
		 FROM runs ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var out []*Run
	for rows.Next() {
		var r Run
		var msg, finished sql.NullString
		if err := rows.Scan(&r.ID, &r.Function, &r.Status, &msg, &r.CreatedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Message = nullStr(msg)
		r.FinishedAt = nullStr(finished)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SqlStore) ListAnnotations(runID string) ([]*Annotation, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, level, category, message, metadata, created_at
		 FROM annotations WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	var out []*Annotation
	for rows.Next() {
		var a Annotation
		var msg, meta sql.NullString
		if err := rows.Scan(&a.ID, &a.RunID, &a.Level, &a.Category, &msg, &meta, &a.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		a.Message = nullStr(msg)
		if meta.Valid {
			if err := json.Unmarshal([]byte(meta.String), &a.Metadata); err != nil {
				rows.Close()
				return nil, fmt.Errorf("annotation %d metadata: %w", a.ID, err)
			}
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	rows.Close()

	for _, a := range out {
		ids, err := s.objectIDs(a.ID)
		if err != nil {
			return nil, err
		}
		a.ObjectIDs = ids
	}
	return out, nil
}

func (s *SqlStore) objectIDs(annotationID int64) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT object_id FROM annotation_objects WHERE annotation_id = ? ORDER BY position`,
		annotationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list annotation objects: %w", err)
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan annotation object: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RunsForObject returns the ids of runs that annotated objectID, newest
// first.
func (s *SqlStore) RunsForObject(objectID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT r.id, r.created_at FROM runs r
		 JOIN annotations a ON a.run_id = r.id
		 JOIN annotation_objects o ON o.annotation_id = a.id
		 WHERE o.object_id = ?
		 ORDER BY r.created_at DESC`, objectID,
	)
	if err != nil {
		return nil, fmt.Errorf("runs for object: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id, created string
		if err := rows.Scan(&id, &created); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
