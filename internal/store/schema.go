package store

// schemaVersionV1 stored annotation object ids inline as a JSON array.
const schemaVersionV1 = 1

// schemaVersionV2 moves object ids into annotation_objects so runs can be
// queried by object.
const schemaVersionV2 = 2

// schemaV1 is kept for migration tests and detection.
var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	function    TEXT NOT NULL,
	status      TEXT NOT NULL,
	message     TEXT,
	created_at  TEXT NOT NULL,
	finished_at TEXT
);
CREATE TABLE IF NOT EXISTS annotations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	level      TEXT NOT NULL,
	category   TEXT NOT NULL,
	message    TEXT,
	object_ids TEXT NOT NULL DEFAULT '[]',
	metadata   TEXT,
	created_at TEXT NOT NULL
);
`

// schemaV2 is the fresh-install DDL.
var schemaV2 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	function    TEXT NOT NULL,
	status      TEXT NOT NULL,
	message     TEXT,
	created_at  TEXT NOT NULL,
	finished_at TEXT
);

CREATE TABLE IF NOT EXISTS annotations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	level      TEXT NOT NULL,
	category   TEXT NOT NULL,
	message    TEXT,
	metadata   TEXT,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS annotation_objects (
	annotation_id INTEGER NOT NULL REFERENCES annotations(id),
	position      INTEGER NOT NULL,
	object_id     TEXT NOT NULL,
	PRIMARY KEY (annotation_id, position)
);

CREATE INDEX IF NOT EXISTS idx_annotations_run ON annotations(run_id);
CREATE INDEX IF NOT EXISTS idx_annotation_objects_object ON annotation_objects(object_id);
`

// migrationV1ToV2 splits the inline object id arrays out into rows.
var migrationV1ToV2 = `
CREATE TABLE IF NOT EXISTS annotation_objects (
	annotation_id INTEGER NOT NULL REFERENCES annotations(id),
	position      INTEGER NOT NULL,
	object_id     TEXT NOT NULL,
	PRIMARY KEY (annotation_id, position)
);

INSERT INTO annotation_objects(annotation_id, position, object_id)
	SELECT a.id, CAST(j.key AS INTEGER), j.value
	FROM annotations a, json_each(a.object_ids) j;

ALTER TABLE annotations DROP COLUMN object_ids;

CREATE INDEX IF NOT EXISTS idx_annotations_run ON annotations(run_id);
CREATE INDEX IF NOT EXISTS idx_annotation_objects_object ON annotation_objects(object_id);

UPDATE schema_version SET version = 2;
`
