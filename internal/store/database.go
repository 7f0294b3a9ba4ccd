// Package store handles the SQLite archive database: the Patient -> Study
// -> Series -> Instance hierarchy with its denormalized matching columns
// and encoded attribute blobs.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Store is the archive database handle.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

var (
	// ErrNotFound indicates the requested row is not in the archive.
	ErrNotFound = errors.New("not found in archive")
)

// DB returns the underlying sql.DB for query execution.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Open opens or creates the archive database at path. The parent directory
// is created if needed.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, log: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	s.log.Debug().Str("path", path).Msg("archive opened")
	return s, nil
}

// memDBCounter distinguishes shared-cache in-memory databases so each
// OpenMemory call gets its own private archive.
var memDBCounter atomic.Int64

// OpenMemory opens a private in-memory archive, used by tests. A named
// shared-cache DSN is required: with a plain ":memory:" DSN every
// database/sql pool connection would open its own empty database.
func OpenMemory(logger zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:qidomem%d?mode=memory&cache=shared", memDBCounter.Add(1))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db, log: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CurrentDBVersion tracks schema revisions.
// v1: initial hierarchy schema
// v2: series_number/instance_number became INTEGER columns
const CurrentDBVersion = 2

// initialize creates the database schema.
func (s *Store) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS patient (
			pk INTEGER PRIMARY KEY,
			subject_id TEXT NOT NULL DEFAULT '',
			patient_id TEXT NOT NULL DEFAULT '',
			issuer_of_patient_id TEXT NOT NULL DEFAULT '',
			patient_name TEXT NOT NULL DEFAULT '',
			patient_birth_date TEXT NOT NULL DEFAULT '',
			patient_sex TEXT NOT NULL DEFAULT '',
			number_of_studies INTEGER NOT NULL DEFAULT 0,
			encoded_attributes BLOB,
			UNIQUE (patient_id, issuer_of_patient_id)
		);

		CREATE TABLE IF NOT EXISTS study (
			pk INTEGER PRIMARY KEY,
			patient_fk INTEGER NOT NULL REFERENCES patient(pk) ON DELETE CASCADE,
			session_id TEXT NOT NULL DEFAULT '',
			study_instance_uid TEXT NOT NULL UNIQUE,
			study_id TEXT NOT NULL DEFAULT '',
			study_date TEXT NOT NULL DEFAULT '',
			study_time TEXT NOT NULL DEFAULT '',
			accession_number TEXT NOT NULL DEFAULT '',
			study_description TEXT NOT NULL DEFAULT '',
			number_of_study_related_instances INTEGER NOT NULL DEFAULT 0,
			number_of_study_related_series INTEGER NOT NULL DEFAULT 0,
			modalities_in_study TEXT NOT NULL DEFAULT '',
			sop_classes_in_study TEXT NOT NULL DEFAULT '',
			encoded_attributes BLOB
		);

		CREATE TABLE IF NOT EXISTS series (
			pk INTEGER PRIMARY KEY,
			study_fk INTEGER NOT NULL REFERENCES study(pk) ON DELETE CASCADE,
			scan_id TEXT NOT NULL DEFAULT '',
			series_instance_uid TEXT NOT NULL UNIQUE,
			series_number INTEGER,
			modality TEXT NOT NULL DEFAULT '',
			body_part_examined TEXT NOT NULL DEFAULT '',
			laterality TEXT NOT NULL DEFAULT '',
			series_description TEXT NOT NULL DEFAULT '',
			station_name TEXT NOT NULL DEFAULT '',
			institution_name TEXT NOT NULL DEFAULT '',
			institutional_department_name TEXT NOT NULL DEFAULT '',
			performed_procedure_step_start_date TEXT NOT NULL DEFAULT '',
			performed_procedure_step_start_time TEXT NOT NULL DEFAULT '',
			number_of_series_related_instances INTEGER NOT NULL DEFAULT 0,
			available_transfer_syntax_uid TEXT NOT NULL DEFAULT '',
			sop_class_uid TEXT NOT NULL DEFAULT '',
			sop_classes_in_series TEXT NOT NULL DEFAULT '',
			encoded_attributes BLOB
		);

		CREATE TABLE IF NOT EXISTS instance (
			pk INTEGER PRIMARY KEY,
			series_fk INTEGER NOT NULL REFERENCES series(pk) ON DELETE CASCADE,
			sop_instance_uid TEXT NOT NULL UNIQUE,
			sop_class_uid TEXT NOT NULL DEFAULT '',
			instance_number INTEGER,
			content_date TEXT NOT NULL DEFAULT '',
			content_time TEXT NOT NULL DEFAULT '',
			encoded_attributes BLOB
		);

		CREATE INDEX IF NOT EXISTS idx_patient_name ON patient(patient_name);
		CREATE INDEX IF NOT EXISTS idx_study_patient ON study(patient_fk);
		CREATE INDEX IF NOT EXISTS idx_study_date ON study(study_date);
		CREATE INDEX IF NOT EXISTS idx_study_session ON study(session_id);
		CREATE INDEX IF NOT EXISTS idx_series_study ON series(study_fk);
		CREATE INDEX IF NOT EXISTS idx_series_modality ON series(modality);
		CREATE INDEX IF NOT EXISTS idx_instance_series ON instance(series_fk);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", CurrentDBVersion))
	if err != nil {
		return fmt.Errorf("failed to set database version: %w", err)
	}
	return nil
}

// Stats summarizes the archive contents.
type Stats struct {
	Patients  int64
	Studies   int64
	Series    int64
	Instances int64
}

// Stats counts the rows at every level of the hierarchy.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	row := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM patient),
			(SELECT COUNT(*) FROM study),
			(SELECT COUNT(*) FROM series),
			(SELECT COUNT(*) FROM instance)`)
	if err := row.Scan(&st.Patients, &st.Studies, &st.Series, &st.Instances); err != nil {
		return Stats{}, fmt.Errorf("archive stats: %w", err)
	}
	return st, nil
}
