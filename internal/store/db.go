// Package store keeps the resolution history of build trees in SQLite.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// CurrentSchemaVersion is the schema version Open migrates to.
const CurrentSchemaVersion = 1

// migration upgrades the database from version-1 to version.
type migration struct {
	version int
	apply   func(tx *sql.Tx) error
}

var migrations = []migration{
	{version: 1, apply: applySchemaFile},
}

// DB is an open history database.
type DB struct {
	sqlDB *sql.DB
	path  string
}

// Open opens the history database at path, creating it and its parent
// directory when missing, and brings the schema up to date.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{sqlDB: sqlDB, path: path}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", path, err)
	}
	return db, nil
}

func dsn(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func (db *DB) Close() error {
	return db.sqlDB.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// inTx runs fn in a transaction and commits when it returns nil.
func (db *DB) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.sqlDB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (db *DB) migrate() error {
	version, err := db.schemaVersion()
	if err != nil {
		return err
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, CurrentSchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		err := db.inTx(func(tx *sql.Tx) error {
			if err := m.apply(tx); err != nil {
				return fmt.Errorf("schema version %d: %w", m.version, err)
			}
			_, err := tx.Exec(
				"INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
				m.version, formatTime(time.Now()),
			)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func applySchemaFile(tx *sql.Tx) error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = tx.Exec(string(schema))
	return err
}

// schemaVersion returns 0 for a fresh database.
func (db *DB) schemaVersion() (int, error) {
	var version sql.NullInt64
	err := db.sqlDB.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version)
	if err != nil {
		var tables int
		if qerr := db.sqlDB.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
		).Scan(&tables); qerr == nil && tables == 0 {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}

// DBStats summarizes the history database.
type DBStats struct {
	WorkspaceCount  int64 `json:"workspaces"`
	ResolutionCount int64 `json:"resolutions"`
	SizeBytes       int64 `json:"size_bytes"`
}

func (db *DB) Stats() (*DBStats, error) {
	stats := &DBStats{}
	err := db.sqlDB.QueryRow(`
		SELECT (SELECT COUNT(*) FROM workspaces), (SELECT COUNT(*) FROM resolutions)
	`).Scan(&stats.WorkspaceCount, &stats.ResolutionCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}
	if info, err := os.Stat(db.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}
