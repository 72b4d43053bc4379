// ABOUTME: Core SQLite store for partnergen run history.
// ABOUTME: Handles database initialization, migrations, and connection management.

package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Migration version constants
const (
	MigrationV1 = 1 // Initial schema with runs and pair_results tables
	MigrationV2 = 2 // Add gateway_calls table and lookup indexes
)

// CurrentSchemaVersion is the target version for the database schema
const CurrentSchemaVersion = MigrationV2

type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens (or creates) the history database at dbPath.
func New(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// A single writer; also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs all pending migrations
func (s *Store) migrate() error {
	if err := s.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := s.getCurrentMigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	s.logger.Debug("database schema version",
		zap.Int("current", currentVersion),
		zap.Int("target", CurrentSchemaVersion))

	if currentVersion < MigrationV1 {
		if err := s.migrateV1(); err != nil {
			return fmt.Errorf("migration v1 failed: %w", err)
		}
	}

	if currentVersion < MigrationV2 {
		if err := s.migrateV2(); err != nil {
			return fmt.Errorf("migration v2 failed: %w", err)
		}
	}

	return nil
}

// createMigrationsTable creates the schema_migrations tracking table
func (s *Store) createMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			description TEXT
		)
	`)
	return err
}

// getCurrentMigrationVersion retrieves the current schema version
func (s *Store) getCurrentMigrationVersion() (int, error) {
	var version int
	err := s.db.QueryRow(`
		SELECT COALESCE(MAX(version), 0) FROM schema_migrations
	`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// recordMigration records a completed migration
func (s *Store) recordMigration(version int, description string) error {
	_, err := s.db.Exec(`
		INSERT INTO schema_migrations (version, description)
		VALUES (?, ?)
	`, version, description)
	return err
}

// migrateV1 creates the runs and pair_results tables
func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		out_root TEXT NOT NULL,
		per_type INTEGER NOT NULL,
		cities INTEGER DEFAULT 0,
		pairs_written INTEGER DEFAULT 0,
		pairs_skipped INTEGER DEFAULT 0,
		rows_written INTEGER DEFAULT 0,
		failures INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS pair_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		city_id TEXT NOT NULL,
		partner_type TEXT NOT NULL,
		status TEXT NOT NULL,
		rows INTEGER DEFAULT 0,
		attempts INTEGER DEFAULT 0,
		path TEXT,
		duration_ms INTEGER,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pair_results_run ON pair_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_pair_results_timestamp ON pair_results(timestamp DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if err := s.recordMigration(MigrationV1, "Create runs and pair_results tables"); err != nil {
		return err
	}

	s.logger.Debug("applied migration", zap.Int("version", MigrationV1))
	return nil
}

// migrateV2 adds the gateway_calls table and lookup indexes
func (s *Store) migrateV2() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS gateway_calls (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			duration_ms INTEGER,
			response_bytes INTEGER,
			finish_reason TEXT,
			repaired INTEGER DEFAULT 0,
			error TEXT
		)`,

		// History listing filters by city and status together
		"CREATE INDEX IF NOT EXISTS idx_pair_results_city_status ON pair_results(city_id, status)",

		"CREATE INDEX IF NOT EXISTS idx_gateway_calls_run ON gateway_calls(run_id, timestamp DESC)",
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply statement: %w", err)
		}
	}

	if err := s.recordMigration(MigrationV2, "Add gateway_calls table and lookup indexes"); err != nil {
		return err
	}

	s.logger.Debug("applied migration", zap.Int("version", MigrationV2))
	return nil
}
