package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_tolerance_configs",
		Up:      migration002AddToleranceConfigs,
	},
	{
		Version: 3,
		Name:    "add_fuel_reports",
		Up:      migration003AddFuelReports,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue // Already applied
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// migration001InitialSchema creates trips, trip_stages and refill_events
func migration001InitialSchema(tx *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS trips (
			id TEXT PRIMARY KEY,
			vehicle_id TEXT NOT NULL,
			business_unit TEXT NOT NULL DEFAULT 'default',
			starting_odometer REAL,
			last_known_odometer REAL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trip_stages (
			trip_id TEXT NOT NULL,
			sequence_number INTEGER NOT NULL,
			kind TEXT NOT NULL,
			destination TEXT NOT NULL DEFAULT '',
			standard_distance REAL NOT NULL DEFAULT 0,
			odometer_start REAL,
			odometer_end REAL,
			status TEXT NOT NULL DEFAULT 'pending',
			PRIMARY KEY (trip_id, sequence_number),
			FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS refill_events (
			id TEXT PRIMARY KEY,
			vehicle_id TEXT NOT NULL,
			odometer REAL NOT NULL,
			liters REAL NOT NULL,
			refilled_at TIMESTAMP NOT NULL,
			bill_number TEXT NOT NULL DEFAULT '',
			fleet_card TEXT NOT NULL DEFAULT '',
			station_code TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refill_events_vehicle ON refill_events(vehicle_id, odometer)`,
	}

	for _, q := range queries {
		if _, err := tx.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// migration002AddToleranceConfigs creates the tolerance table and seeds the
// rulebook defaults for the default business unit
func migration002AddToleranceConfigs(tx *sql.Tx) error {
	query := `
	CREATE TABLE IF NOT EXISTS tolerance_configs (
		business_unit TEXT PRIMARY KEY,
		first_stage_gap_km REAL NOT NULL,
		continuity_gap_km REAL NOT NULL,
		standard_deviation_km REAL NOT NULL,
		dummy_route_max_km REAL NOT NULL,
		bypass INTEGER NOT NULL DEFAULT 0
	)`
	if _, err := tx.Exec(query); err != nil {
		return err
	}

	_, err := tx.Exec(`
	INSERT OR IGNORE INTO tolerance_configs
	(business_unit, first_stage_gap_km, continuity_gap_km, standard_deviation_km, dummy_route_max_km, bypass)
	VALUES ('default', 50, 10, 15, 100, 0)
	`)
	return err
}

// migration003AddFuelReports creates the fuel_reports table
func migration003AddFuelReports(tx *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS fuel_reports (
			id TEXT PRIMARY KEY,
			trip_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			total_allocated REAL NOT NULL,
			total_refilled REAL NOT NULL,
			variance REAL NOT NULL,
			estimated_start INTEGER NOT NULL DEFAULT 0,
			rows_json TEXT NOT NULL DEFAULT '',
			summary_json TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fuel_reports_trip ON fuel_reports(trip_id, created_at)`,
	}

	for _, q := range queries {
		if _, err := tx.Exec(q); err != nil {
			return err
		}
	}
	return nil
}
