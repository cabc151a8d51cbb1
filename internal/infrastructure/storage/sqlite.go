package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sanjay-madala/intellicarrier-backend/internal/domain"
)

// Storage provides SQLite database access for trips, refill logs, tolerance
// rules, and fuel reports. It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveTrip saves or replaces a trip together with its stages
func (s *Storage) SaveTrip(trip *domain.Trip) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
	INSERT OR REPLACE INTO trips
	(id, vehicle_id, business_unit, starting_odometer, last_known_odometer, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		trip.ID,
		trip.VehicleID,
		trip.BusinessUnit,
		nullable(trip.StartingOdometer),
		nullable(trip.LastKnownOdometer),
		trip.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("save trip %s: %w", trip.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM trip_stages WHERE trip_id = ?`, trip.ID); err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, stage := range trip.Stages {
		_, err = tx.Exec(`
		INSERT INTO trip_stages
		(trip_id, sequence_number, kind, destination, standard_distance, odometer_start, odometer_end, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			trip.ID,
			stage.SequenceNumber,
			string(stage.Kind),
			stage.Destination,
			stage.StandardDistance,
			nullable(stage.OdometerStart),
			nullable(stage.OdometerEnd),
			string(stage.Status),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save trip %s stage %d: %w", trip.ID, stage.SequenceNumber, err)
		}
	}

	return tx.Commit()
}

// GetTrip retrieves a trip with its stages; nil when not found
func (s *Storage) GetTrip(id string) (*domain.Trip, error) {
	trip := &domain.Trip{}
	var startingOdo, lastKnownOdo sql.NullFloat64

	err := s.db.QueryRow(`
	SELECT id, vehicle_id, business_unit, starting_odometer, last_known_odometer, created_at
	FROM trips WHERE id = ?
	`, id).Scan(
		&trip.ID,
		&trip.VehicleID,
		&trip.BusinessUnit,
		&startingOdo,
		&lastKnownOdo,
		&trip.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	trip.StartingOdometer = fromNullable(startingOdo)
	trip.LastKnownOdometer = fromNullable(lastKnownOdo)

	stages, err := s.loadStages(id)
	if err != nil {
		return nil, err
	}
	trip.Stages = stages

	return trip, nil
}

// ListTrips returns the most recently created trips
func (s *Storage) ListTrips(limit int) ([]*domain.Trip, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
	SELECT id FROM trips ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trips := make([]*domain.Trip, 0, len(ids))
	for _, id := range ids {
		trip, err := s.GetTrip(id)
		if err != nil {
			return nil, err
		}
		if trip != nil {
			trips = append(trips, trip)
		}
	}
	return trips, nil
}

// UpdateStage persists one stage's readings and status
func (s *Storage) UpdateStage(tripID string, stage domain.TripStage) error {
	result, err := s.db.Exec(`
	UPDATE trip_stages
	SET odometer_start = ?, odometer_end = ?, status = ?
	WHERE trip_id = ? AND sequence_number = ?
	`,
		nullable(stage.OdometerStart),
		nullable(stage.OdometerEnd),
		string(stage.Status),
		tripID,
		stage.SequenceNumber,
	)
	if err != nil {
		return fmt.Errorf("update stage %d of trip %s: %w", stage.SequenceNumber, tripID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("update stage %d of trip %s: no such stage", stage.SequenceNumber, tripID)
	}
	return nil
}

func (s *Storage) loadStages(tripID string) ([]domain.TripStage, error) {
	rows, err := s.db.Query(`
	SELECT sequence_number, kind, destination, standard_distance, odometer_start, odometer_end, status
	FROM trip_stages WHERE trip_id = ? ORDER BY sequence_number
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []domain.TripStage
	for rows.Next() {
		var stage domain.TripStage
		var kind, status string
		var odoStart, odoEnd sql.NullFloat64

		err := rows.Scan(
			&stage.SequenceNumber,
			&kind,
			&stage.Destination,
			&stage.StandardDistance,
			&odoStart,
			&odoEnd,
			&status,
		)
		if err != nil {
			return nil, err
		}

		stage.Kind = domain.StageKind(kind)
		stage.Status = domain.StageStatus(status)
		stage.OdometerStart = fromNullable(odoStart)
		stage.OdometerEnd = fromNullable(odoEnd)
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

// SaveRefill records one fuel-dispensing event
func (s *Storage) SaveRefill(event *domain.RefillEvent) error {
	_, err := s.db.Exec(`
	INSERT OR REPLACE INTO refill_events
	(id, vehicle_id, odometer, liters, refilled_at, bill_number, fleet_card, station_code)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.VehicleID,
		event.OdometerAtRefill,
		event.LitersDispensed,
		event.RefilledAt,
		event.BillNumber,
		event.FleetCard,
		event.StationCode,
	)
	if err != nil {
		return fmt.Errorf("save refill %s: %w", event.ID, err)
	}
	return nil
}

// ListRefills returns a vehicle's refills ordered by odometer reading
func (s *Storage) ListRefills(vehicleID string) ([]domain.RefillEvent, error) {
	rows, err := s.db.Query(`
	SELECT id, vehicle_id, odometer, liters, refilled_at, bill_number, fleet_card, station_code
	FROM refill_events WHERE vehicle_id = ? ORDER BY odometer
	`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.RefillEvent
	for rows.Next() {
		var ev domain.RefillEvent
		err := rows.Scan(
			&ev.ID,
			&ev.VehicleID,
			&ev.OdometerAtRefill,
			&ev.LitersDispensed,
			&ev.RefilledAt,
			&ev.BillNumber,
			&ev.FleetCard,
			&ev.StationCode,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// GetTolerances returns the rules for a business unit; nil when no override exists
func (s *Storage) GetTolerances(businessUnit string) (*domain.ToleranceConfig, error) {
	cfg := &domain.ToleranceConfig{}
	var bypass int

	err := s.db.QueryRow(`
	SELECT business_unit, first_stage_gap_km, continuity_gap_km, standard_deviation_km, dummy_route_max_km, bypass
	FROM tolerance_configs WHERE business_unit = ?
	`, businessUnit).Scan(
		&cfg.BusinessUnit,
		&cfg.FirstStageGapKm,
		&cfg.ContinuityGapKm,
		&cfg.StandardDeviationKm,
		&cfg.DummyRouteMaxKm,
		&bypass,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cfg.Bypass = bypass != 0
	return cfg, nil
}

// SaveTolerances inserts or replaces a business unit's rules
func (s *Storage) SaveTolerances(cfg *domain.ToleranceConfig) error {
	bypass := 0
	if cfg.Bypass {
		bypass = 1
	}
	_, err := s.db.Exec(`
	INSERT OR REPLACE INTO tolerance_configs
	(business_unit, first_stage_gap_km, continuity_gap_km, standard_deviation_km, dummy_route_max_km, bypass)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		cfg.BusinessUnit,
		cfg.FirstStageGapKm,
		cfg.ContinuityGapKm,
		cfg.StandardDeviationKm,
		cfg.DummyRouteMaxKm,
		bypass,
	)
	if err != nil {
		return fmt.Errorf("save tolerances for %s: %w", cfg.BusinessUnit, err)
	}
	return nil
}

// SaveFuelReport persists a computed fuel report
func (s *Storage) SaveFuelReport(report *FuelReport) error {
	rowsJSON, _ := json.Marshal(report.Rows)
	summaryJSON, _ := json.Marshal(report.RefillSummary)

	estimated := 0
	if report.EstimatedStart {
		estimated = 1
	}

	_, err := s.db.Exec(`
	INSERT OR REPLACE INTO fuel_reports
	(id, trip_id, created_at, total_allocated, total_refilled, variance, estimated_start, rows_json, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.TripID,
		report.CreatedAt,
		report.TotalAllocated,
		report.TotalRefilled,
		report.Variance,
		estimated,
		string(rowsJSON),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("save fuel report %s: %w", report.ID, err)
	}
	return nil
}

// GetLatestFuelReport returns the newest report for a trip; nil when none exists
func (s *Storage) GetLatestFuelReport(tripID string) (*FuelReport, error) {
	reports, err := s.queryReports(`
	SELECT id, trip_id, created_at, total_allocated, total_refilled, variance, estimated_start, rows_json, summary_json
	FROM fuel_reports WHERE trip_id = ? ORDER BY created_at DESC, id LIMIT 1
	`, tripID)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, nil
	}
	return reports[0], nil
}

// ListFuelReports returns all reports for a trip, newest first
func (s *Storage) ListFuelReports(tripID string) ([]*FuelReport, error) {
	return s.queryReports(`
	SELECT id, trip_id, created_at, total_allocated, total_refilled, variance, estimated_start, rows_json, summary_json
	FROM fuel_reports WHERE trip_id = ? ORDER BY created_at DESC, id
	`, tripID)
}

func (s *Storage) queryReports(query string, args ...interface{}) ([]*FuelReport, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*FuelReport
	for rows.Next() {
		report := &FuelReport{}
		var estimated int

		err := rows.Scan(
			&report.ID,
			&report.TripID,
			&report.CreatedAt,
			&report.TotalAllocated,
			&report.TotalRefilled,
			&report.Variance,
			&estimated,
			&report.RowsJSON,
			&report.SummaryJSON,
		)
		if err != nil {
			return nil, err
		}

		report.EstimatedStart = estimated != 0

		// Unmarshal JSON fields (errors ignored as these are derived data)
		if report.RowsJSON != "" {
			_ = json.Unmarshal([]byte(report.RowsJSON), &report.Rows)
		}
		if report.SummaryJSON != "" {
			_ = json.Unmarshal([]byte(report.SummaryJSON), &report.RefillSummary)
		}

		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
