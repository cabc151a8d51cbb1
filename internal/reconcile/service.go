// Package reconcile orchestrates the mileage and fuel engines over the
// storage layer. It owns stage lifecycle: a stage is marked completed only
// after its readings pass validation, and completion is terminal.
package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sanjay-madala/intellicarrier-backend/internal/domain"
	"github.com/sanjay-madala/intellicarrier-backend/internal/fuel"
	"github.com/sanjay-madala/intellicarrier-backend/internal/infrastructure/storage"
	"github.com/sanjay-madala/intellicarrier-backend/internal/mileage"
)

var (
	ErrTripNotFound   = errors.New("trip not found")
	ErrStageNotFound  = errors.New("stage not found")
	ErrStageCompleted = errors.New("stage already completed")
	ErrReportNotFound = errors.New("fuel report not found")
)

// Service wires the validation and allocation engines to persistence.
type Service struct {
	repo            storage.Repository
	logger          *slog.Logger
	defaultBusiness string
}

func NewService(repo storage.Repository, logger *slog.Logger, defaultBusinessUnit string) *Service {
	if defaultBusinessUnit == "" {
		defaultBusinessUnit = "default"
	}
	return &Service{
		repo:            repo,
		logger:          logger,
		defaultBusiness: defaultBusinessUnit,
	}
}

// CreateTrip persists a new trip, filling in ID, business unit and stage
// status defaults.
func (s *Service) CreateTrip(trip *domain.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.BusinessUnit == "" {
		trip.BusinessUnit = s.defaultBusiness
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}
	if trip.LastKnownOdometer == nil && trip.StartingOdometer != nil {
		v := *trip.StartingOdometer
		trip.LastKnownOdometer = &v
	}
	for i := range trip.Stages {
		if trip.Stages[i].Status == "" {
			trip.Stages[i].Status = domain.StagePending
		}
	}

	if err := s.repo.SaveTrip(trip); err != nil {
		return fmt.Errorf("saving trip: %w", err)
	}

	s.logger.Info("trip created",
		"trip_id", trip.ID,
		"vehicle_id", trip.VehicleID,
		"business_unit", trip.BusinessUnit,
		"stages", len(trip.Stages))
	return nil
}

// GetTrip loads a trip or returns ErrTripNotFound.
func (s *Service) GetTrip(id string) (*domain.Trip, error) {
	trip, err := s.repo.GetTrip(id)
	if err != nil {
		return nil, fmt.Errorf("loading trip: %w", err)
	}
	if trip == nil {
		return nil, ErrTripNotFound
	}
	return trip, nil
}

// ListTrips returns stored trips, newest first.
func (s *Service) ListTrips(limit int) ([]*domain.Trip, error) {
	return s.repo.ListTrips(limit)
}

// RecordRefill persists a refill event, filling in ID and timestamp defaults.
func (s *Service) RecordRefill(event *domain.RefillEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.RefilledAt.IsZero() {
		event.RefilledAt = time.Now().UTC()
	}
	if err := s.repo.SaveRefill(event); err != nil {
		return fmt.Errorf("saving refill: %w", err)
	}

	s.logger.Info("refill recorded",
		"refill_id", event.ID,
		"vehicle_id", event.VehicleID,
		"odometer", event.OdometerAtRefill,
		"liters", event.LitersDispensed)
	return nil
}

// ListRefills returns a vehicle's refill events ordered by odometer.
func (s *Service) ListRefills(vehicleID string) ([]domain.RefillEvent, error) {
	return s.repo.ListRefills(vehicleID)
}

// ReportStage records a driver's odometer readings for one stage and runs
// the tolerance rules. On a pass (including a bypassed pass) the stage is
// marked completed and the trip's last known odometer advances to the
// stage's end reading. On a fail the readings are stored but the stage
// stays pending so the driver can re-report.
//
// bypass forces rule 005 on for this report regardless of the business
// unit's configuration.
func (s *Service) ReportStage(tripID string, sequenceNumber int, odometerStart, odometerEnd float64, bypass bool) (*mileage.Result, error) {
	trip, err := s.GetTrip(tripID)
	if err != nil {
		return nil, err
	}

	stage := trip.StageBySequence(sequenceNumber)
	if stage == nil {
		return nil, ErrStageNotFound
	}
	if stage.Status == domain.StageCompleted {
		return nil, ErrStageCompleted
	}

	cfg, err := s.TolerancesFor(trip.BusinessUnit)
	if err != nil {
		return nil, err
	}
	if bypass {
		cfg.Bypass = true
	}

	stage.OdometerStart = &odometerStart
	stage.OdometerEnd = &odometerEnd

	result := mileage.ValidateStage(*stage, trip.PreviousStage(sequenceNumber), trip.LastKnownOdometer, *cfg)

	if result.Passed {
		stage.Status = domain.StageCompleted
		trip.LastKnownOdometer = &odometerEnd
		if err := s.repo.SaveTrip(trip); err != nil {
			return nil, fmt.Errorf("saving stage result: %w", err)
		}
	} else {
		// Persist the rejected readings for audit, keep the stage pending.
		if err := s.repo.UpdateStage(tripID, *stage); err != nil {
			return nil, fmt.Errorf("saving stage readings: %w", err)
		}
	}

	s.logger.Info("stage reported",
		"trip_id", tripID,
		"sequence", sequenceNumber,
		"passed", result.Passed,
		"bypassed", result.Bypassed,
		"violations", len(result.Violations))
	return result, nil
}

// TolerancesFor resolves the tolerance config for a business unit, falling
// back to the default business unit's row and finally to the built-in
// rulebook defaults.
func (s *Service) TolerancesFor(businessUnit string) (*domain.ToleranceConfig, error) {
	if businessUnit == "" {
		businessUnit = s.defaultBusiness
	}

	cfg, err := s.repo.GetTolerances(businessUnit)
	if err != nil {
		return nil, fmt.Errorf("loading tolerances: %w", err)
	}
	if cfg != nil {
		return cfg, nil
	}

	if businessUnit != s.defaultBusiness {
		cfg, err = s.repo.GetTolerances(s.defaultBusiness)
		if err != nil {
			return nil, fmt.Errorf("loading default tolerances: %w", err)
		}
		if cfg != nil {
			return cfg, nil
		}
	}

	fallback := domain.DefaultTolerances()
	fallback.BusinessUnit = businessUnit
	return &fallback, nil
}

// SetTolerances stores a business unit's tolerance override.
func (s *Service) SetTolerances(cfg *domain.ToleranceConfig) error {
	if cfg.BusinessUnit == "" {
		cfg.BusinessUnit = s.defaultBusiness
	}
	if err := s.repo.SaveTolerances(cfg); err != nil {
		return fmt.Errorf("saving tolerances: %w", err)
	}
	s.logger.Info("tolerances updated", "business_unit", cfg.BusinessUnit, "bypass", cfg.Bypass)
	return nil
}

// BuildFuelReport runs the fuel allocator over a trip and the vehicle's
// refill log and persists the resulting report.
func (s *Service) BuildFuelReport(tripID string) (*storage.FuelReport, error) {
	trip, err := s.GetTrip(tripID)
	if err != nil {
		return nil, err
	}

	refills, err := s.repo.ListRefills(trip.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("loading refills: %w", err)
	}

	result := fuel.Allocate(*trip, refills)
	report := storage.NewFuelReport(uuid.New().String(), tripID, result, time.Now().UTC())

	if err := s.repo.SaveFuelReport(report); err != nil {
		return nil, fmt.Errorf("saving fuel report: %w", err)
	}

	s.logger.Info("fuel report built",
		"trip_id", tripID,
		"report_id", report.ID,
		"rows", len(report.Rows),
		"total_allocated", report.TotalAllocated,
		"total_refilled", report.TotalRefilled,
		"variance", report.Variance)
	return report, nil
}

// LatestFuelReport returns the most recent report for a trip or
// ErrReportNotFound.
func (s *Service) LatestFuelReport(tripID string) (*storage.FuelReport, error) {
	report, err := s.repo.GetLatestFuelReport(tripID)
	if err != nil {
		return nil, fmt.Errorf("loading fuel report: %w", err)
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// ListFuelReports returns all reports for a trip, newest first.
func (s *Service) ListFuelReports(tripID string) ([]*storage.FuelReport, error) {
	return s.repo.ListFuelReports(tripID)
}
