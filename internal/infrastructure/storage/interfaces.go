package storage

import "github.com/sanjay-madala/intellicarrier-backend/internal/domain"

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	TripRepository
	RefillRepository
	ToleranceRepository
	ReportRepository
	Close() error
}

// TripRepository handles trip and stage persistence
type TripRepository interface {
	// SaveTrip saves or replaces a trip together with its stages
	SaveTrip(trip *domain.Trip) error

	// GetTrip retrieves a trip with its stages; nil when not found
	GetTrip(id string) (*domain.Trip, error)

	// ListTrips returns the most recently created trips
	ListTrips(limit int) ([]*domain.Trip, error)

	// UpdateStage persists one stage's readings and status
	UpdateStage(tripID string, stage domain.TripStage) error
}

// RefillRepository handles the vehicle refill log
type RefillRepository interface {
	// SaveRefill records one fuel-dispensing event
	SaveRefill(event *domain.RefillEvent) error

	// ListRefills returns a vehicle's refills ordered by odometer reading
	ListRefills(vehicleID string) ([]domain.RefillEvent, error)
}

// ToleranceRepository handles per-business-unit tolerance rules
type ToleranceRepository interface {
	// GetTolerances returns the rules for a business unit; nil when no
	// override exists (callers fall back to domain.DefaultTolerances)
	GetTolerances(businessUnit string) (*domain.ToleranceConfig, error)

	// SaveTolerances inserts or replaces a business unit's rules
	SaveTolerances(cfg *domain.ToleranceConfig) error
}

// ReportRepository handles persisted fuel-usage reports
type ReportRepository interface {
	// SaveFuelReport persists a computed fuel report
	SaveFuelReport(report *FuelReport) error

	// GetLatestFuelReport returns the newest report for a trip; nil when
	// none has been built yet
	GetLatestFuelReport(tripID string) (*FuelReport, error)

	// ListFuelReports returns all reports for a trip, newest first
	ListFuelReports(tripID string) ([]*FuelReport, error)
}
