package storage

import (
	"sort"

	"github.com/sanjay-madala/intellicarrier-backend/internal/domain"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	trips      map[string]*domain.Trip
	refills    map[string][]domain.RefillEvent // keyed by vehicle_id
	tolerances map[string]*domain.ToleranceConfig
	reports    map[string][]*FuelReport // keyed by trip_id

	// Hooks for test assertions
	SaveTripCalled       bool
	LastSavedTrip        *domain.Trip
	UpdateStageCalled    bool
	LastUpdatedStage     *domain.TripStage
	SaveRefillCalled     bool
	SaveReportCalled     bool
	LastSavedReport      *FuelReport
	SaveTolerancesCalled bool

	// Error injection for testing error paths
	SaveTripErr    error
	GetTripErr     error
	UpdateStageErr error
	SaveRefillErr  error
	ListRefillsErr error
	SaveReportErr  error
	GetReportErr   error
	TolerancesErr  error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		trips:      make(map[string]*domain.Trip),
		refills:    make(map[string][]domain.RefillEvent),
		tolerances: make(map[string]*domain.ToleranceConfig),
		reports:    make(map[string][]*FuelReport),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveTrip saves a trip to the in-memory map
func (m *MockRepository) SaveTrip(trip *domain.Trip) error {
	m.SaveTripCalled = true
	m.LastSavedTrip = trip
	if m.SaveTripErr != nil {
		return m.SaveTripErr
	}
	copied := *trip
	copied.Stages = append([]domain.TripStage{}, trip.Stages...)
	m.trips[trip.ID] = &copied
	return nil
}

// GetTrip retrieves a trip from the in-memory map
func (m *MockRepository) GetTrip(id string) (*domain.Trip, error) {
	if m.GetTripErr != nil {
		return nil, m.GetTripErr
	}
	trip, ok := m.trips[id]
	if !ok {
		return nil, nil
	}
	copied := *trip
	copied.Stages = append([]domain.TripStage{}, trip.Stages...)
	return &copied, nil
}

// ListTrips returns stored trips, newest first
func (m *MockRepository) ListTrips(limit int) ([]*domain.Trip, error) {
	if m.GetTripErr != nil {
		return nil, m.GetTripErr
	}
	if limit <= 0 {
		limit = 50
	}
	trips := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		trips = append(trips, t)
	}
	sort.Slice(trips, func(i, j int) bool {
		return trips[i].CreatedAt.After(trips[j].CreatedAt)
	})
	if len(trips) > limit {
		trips = trips[:limit]
	}
	return trips, nil
}

// UpdateStage persists one stage in the stored trip
func (m *MockRepository) UpdateStage(tripID string, stage domain.TripStage) error {
	m.UpdateStageCalled = true
	m.LastUpdatedStage = &stage
	if m.UpdateStageErr != nil {
		return m.UpdateStageErr
	}
	trip, ok := m.trips[tripID]
	if !ok {
		return nil
	}
	for i := range trip.Stages {
		if trip.Stages[i].SequenceNumber == stage.SequenceNumber {
			trip.Stages[i] = stage
			return nil
		}
	}
	return nil
}

// SaveRefill appends a refill event
func (m *MockRepository) SaveRefill(event *domain.RefillEvent) error {
	m.SaveRefillCalled = true
	if m.SaveRefillErr != nil {
		return m.SaveRefillErr
	}
	m.refills[event.VehicleID] = append(m.refills[event.VehicleID], *event)
	return nil
}

// ListRefills returns a vehicle's refills ordered by odometer
func (m *MockRepository) ListRefills(vehicleID string) ([]domain.RefillEvent, error) {
	if m.ListRefillsErr != nil {
		return nil, m.ListRefillsErr
	}
	events := append([]domain.RefillEvent{}, m.refills[vehicleID]...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OdometerAtRefill < events[j].OdometerAtRefill
	})
	return events, nil
}

// GetTolerances returns a stored tolerance config, nil when absent
func (m *MockRepository) GetTolerances(businessUnit string) (*domain.ToleranceConfig, error) {
	if m.TolerancesErr != nil {
		return nil, m.TolerancesErr
	}
	cfg, ok := m.tolerances[businessUnit]
	if !ok {
		return nil, nil
	}
	copied := *cfg
	return &copied, nil
}

// SaveTolerances stores a tolerance config
func (m *MockRepository) SaveTolerances(cfg *domain.ToleranceConfig) error {
	m.SaveTolerancesCalled = true
	if m.TolerancesErr != nil {
		return m.TolerancesErr
	}
	copied := *cfg
	m.tolerances[cfg.BusinessUnit] = &copied
	return nil
}

// SaveFuelReport stores a fuel report
func (m *MockRepository) SaveFuelReport(report *FuelReport) error {
	m.SaveReportCalled = true
	m.LastSavedReport = report
	if m.SaveReportErr != nil {
		return m.SaveReportErr
	}
	copied := *report
	m.reports[report.TripID] = append(m.reports[report.TripID], &copied)
	return nil
}

// GetLatestFuelReport returns the most recently stored report for a trip
func (m *MockRepository) GetLatestFuelReport(tripID string) (*FuelReport, error) {
	if m.GetReportErr != nil {
		return nil, m.GetReportErr
	}
	reports := m.reports[tripID]
	if len(reports) == 0 {
		return nil, nil
	}
	latest := reports[0]
	for _, r := range reports[1:] {
		if r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest, nil
}

// ListFuelReports returns all reports for a trip, newest first
func (m *MockRepository) ListFuelReports(tripID string) ([]*FuelReport, error) {
	if m.GetReportErr != nil {
		return nil, m.GetReportErr
	}
	reports := append([]*FuelReport{}, m.reports[tripID]...)
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}
