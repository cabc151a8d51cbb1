package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjay-madala/intellicarrier-backend/internal/domain"
	"github.com/sanjay-madala/intellicarrier-backend/internal/fuel"
)

func f(v float64) *float64 { return &v }

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStorage_SaveAndGetTrip(t *testing.T) {
	store := openTestStorage(t)

	trip := &domain.Trip{
		ID:                "trip-1",
		VehicleID:         "TRK-42",
		BusinessUnit:      "north",
		StartingOdometer:  f(12000),
		LastKnownOdometer: f(11990),
		CreatedAt:         time.Now().UTC().Truncate(time.Second),
		Stages: []domain.TripStage{
			{SequenceNumber: 1, Kind: domain.StageFirst, Destination: "Depot A", StandardDistance: 120, Status: domain.StagePending},
			{SequenceNumber: 2, Kind: domain.StageDelivery, Destination: "Customer B", StandardDistance: 80, Status: domain.StagePending},
		},
	}

	require.NoError(t, store.SaveTrip(trip))

	retrieved, err := store.GetTrip("trip-1")
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, "TRK-42", retrieved.VehicleID)
	assert.Equal(t, "north", retrieved.BusinessUnit)
	require.NotNil(t, retrieved.StartingOdometer)
	assert.Equal(t, 12000.0, *retrieved.StartingOdometer)
	require.Len(t, retrieved.Stages, 2)
	assert.Equal(t, domain.StageFirst, retrieved.Stages[0].Kind)
	assert.Equal(t, "Customer B", retrieved.Stages[1].Destination)
	assert.Nil(t, retrieved.Stages[0].OdometerStart)
}

func TestStorage_GetTrip_NotFound(t *testing.T) {
	store := openTestStorage(t)

	trip, err := store.GetTrip("missing")
	require.NoError(t, err)
	assert.Nil(t, trip)
}

func TestStorage_UpdateStage(t *testing.T) {
	store := openTestStorage(t)

	trip := &domain.Trip{
		ID:        "trip-1",
		VehicleID: "TRK-1",
		CreatedAt: time.Now().UTC(),
		Stages: []domain.TripStage{
			{SequenceNumber: 1, Kind: domain.StageFirst, StandardDistance: 100, Status: domain.StagePending},
		},
	}
	require.NoError(t, store.SaveTrip(trip))

	stage := trip.Stages[0]
	stage.OdometerStart = f(1000)
	stage.OdometerEnd = f(1100)
	stage.Status = domain.StageCompleted
	require.NoError(t, store.UpdateStage("trip-1", stage))

	retrieved, err := store.GetTrip("trip-1")
	require.NoError(t, err)
	require.NotNil(t, retrieved.Stages[0].OdometerEnd)
	assert.Equal(t, 1100.0, *retrieved.Stages[0].OdometerEnd)
	assert.Equal(t, domain.StageCompleted, retrieved.Stages[0].Status)
}

func TestStorage_UpdateStage_NoSuchStage(t *testing.T) {
	store := openTestStorage(t)

	err := store.UpdateStage("missing", domain.TripStage{SequenceNumber: 9})
	assert.Error(t, err)
}

func TestStorage_RefillsOrderedByOdometer(t *testing.T) {
	store := openTestStorage(t)

	events := []domain.RefillEvent{
		{ID: "r-2", VehicleID: "TRK-1", OdometerAtRefill: 1400, LitersDispensed: 80, RefilledAt: time.Now().UTC(), BillNumber: "B-2"},
		{ID: "r-1", VehicleID: "TRK-1", OdometerAtRefill: 1200, LitersDispensed: 60, RefilledAt: time.Now().UTC(), BillNumber: "B-1", FleetCard: "FC-9", StationCode: "ST-3"},
		{ID: "r-3", VehicleID: "TRK-OTHER", OdometerAtRefill: 500, LitersDispensed: 40, RefilledAt: time.Now().UTC()},
	}
	for i := range events {
		require.NoError(t, store.SaveRefill(&events[i]))
	}

	refills, err := store.ListRefills("TRK-1")
	require.NoError(t, err)
	require.Len(t, refills, 2)
	assert.Equal(t, "r-1", refills[0].ID)
	assert.Equal(t, "r-2", refills[1].ID)
	assert.Equal(t, "FC-9", refills[0].FleetCard)
	assert.Equal(t, "ST-3", refills[0].StationCode)
}

func TestStorage_TolerancesSeededDefault(t *testing.T) {
	store := openTestStorage(t)

	cfg, err := store.GetTolerances("default")
	require.NoError(t, err)
	require.NotNil(t, cfg, "migration seeds the default business unit")
	assert.Equal(t, 50.0, cfg.FirstStageGapKm)
	assert.Equal(t, 10.0, cfg.ContinuityGapKm)
	assert.Equal(t, 15.0, cfg.StandardDeviationKm)
	assert.Equal(t, 100.0, cfg.DummyRouteMaxKm)
	assert.False(t, cfg.Bypass)
}

func TestStorage_TolerancesUpsert(t *testing.T) {
	store := openTestStorage(t)

	cfg, err := store.GetTolerances("north")
	require.NoError(t, err)
	assert.Nil(t, cfg, "no override configured yet")

	override := &domain.ToleranceConfig{
		BusinessUnit:        "north",
		FirstStageGapKm:     30,
		ContinuityGapKm:     5,
		StandardDeviationKm: 10,
		DummyRouteMaxKm:     80,
		Bypass:              true,
	}
	require.NoError(t, store.SaveTolerances(override))

	saved, err := store.GetTolerances("north")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 30.0, saved.FirstStageGapKm)
	assert.True(t, saved.Bypass)
}

func TestStorage_FuelReportRoundTrip(t *testing.T) {
	store := openTestStorage(t)

	result := &fuel.Result{
		Rows: []fuel.AllocationRow{
			{StageLabel: "1.1", SequenceNumber: 1, OdometerFrom: 1000, OdometerTo: 1200, Distance: 200, Rate: 0.3, FuelUsage: 60},
			{StageLabel: "1.2", SequenceNumber: 1, OdometerFrom: 1200, OdometerTo: 1300, Distance: 100, Rate: 0.4, FuelUsage: 40},
		},
		RefillSummary: []fuel.RefillInterval{
			{RangeStart: 1000, RangeEnd: 1200, Liters: 60, Rate: 0.3},
			{RangeStart: 1200, RangeEnd: 1400, Liters: 80, Rate: 0.4},
		},
		TotalAllocated: 100,
		TotalRefilled:  140,
	}

	report := NewFuelReport("rep-1", "trip-1", result, time.Now().UTC().Truncate(time.Second))
	require.NoError(t, store.SaveFuelReport(report))

	latest, err := store.GetLatestFuelReport("trip-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "rep-1", latest.ID)
	assert.Equal(t, 100.0, latest.TotalAllocated)
	assert.Equal(t, 40.0, latest.Variance)
	require.Len(t, latest.Rows, 2)
	assert.Equal(t, "1.2", latest.Rows[1].StageLabel)
	require.Len(t, latest.RefillSummary, 2)
	assert.Equal(t, 0.4, latest.RefillSummary[1].Rate)
}

func TestStorage_LatestFuelReportWins(t *testing.T) {
	store := openTestStorage(t)

	base := time.Now().UTC().Truncate(time.Second)
	older := NewFuelReport("rep-old", "trip-1", &fuel.Result{TotalAllocated: 10}, base.Add(-time.Hour))
	newer := NewFuelReport("rep-new", "trip-1", &fuel.Result{TotalAllocated: 20}, base)

	require.NoError(t, store.SaveFuelReport(older))
	require.NoError(t, store.SaveFuelReport(newer))

	latest, err := store.GetLatestFuelReport("trip-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "rep-new", latest.ID)

	all, err := store.ListFuelReports("trip-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "rep-new", all[0].ID)
}
