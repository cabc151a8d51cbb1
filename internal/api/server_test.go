package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjay-madala/intellicarrier-backend/internal/api"
	"github.com/sanjay-madala/intellicarrier-backend/internal/api/dto"
	"github.com/sanjay-madala/intellicarrier-backend/internal/domain"
	"github.com/sanjay-madala/intellicarrier-backend/internal/infrastructure/storage"
	"github.com/sanjay-madala/intellicarrier-backend/internal/reconcile"
)

func newTestServer(t *testing.T) (*api.Server, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	logger := slog.New(slog.DiscardHandler)
	service := reconcile.NewService(repo, logger, "default")
	server := api.NewServer(api.DefaultConfig(), service, logger)
	return server, repo
}

func doJSON(t *testing.T, server *api.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func seedTrip(t *testing.T, repo *storage.MockRepository) {
	t.Helper()
	start := 1000.0
	require.NoError(t, repo.SaveTrip(&domain.Trip{
		ID:                "trip-1",
		VehicleID:         "TRK-1",
		BusinessUnit:      "default",
		StartingOdometer:  &start,
		LastKnownOdometer: &start,
		Stages: []domain.TripStage{
			{SequenceNumber: 1, Kind: domain.StageFirst, StandardDistance: 200, Status: domain.StagePending},
			{SequenceNumber: 2, Kind: domain.StageDelivery, StandardDistance: 100, Status: domain.StagePending},
		},
	}))
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "healthy", response.Status)
}

func TestServer_TripsEndpoints(t *testing.T) {
	t.Run("POST /api/trips creates a trip", func(t *testing.T) {
		server, repo := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/trips", dto.CreateTripRequest{
			VehicleID: "TRK-7",
			Stages: []dto.TripStageRequest{
				{SequenceNumber: 1, Kind: "first", StandardDistance: 150},
				{SequenceNumber: 2, Kind: "last", StandardDistance: 150},
			},
		})

		assert.Equal(t, http.StatusCreated, rec.Code)

		var trip domain.Trip
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&trip))
		assert.NotEmpty(t, trip.ID)
		assert.Equal(t, "default", trip.BusinessUnit)
		assert.True(t, repo.SaveTripCalled)
	})

	t.Run("POST /api/trips rejects duplicate sequence numbers", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/trips", dto.CreateTripRequest{
			VehicleID: "TRK-7",
			Stages: []dto.TripStageRequest{
				{SequenceNumber: 1, StandardDistance: 100},
				{SequenceNumber: 1, StandardDistance: 100},
			},
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GET /api/trips/:id returns 404 for missing trip", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodGet, "/api/trips/missing", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodeNotFound, apiErr.Code)
	})

	t.Run("GET /api/trips lists trips", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedTrip(t, repo)

		rec := doJSON(t, server, http.MethodGet, "/api/trips", nil)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.TripListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.Count)
	})
}

func TestServer_StageReporting(t *testing.T) {
	t.Run("passing report completes the stage", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedTrip(t, repo)

		rec := doJSON(t, server, http.MethodPost, "/api/trips/trip-1/stages/1/report", map[string]any{
			"odometer_start": 1010,
			"odometer_end":   1210,
		})

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.StageReportResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.True(t, response.Passed)
		assert.Equal(t, domain.StageCompleted, response.StageStatus)
		assert.Empty(t, response.Violations)
	})

	t.Run("failing report returns violations with 200", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedTrip(t, repo)

		rec := doJSON(t, server, http.MethodPost, "/api/trips/trip-1/stages/1/report", map[string]any{
			"odometer_start": 1100,
			"odometer_end":   1300,
		})

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.StageReportResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.False(t, response.Passed)
		assert.Equal(t, domain.StagePending, response.StageStatus)
		require.Len(t, response.Violations, 1)
		assert.Equal(t, domain.RuleFirstStageGap, response.Violations[0].Rule)
	})

	t.Run("bypass flag pushes a failing stage through", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedTrip(t, repo)

		rec := doJSON(t, server, http.MethodPost, "/api/trips/trip-1/stages/1/report", map[string]any{
			"odometer_start": 1100,
			"odometer_end":   1300,
			"bypass":         true,
		})

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.StageReportResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.True(t, response.Passed)
		assert.True(t, response.Bypassed)
	})

	t.Run("reporting a completed stage returns 409", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedTrip(t, repo)

		rec := doJSON(t, server, http.MethodPost, "/api/trips/trip-1/stages/1/report", map[string]any{
			"odometer_start": 1010,
			"odometer_end":   1210,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, server, http.MethodPost, "/api/trips/trip-1/stages/1/report", map[string]any{
			"odometer_start": 1010,
			"odometer_end":   1210,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing readings return 400", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedTrip(t, repo)

		rec := doJSON(t, server, http.MethodPost, "/api/trips/trip-1/stages/1/report", map[string]any{
			"odometer_start": 1010,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown stage returns 404", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedTrip(t, repo)

		rec := doJSON(t, server, http.MethodPost, "/api/trips/trip-1/stages/99/report", map[string]any{
			"odometer_start": 1010,
			"odometer_end":   1210,
		})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_RefillsEndpoints(t *testing.T) {
	t.Run("POST /api/refills records a refill", func(t *testing.T) {
		server, repo := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/refills", dto.RecordRefillRequest{
			VehicleID:        "TRK-1",
			OdometerAtRefill: 1200,
			LitersDispensed:  60,
			BillNumber:       "B-100",
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, repo.SaveRefillCalled)

		var event domain.RefillEvent
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&event))
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.RefilledAt.IsZero())
	})

	t.Run("POST /api/refills rejects non-positive liters", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/refills", map[string]any{
			"vehicle_id":         "TRK-1",
			"odometer_at_refill": 1200,
			"liters_dispensed":   -5,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GET /api/vehicles/:id/refills lists in odometer order", func(t *testing.T) {
		server, repo := newTestServer(t)
		require.NoError(t, repo.SaveRefill(&domain.RefillEvent{ID: "r-2", VehicleID: "TRK-1", OdometerAtRefill: 1400, LitersDispensed: 80}))
		require.NoError(t, repo.SaveRefill(&domain.RefillEvent{ID: "r-1", VehicleID: "TRK-1", OdometerAtRefill: 1200, LitersDispensed: 60}))

		rec := doJSON(t, server, http.MethodGet, "/api/vehicles/TRK-1/refills", nil)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RefillListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 2, response.Count)
		assert.Equal(t, "r-1", response.Refills[0].ID)
	})
}

func TestServer_FuelReportEndpoints(t *testing.T) {
	buildReport := func(t *testing.T, server *api.Server, repo *storage.MockRepository) {
		t.Helper()
		seedTrip(t, repo)
		require.NoError(t, repo.SaveRefill(&domain.RefillEvent{ID: "r-1", VehicleID: "TRK-1", OdometerAtRefill: 1200, LitersDispensed: 60}))
		require.NoError(t, repo.SaveRefill(&domain.RefillEvent{ID: "r-2", VehicleID: "TRK-1", OdometerAtRefill: 1300, LitersDispensed: 40}))

		rec := doJSON(t, server, http.MethodPost, "/api/trips/trip-1/fuel-report", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	t.Run("POST builds and persists a report", func(t *testing.T) {
		server, repo := newTestServer(t)
		buildReport(t, server, repo)

		require.NotNil(t, repo.LastSavedReport)
		assert.InDelta(t, 100.0, repo.LastSavedReport.TotalAllocated, 0.001)
	})

	t.Run("GET returns the latest report", func(t *testing.T) {
		server, repo := newTestServer(t)
		buildReport(t, server, repo)

		rec := doJSON(t, server, http.MethodGet, "/api/trips/trip-1/fuel-report", nil)

		assert.Equal(t, http.StatusOK, rec.Code)

		var report storage.FuelReport
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
		assert.Equal(t, "trip-1", report.TripID)
		assert.Len(t, report.Rows, 2)
	})

	t.Run("GET returns 404 when no report exists", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedTrip(t, repo)

		rec := doJSON(t, server, http.MethodGet, "/api/trips/trip-1/fuel-report", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("export streams the ledger as CSV", func(t *testing.T) {
		server, repo := newTestServer(t)
		buildReport(t, server, repo)

		rec := doJSON(t, server, http.MethodGet, "/api/trips/trip-1/fuel-report/export", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		// Header, two stage rows, totals line.
		require.Len(t, lines, 4)
		assert.True(t, strings.HasPrefix(lines[0], "stage,"))
		assert.True(t, strings.HasPrefix(lines[3], "total,"))
	})
}

func TestServer_TolerancesEndpoints(t *testing.T) {
	t.Run("GET falls back to rulebook defaults", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodGet, "/api/tolerances/north", nil)

		assert.Equal(t, http.StatusOK, rec.Code)

		var cfg domain.ToleranceConfig
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&cfg))
		assert.Equal(t, 50.0, cfg.FirstStageGapKm)
	})

	t.Run("PUT stores an override", func(t *testing.T) {
		server, repo := newTestServer(t)

		rec := doJSON(t, server, http.MethodPut, "/api/tolerances/north", dto.ToleranceRequest{
			FirstStageGapKm:     25,
			ContinuityGapKm:     5,
			StandardDeviationKm: 10,
			DummyRouteMaxKm:     80,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, repo.SaveTolerancesCalled)

		rec = doJSON(t, server, http.MethodGet, "/api/tolerances/north", nil)
		var cfg domain.ToleranceConfig
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&cfg))
		assert.Equal(t, 25.0, cfg.FirstStageGapKm)
	})

	t.Run("PUT rejects negative thresholds", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodPut, "/api/tolerances/north", dto.ToleranceRequest{
			FirstStageGapKm: -1,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_CORS(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
