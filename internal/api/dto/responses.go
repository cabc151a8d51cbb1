package dto

import (
	"github.com/sanjay-madala/intellicarrier-backend/internal/domain"
	"github.com/sanjay-madala/intellicarrier-backend/internal/mileage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// StageReportResponse is the verdict for one stage report. StageStatus
// reflects the stage's state after the report was processed: completed on a
// pass (including a bypassed pass), pending otherwise.
type StageReportResponse struct {
	TripID         string              `json:"trip_id"`
	SequenceNumber int                 `json:"sequence_number"`
	StageStatus    domain.StageStatus  `json:"stage_status"`
	Passed         bool                `json:"passed"`
	Bypassed       bool                `json:"bypassed"`
	Violations     []mileage.Violation `json:"violations"`
}

// NewStageReportResponse assembles the verdict payload for one report.
func NewStageReportResponse(tripID string, seq int, result *mileage.Result) StageReportResponse {
	status := domain.StagePending
	if result.Passed {
		status = domain.StageCompleted
	}
	return StageReportResponse{
		TripID:         tripID,
		SequenceNumber: seq,
		StageStatus:    status,
		Passed:         result.Passed,
		Bypassed:       result.Bypassed,
		Violations:     result.Violations,
	}
}

// TripListResponse wraps a trip listing.
type TripListResponse struct {
	Trips []*domain.Trip `json:"trips"`
	Count int            `json:"count"`
}

// RefillListResponse wraps a vehicle's refill log.
type RefillListResponse struct {
	VehicleID string               `json:"vehicle_id"`
	Refills   []domain.RefillEvent `json:"refills"`
	Count     int                  `json:"count"`
}
