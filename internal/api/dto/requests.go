package dto

import (
	"fmt"
	"time"

	"github.com/sanjay-madala/intellicarrier-backend/internal/domain"
)

// CreateTripRequest is the payload for registering a new trip.
type CreateTripRequest struct {
	VehicleID        string             `json:"vehicle_id" binding:"required"`
	BusinessUnit     string             `json:"business_unit"`
	StartingOdometer *float64           `json:"starting_odometer"`
	Stages           []TripStageRequest `json:"stages" binding:"required"`
}

// TripStageRequest is one planned leg inside CreateTripRequest. A
// StandardDistance of 0 marks the stage as a dummy route.
type TripStageRequest struct {
	SequenceNumber   int     `json:"sequence_number" binding:"required"`
	Kind             string  `json:"kind"`
	Destination      string  `json:"destination"`
	StandardDistance float64 `json:"standard_distance"`
}

// Validate checks cross-field constraints gin's binding tags cannot express.
func (r *CreateTripRequest) Validate() error {
	if len(r.Stages) == 0 {
		return fmt.Errorf("at least one stage is required")
	}
	seen := make(map[int]bool, len(r.Stages))
	for _, s := range r.Stages {
		if s.SequenceNumber <= 0 {
			return fmt.Errorf("sequence numbers must be positive")
		}
		if seen[s.SequenceNumber] {
			return fmt.Errorf("duplicate sequence number %d", s.SequenceNumber)
		}
		seen[s.SequenceNumber] = true
		if s.StandardDistance < 0 {
			return fmt.Errorf("stage %d: standard distance cannot be negative", s.SequenceNumber)
		}
	}
	return nil
}

// ToTrip converts the request into a domain trip. IDs and timestamps are
// filled in by the service.
func (r *CreateTripRequest) ToTrip() *domain.Trip {
	trip := &domain.Trip{
		VehicleID:        r.VehicleID,
		BusinessUnit:     r.BusinessUnit,
		StartingOdometer: r.StartingOdometer,
		Stages:           make([]domain.TripStage, 0, len(r.Stages)),
	}
	for _, s := range r.Stages {
		trip.Stages = append(trip.Stages, domain.TripStage{
			SequenceNumber:   s.SequenceNumber,
			Kind:             domain.StageKind(s.Kind),
			Destination:      s.Destination,
			StandardDistance: s.StandardDistance,
			Status:           domain.StagePending,
		})
	}
	return trip
}

// ReportStageRequest carries a driver's odometer readings for one stage.
// Both readings are required; Bypass forces tolerance rule 005 on for this
// report only.
type ReportStageRequest struct {
	OdometerStart *float64 `json:"odometer_start" binding:"required"`
	OdometerEnd   *float64 `json:"odometer_end" binding:"required"`
	Bypass        bool     `json:"bypass"`
}

// RecordRefillRequest is the payload for logging a fuel refill.
type RecordRefillRequest struct {
	VehicleID        string    `json:"vehicle_id" binding:"required"`
	OdometerAtRefill float64   `json:"odometer_at_refill" binding:"required"`
	LitersDispensed  float64   `json:"liters_dispensed" binding:"required"`
	RefilledAt       time.Time `json:"refilled_at"`
	BillNumber       string    `json:"bill_number"`
	FleetCard        string    `json:"fleet_card"`
	StationCode      string    `json:"station_code"`
}

// ToRefillEvent converts the request into a domain refill event.
func (r *RecordRefillRequest) ToRefillEvent() *domain.RefillEvent {
	return &domain.RefillEvent{
		VehicleID:        r.VehicleID,
		OdometerAtRefill: r.OdometerAtRefill,
		LitersDispensed:  r.LitersDispensed,
		RefilledAt:       r.RefilledAt,
		BillNumber:       r.BillNumber,
		FleetCard:        r.FleetCard,
		StationCode:      r.StationCode,
	}
}

// ToleranceRequest is the payload for overriding a business unit's
// tolerance configuration.
type ToleranceRequest struct {
	FirstStageGapKm     float64 `json:"first_stage_gap_km"`
	ContinuityGapKm     float64 `json:"continuity_gap_km"`
	StandardDeviationKm float64 `json:"standard_deviation_km"`
	DummyRouteMaxKm     float64 `json:"dummy_route_max_km"`
	Bypass              bool    `json:"bypass"`
}

// Validate rejects negative thresholds.
func (r *ToleranceRequest) Validate() error {
	if r.FirstStageGapKm < 0 || r.ContinuityGapKm < 0 || r.StandardDeviationKm < 0 || r.DummyRouteMaxKm < 0 {
		return fmt.Errorf("tolerance thresholds cannot be negative")
	}
	return nil
}

// ToConfig converts the request into a domain tolerance config for the
// given business unit.
func (r *ToleranceRequest) ToConfig(businessUnit string) *domain.ToleranceConfig {
	return &domain.ToleranceConfig{
		BusinessUnit:        businessUnit,
		FirstStageGapKm:     r.FirstStageGapKm,
		ContinuityGapKm:     r.ContinuityGapKm,
		StandardDeviationKm: r.StandardDeviationKm,
		DummyRouteMaxKm:     r.DummyRouteMaxKm,
		Bypass:              r.Bypass,
	}
}
