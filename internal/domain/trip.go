// Package domain defines the data model shared by the mileage and fuel
// engines, the storage layer, and the API.
//
// Trips and refill logs are produced upstream (dispatch, driver report-in,
// fleet-card feeds) and passed in explicitly; nothing in this package or in
// the engines reads ambient state.
package domain

import "time"

// StageKind classifies a trip stage. It is informational only and does not
// affect mileage validation or fuel allocation.
type StageKind string

const (
	StageFirst    StageKind = "first"
	StageLoad     StageKind = "load"
	StageDelivery StageKind = "delivery"
	StageHub      StageKind = "hub"
	StageLast     StageKind = "last"
)

// StageStatus tracks a stage's lifecycle. A stage becomes completed only
// after its odometer readings pass validation (or validation is bypassed).
// Completed is terminal for the stage's mileage fields.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageCompleted StageStatus = "completed"
)

// TripStage is one leg of a multi-stop trip.
//
// OdometerStart and OdometerEnd are nil until the driver reports in for the
// stage. A StandardDistance of 0 is the "dummy route" sentinel: the stage has
// no fixed distance expectation and is checked against the dummy-route cap
// instead (tolerance rule 004).
type TripStage struct {
	SequenceNumber   int         `json:"sequence_number"`
	Kind             StageKind   `json:"kind"`
	Destination      string      `json:"destination,omitempty"`
	StandardDistance float64     `json:"standard_distance"`
	OdometerStart    *float64    `json:"odometer_start,omitempty"`
	OdometerEnd      *float64    `json:"odometer_end,omitempty"`
	Status           StageStatus `json:"status"`
}

// Reported returns true once both odometer readings have been captured.
func (s *TripStage) Reported() bool {
	return s.OdometerStart != nil && s.OdometerEnd != nil
}

// ActualDistance returns OdometerEnd - OdometerStart, or false if either
// reading is missing.
func (s *TripStage) ActualDistance() (float64, bool) {
	if !s.Reported() {
		return 0, false
	}
	return *s.OdometerEnd - *s.OdometerStart, true
}

// Trip is an ordered list of stages for one vehicle.
//
// StartingOdometer is the vehicle's trusted reading at the start of the trip
// (typically from fleet tracking). LastKnownOdometer is the reading used by
// rule 001 to sanity-check the first stage's reported start.
type Trip struct {
	ID                string      `json:"id"`
	VehicleID         string      `json:"vehicle_id"`
	BusinessUnit      string      `json:"business_unit"`
	StartingOdometer  *float64    `json:"starting_odometer,omitempty"`
	LastKnownOdometer *float64    `json:"last_known_odometer,omitempty"`
	Stages            []TripStage `json:"stages"`
	CreatedAt         time.Time   `json:"created_at"`
}

// StageBySequence returns the stage with the given sequence number, or nil.
func (t *Trip) StageBySequence(seq int) *TripStage {
	for i := range t.Stages {
		if t.Stages[i].SequenceNumber == seq {
			return &t.Stages[i]
		}
	}
	return nil
}

// PreviousStage returns the stage immediately preceding seq in sequence
// order, or nil if seq is the first stage.
func (t *Trip) PreviousStage(seq int) *TripStage {
	var prev *TripStage
	for i := range t.Stages {
		s := &t.Stages[i]
		if s.SequenceNumber < seq && (prev == nil || s.SequenceNumber > prev.SequenceNumber) {
			prev = s
		}
	}
	return prev
}
