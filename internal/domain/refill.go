package domain

import "time"

// RefillEvent is one fuel-dispensing record for a vehicle, independent of any
// single trip. OdometerAtRefill is the ordering key; everything besides the
// odometer reading and the dispensed volume is opaque metadata copied into
// allocation output unchanged.
type RefillEvent struct {
	ID               string    `json:"id,omitempty"`
	VehicleID        string    `json:"vehicle_id"`
	OdometerAtRefill float64   `json:"odometer_at_refill"`
	LitersDispensed  float64   `json:"liters_dispensed"`
	RefilledAt       time.Time `json:"refilled_at"`
	BillNumber       string    `json:"bill_number,omitempty"`
	FleetCard        string    `json:"fleet_card,omitempty"`
	StationCode      string    `json:"station_code,omitempty"`
}
