package storage

import (
	"time"

	"github.com/sanjay-madala/intellicarrier-backend/internal/fuel"
)

// FuelReport is a persisted allocation run for one trip. The computed rows
// and refill summary are stored as JSON columns; the scalar totals are kept
// as real columns so reports can be filtered without unmarshalling.
type FuelReport struct {
	ID             string    `json:"id"`
	TripID         string    `json:"trip_id"`
	CreatedAt      time.Time `json:"created_at"`
	TotalAllocated float64   `json:"total_allocated"`
	TotalRefilled  float64   `json:"total_refilled"`
	Variance       float64   `json:"variance"`
	EstimatedStart bool      `json:"estimated_start"`

	Rows          []fuel.AllocationRow  `json:"rows"`
	RefillSummary []fuel.RefillInterval `json:"refill_summary"`

	// For DB storage
	RowsJSON    string `json:"-"`
	SummaryJSON string `json:"-"`
}

// NewFuelReport builds a report record from an allocation result.
func NewFuelReport(id, tripID string, result *fuel.Result, at time.Time) *FuelReport {
	return &FuelReport{
		ID:             id,
		TripID:         tripID,
		CreatedAt:      at,
		TotalAllocated: result.TotalAllocated,
		TotalRefilled:  result.TotalRefilled,
		Variance:       result.Variance(),
		EstimatedStart: result.EstimatedStart,
		Rows:           result.Rows,
		RefillSummary:  result.RefillSummary,
	}
}

// Result reconstructs the allocation result held by this report.
func (r *FuelReport) Result() *fuel.Result {
	return &fuel.Result{
		Rows:           r.Rows,
		RefillSummary:  r.RefillSummary,
		TotalAllocated: r.TotalAllocated,
		TotalRefilled:  r.TotalRefilled,
		EstimatedStart: r.EstimatedStart,
	}
}
