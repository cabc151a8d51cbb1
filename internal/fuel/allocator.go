// Package fuel attributes metered fuel consumption to trip stages.
//
// The allocator treats the vehicle's refill history as ground truth: each
// refill defines an odometer interval with its own consumption rate
// (liters dispensed / distance covered since the previous refill). Stages are
// walked in sequence order and any stage whose odometer range crosses a
// refill boundary is split, so every emitted row carries the rate that was
// actually in effect over its sub-range.
package fuel

import (
	"fmt"
	"math"
	"sort"

	"github.com/sanjay-madala/intellicarrier-backend/internal/domain"
)

// fallbackStartOffsetKm is subtracted from the first refill's odometer
// reading when the trip carries no authoritative starting odometer. Callers
// should treat Result.EstimatedStart as a data-quality warning.
const fallbackStartOffsetKm = 200

// RefillInterval is one refill's odometer range with its computed
// consumption rate. Event carries the refill's opaque metadata unchanged.
type RefillInterval struct {
	RangeStart float64            `json:"range_start"`
	RangeEnd   float64            `json:"range_end"`
	Liters     float64            `json:"liters"`
	Rate       float64            `json:"rate"`
	Event      domain.RefillEvent `json:"event"`
}

// AllocationRow is the fuel attributed to one stage or sub-stage segment.
// StageLabel is "N" for an unsplit stage and "N.k" for the k-th segment of a
// stage that crossed refill boundaries.
type AllocationRow struct {
	StageLabel     string           `json:"stage_label"`
	SequenceNumber int              `json:"sequence_number"`
	Kind           domain.StageKind `json:"kind"`
	OdometerFrom   float64          `json:"odometer_from"`
	OdometerTo     float64          `json:"odometer_to"`
	Distance       float64          `json:"distance"`
	Rate           float64          `json:"rate"`
	FuelUsage      float64          `json:"fuel_usage"`
}

// Result is the fuel-usage ledger for one trip.
type Result struct {
	Rows           []AllocationRow  `json:"rows"`
	RefillSummary  []RefillInterval `json:"refill_summary"`
	TotalAllocated float64          `json:"total_allocated"`
	TotalRefilled  float64          `json:"total_refilled"`

	// EstimatedStart is true when the trip had no starting odometer and the
	// first-refill-minus-offset fallback was used.
	EstimatedStart bool `json:"estimated_start"`
}

// Variance returns TotalRefilled - TotalAllocated. Whether the ledger counts
// as balanced is the caller's judgment.
func (r *Result) Variance() float64 {
	return round2(r.TotalRefilled - r.TotalAllocated)
}

// Allocate computes the fuel-usage ledger for a trip against the vehicle's
// refill log.
//
// Each stage's start position is inherited from the previous stage's recorded
// end (or the trip's starting odometer), never from the stage's own reported
// start: continuity wins over possibly-inconsistent per-stage readings, and
// disagreement between the two is the mileage validator's job to surface. A
// stage with no recorded end falls back to cursor + standard distance as a
// planning estimate, which for a dummy route may yield a zero-distance,
// zero-fuel row.
//
// Pure function: no trips or refills are mutated, identical inputs produce
// identical results, and malformed numeric data degrades to nonsensical but
// non-crashing output.
func Allocate(trip domain.Trip, refills []domain.RefillEvent) *Result {
	result := &Result{
		Rows:          []AllocationRow{},
		RefillSummary: []RefillInterval{},
	}
	if len(trip.Stages) == 0 || len(refills) == 0 {
		return result
	}

	sorted := make([]domain.RefillEvent, len(refills))
	copy(sorted, refills)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OdometerAtRefill < sorted[j].OdometerAtRefill
	})

	start := 0.0
	if trip.StartingOdometer != nil {
		start = *trip.StartingOdometer
	} else {
		start = sorted[0].OdometerAtRefill - fallbackStartOffsetKm
		result.EstimatedStart = true
	}

	// One interval per refill: from the previous refill's reading (or the
	// trip start) up to this refill's reading. Zero or negative distance
	// (duplicate readings) yields rate 0.
	intervals := make([]RefillInterval, len(sorted))
	prev := start
	for i, ev := range sorted {
		distance := ev.OdometerAtRefill - prev
		rate := 0.0
		if distance > 0 {
			rate = ev.LitersDispensed / distance
		}
		intervals[i] = RefillInterval{
			RangeStart: prev,
			RangeEnd:   ev.OdometerAtRefill,
			Liters:     ev.LitersDispensed,
			Rate:       rate,
			Event:      ev,
		}
		prev = ev.OdometerAtRefill
		result.TotalRefilled += ev.LitersDispensed
	}
	result.RefillSummary = intervals
	result.TotalRefilled = round2(result.TotalRefilled)

	stages := make([]domain.TripStage, len(trip.Stages))
	copy(stages, trip.Stages)
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].SequenceNumber < stages[j].SequenceNumber
	})

	cursor := start
	for _, stage := range stages {
		stageEnd := cursor + stage.StandardDistance
		if stage.OdometerEnd != nil {
			stageEnd = *stage.OdometerEnd
		}

		var segments []AllocationRow

		// Consume every refill boundary that falls strictly inside the
		// stage's range. Boundaries at or behind the cursor are already
		// passed; there is no retroactive re-attribution.
		for {
			boundary, rate, ok := interiorBoundary(intervals, cursor, stageEnd)
			if !ok {
				break
			}
			segments = append(segments, segment(stage, cursor, boundary, rate))
			cursor = boundary
		}

		segments = append(segments, segment(stage, cursor, stageEnd, closingRate(intervals, stageEnd)))

		if len(segments) == 1 {
			segments[0].StageLabel = fmt.Sprintf("%d", stage.SequenceNumber)
		} else {
			for k := range segments {
				segments[k].StageLabel = fmt.Sprintf("%d.%d", stage.SequenceNumber, k+1)
			}
		}
		result.Rows = append(result.Rows, segments...)

		// Continuity rule: the next stage starts where this one ended.
		cursor = stageEnd
	}

	var total float64
	for _, row := range result.Rows {
		total += row.FuelUsage
	}
	result.TotalAllocated = round2(total)

	return result
}

// interiorBoundary finds the nearest refill boundary strictly between cursor
// and stageEnd, returning the boundary and the rate of the interval it
// closes.
func interiorBoundary(intervals []RefillInterval, cursor, stageEnd float64) (float64, float64, bool) {
	for _, iv := range intervals {
		if iv.RangeEnd > cursor && iv.RangeEnd < stageEnd {
			return iv.RangeEnd, iv.Rate, true
		}
	}
	return 0, 0, false
}

// closingRate picks the rate for a segment ending at stageEnd: the first
// interval whose boundary lies at or beyond stageEnd, or the last interval's
// rate when the stage runs past every refill.
func closingRate(intervals []RefillInterval, stageEnd float64) float64 {
	for _, iv := range intervals {
		if iv.RangeEnd >= stageEnd {
			return iv.Rate
		}
	}
	return intervals[len(intervals)-1].Rate
}

func segment(stage domain.TripStage, from, to, rate float64) AllocationRow {
	distance := to - from
	return AllocationRow{
		SequenceNumber: stage.SequenceNumber,
		Kind:           stage.Kind,
		OdometerFrom:   from,
		OdometerTo:     to,
		Distance:       distance,
		Rate:           rate,
		FuelUsage:      round2(distance * rate),
	}
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
