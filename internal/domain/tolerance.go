package domain

// Tolerance rule identifiers. The numbering follows the fleet operations
// rulebook and is stable across business units; violation output references
// these IDs.
const (
	RuleFirstStageGap     = "001" // gap between first stage start and last known odometer
	RuleContinuityGap     = "002" // gap between stage start and previous stage end
	RuleStandardDeviation = "003" // deviation of actual distance from standard distance
	RuleDummyRouteMax     = "004" // max actual distance on a dummy (zero-standard) route
	RuleBypass            = "005" // downgrade violations to warnings
)

// ToleranceConfig holds the five mileage tolerance rules for one business
// unit. All thresholds are absolute kilometers; rule 003 in particular is an
// absolute-km deviation, not a percentage of the standard distance.
// Immutable for the duration of a validation call.
type ToleranceConfig struct {
	BusinessUnit          string  `json:"business_unit" yaml:"business_unit"`
	FirstStageGapKm       float64 `json:"first_stage_gap_km" yaml:"first_stage_gap_km"`
	ContinuityGapKm       float64 `json:"continuity_gap_km" yaml:"continuity_gap_km"`
	StandardDeviationKm   float64 `json:"standard_deviation_km" yaml:"standard_deviation_km"`
	DummyRouteMaxKm       float64 `json:"dummy_route_max_km" yaml:"dummy_route_max_km"`
	Bypass                bool    `json:"bypass" yaml:"bypass"`
}

// DefaultTolerances returns the rulebook defaults applied when a business
// unit has no override configured.
func DefaultTolerances() ToleranceConfig {
	return ToleranceConfig{
		BusinessUnit:        "default",
		FirstStageGapKm:     50,
		ContinuityGapKm:     10,
		StandardDeviationKm: 15,
		DummyRouteMaxKm:     100,
		Bypass:              false,
	}
}
