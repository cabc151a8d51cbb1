// Package mileage validates a trip stage's reported odometer readings
// against the configured tolerance rules.
//
// Validation gates stage completion: a stage stays pending until its readings
// are consistent with the vehicle's last known position, the previous stage's
// end reading, and the stage's planned distance. Rule 005 (bypass) downgrades
// failures to warnings so a dispatcher can push a stage through anyway.
package mileage

import (
	"fmt"
	"math"

	"github.com/sanjay-madala/intellicarrier-backend/internal/domain"
)

// Violation describes one failed tolerance rule.
type Violation struct {
	Rule      string  `json:"rule"`
	Message   string  `json:"message"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Result is the verdict for one stage.
type Result struct {
	// Passed is true when no rule failed, or when bypass (rule 005) is
	// active regardless of failures.
	Passed bool `json:"passed"`

	// Bypassed is true only when bypass is active AND at least one rule
	// failed: the stage passed, but only because of the bypass.
	Bypassed bool `json:"bypassed"`

	// Violations lists every failed rule in rule-number order.
	Violations []Violation `json:"violations"`
}

// ValidateStage evaluates a stage's reported odometer range under cfg.
//
// previous is the chronologically preceding stage, or nil for the first stage
// of the trip; only its OdometerEnd is read. lastKnownOdometer is the
// vehicle's trusted reading at trip start and is consulted only when previous
// is nil.
//
// All applicable rules run; evaluation is not short-circuited. A rule whose
// inputs are missing is skipped rather than flagged; callers needing strict
// presence checks must enforce them before invoking. The function is pure and
// never fails.
func ValidateStage(stage domain.TripStage, previous *domain.TripStage, lastKnownOdometer *float64, cfg domain.ToleranceConfig) *Result {
	var violations []Violation

	// Rule 001: first stage start vs. last known vehicle position.
	if previous == nil && stage.OdometerStart != nil && lastKnownOdometer != nil {
		gap := math.Abs(*stage.OdometerStart - *lastKnownOdometer)
		if gap > cfg.FirstStageGapKm {
			violations = append(violations, Violation{
				Rule:      domain.RuleFirstStageGap,
				Message:   fmt.Sprintf("start reading %.1f km is %.1f km from last known odometer %.1f km (max %.1f km)", *stage.OdometerStart, gap, *lastKnownOdometer, cfg.FirstStageGapKm),
				Value:     gap,
				Threshold: cfg.FirstStageGapKm,
			})
		}
	}

	// Rule 002: continuity with the previous stage's end reading.
	if previous != nil && previous.OdometerEnd != nil && stage.OdometerStart != nil {
		gap := math.Abs(*stage.OdometerStart - *previous.OdometerEnd)
		if gap > cfg.ContinuityGapKm {
			violations = append(violations, Violation{
				Rule:      domain.RuleContinuityGap,
				Message:   fmt.Sprintf("start reading %.1f km is %.1f km from previous stage end %.1f km (max %.1f km)", *stage.OdometerStart, gap, *previous.OdometerEnd, cfg.ContinuityGapKm),
				Value:     gap,
				Threshold: cfg.ContinuityGapKm,
			})
		}
	}

	if actual, ok := stage.ActualDistance(); ok {
		if stage.StandardDistance > 0 {
			// Rule 003: deviation from the standard distance, absolute km.
			deviation := math.Abs(actual - stage.StandardDistance)
			if deviation > cfg.StandardDeviationKm {
				violations = append(violations, Violation{
					Rule:      domain.RuleStandardDeviation,
					Message:   fmt.Sprintf("actual distance %.1f km deviates %.1f km from standard %.1f km (max %.1f km)", actual, deviation, stage.StandardDistance, cfg.StandardDeviationKm),
					Value:     deviation,
					Threshold: cfg.StandardDeviationKm,
				})
			}
		} else {
			// Rule 004: dummy route cap. Only the over-distance case is
			// checked; negative actuals are an upstream data problem.
			if actual > cfg.DummyRouteMaxKm {
				violations = append(violations, Violation{
					Rule:      domain.RuleDummyRouteMax,
					Message:   fmt.Sprintf("actual distance %.1f km exceeds dummy route cap %.1f km", actual, cfg.DummyRouteMaxKm),
					Value:     actual,
					Threshold: cfg.DummyRouteMaxKm,
				})
			}
		}
	}

	if violations == nil {
		violations = []Violation{}
	}

	return &Result{
		Passed:     len(violations) == 0 || cfg.Bypass,
		Bypassed:   cfg.Bypass && len(violations) > 0,
		Violations: violations,
	}
}
