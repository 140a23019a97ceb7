package evaluation

import (
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
)

// Confidence component caps.
const (
	coverageCap        = 0.4
	coveragePerSource  = 0.1
	coherenceCap       = 0.3
	coherencePenalty   = 0.1
	partnerHistoryBump = 0.3
)

// ConfidenceEstimator derives the overall confidence of an analysis from
// source coverage, score coherence, and relationship history.
type ConfidenceEstimator struct{}

// NewConfidenceEstimator returns the estimator.
func NewConfidenceEstimator() *ConfidenceEstimator {
	return &ConfidenceEstimator{}
}

// Estimate returns a confidence in [0,1]:
//
//	min(1.0, coverage + coherence + history)
//
// coverage  = min(0.4, 0.1 × distinct sources collected)
// coherence = max(0, 0.3 − normalized_variance × 0.1), where
//
//	normalized_variance is the population variance of the six
//	criterion scores divided by 100
//
// history   = 0.3 iff the supplier is an existing partner
func (e *ConfidenceEstimator) Estimate(scores evaluation.CriterionScores, distinctSources int, relation evaluation.RelationType) float64 {
	confidence := minf(coverageCap, coveragePerSource*float64(distinctSources))

	coherence := coherenceCap - normalizedVariance(scores)*coherencePenalty
	if coherence > 0 {
		confidence += coherence
	}

	if relation == evaluation.RelationExistingPartner {
		confidence += partnerHistoryBump
	}

	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}

// normalizedVariance is the population variance of the six criterion scores
// divided by 100.
func normalizedVariance(scores evaluation.CriterionScores) float64 {
	values := scores.AsSlice()
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return variance / 100
}
