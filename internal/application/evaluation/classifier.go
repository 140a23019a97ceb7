package evaluation

import (
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
)

// Classification thresholds on the composite score.
const (
	prequalifiedThreshold = 80.0
	toAuditThreshold      = 60.0
)

// Classify maps a composite score to a recommendation and the matching
// prequalification state.  Deterministic, no hysteresis: re-running with the
// same composite always yields the same result.
func Classify(composite float64) (evaluation.Recommendation, evaluation.PrequalificationState) {
	switch {
	case composite >= prequalifiedThreshold:
		return evaluation.RecommendationPrequalified, evaluation.StatePrequalified
	case composite >= toAuditThreshold:
		return evaluation.RecommendationToAudit, evaluation.StateToAudit
	default:
		return evaluation.RecommendationHighRisk, evaluation.StateRejected
	}
}
