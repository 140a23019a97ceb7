// Package evaluation holds the evaluation aggregate: the per-supplier score
// record, the append-only external source records collected from registries,
// and the immutable analysis log.
package evaluation

import (
	"time"

	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/types/common"
)

// RelationType classifies the commercial relationship with a supplier.
type RelationType string

const (
	RelationExistingPartner RelationType = "existing_partner"
	RelationNew             RelationType = "new"
	RelationUnknown         RelationType = "unknown"
)

// IdentificationSource records how the supplier entered the pipeline.
type IdentificationSource string

const (
	IdentifiedByRegistryAuthority  IdentificationSource = "registry_authority"
	IdentifiedByNationalInspection IdentificationSource = "national_inspection"
	IdentifiedByAutoDiscovery      IdentificationSource = "automated_discovery"
	IdentifiedBySelfSubmission     IdentificationSource = "self_submission"
)

// PrequalificationState is the persisted lifecycle status, derived from the
// latest recommendation and never independently settable.
type PrequalificationState string

const (
	StatePrequalified PrequalificationState = "prequalified"
	StateUnderReview  PrequalificationState = "under_review"
	StateRejected     PrequalificationState = "rejected"
	StateToAudit      PrequalificationState = "to_audit"
	StateUnevaluated  PrequalificationState = "unevaluated"
)

// Recommendation is the categorical outcome of an analysis run.
type Recommendation string

const (
	RecommendationNone         Recommendation = ""
	RecommendationPrequalified Recommendation = "prequalified"
	RecommendationToAudit      Recommendation = "to_audit"
	RecommendationHighRisk     Recommendation = "high_risk"
)

// CriterionScores holds the six criterion scores, each in [0,100].
type CriterionScores struct {
	Certifications   float64 `json:"certifications"`
	Experience       float64 `json:"experience"`
	Documentation    float64 `json:"documentation"`
	Capacity         float64 `json:"capacity"`
	Price            float64 `json:"price"`
	GeopoliticalRisk float64 `json:"geopolitical_risk"`
}

// AsSlice returns the scores in weight-vector order.
func (c CriterionScores) AsSlice() []float64 {
	return []float64{c.Certifications, c.Experience, c.Documentation, c.Capacity, c.Price, c.GeopoliticalRisk}
}

// Evaluation is the aggregate root.  Exactly one exists per supplier,
// created on first analysis.
type Evaluation struct {
	ID                   string                `json:"id"`
	SupplierID           string                `json:"supplier_id"`
	RelationType         RelationType          `json:"relation_type"`
	IdentificationSource IdentificationSource  `json:"identification_source"`
	Scores               CriterionScores       `json:"scores"`
	CompositeScore       float64               `json:"composite_score"`
	Confidence           float64               `json:"confidence"`
	State                PrequalificationState `json:"state"`
	Recommendation       Recommendation        `json:"recommendation"`
	AnalysisNotes        string                `json:"analysis_notes,omitempty"`
	LastAnalyzedAt       *time.Time            `json:"last_analyzed_at,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// NewEvaluation creates an unevaluated record for a supplier.
func NewEvaluation(supplierID string, relation RelationType, source IdentificationSource) (*Evaluation, error) {
	if supplierID == "" {
		return nil, errors.NewValidation("supplierID cannot be empty")
	}
	if relation == "" {
		relation = RelationUnknown
	}
	now := time.Time(common.NewTimestamp())
	return &Evaluation{
		ID:                   string(common.NewID()),
		SupplierID:           supplierID,
		RelationType:         relation,
		IdentificationSource: source,
		State:                StateUnevaluated,
		Recommendation:       RecommendationNone,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// Validate checks the aggregate invariants.
func (e *Evaluation) Validate() error {
	if e.ID == "" {
		return errors.NewValidation("ID cannot be empty")
	}
	if e.SupplierID == "" {
		return errors.NewValidation("SupplierID cannot be empty")
	}
	switch e.RelationType {
	case RelationExistingPartner, RelationNew, RelationUnknown:
	default:
		return errors.NewValidation("invalid relation type: " + string(e.RelationType))
	}
	switch e.State {
	case StatePrequalified, StateUnderReview, StateRejected, StateToAudit, StateUnevaluated:
	default:
		return errors.NewValidation("invalid prequalification state: " + string(e.State))
	}
	for _, s := range e.Scores.AsSlice() {
		if s < 0 || s > 100 {
			return errors.NewValidation("criterion score out of range [0,100]")
		}
	}
	if e.CompositeScore < 0 || e.CompositeScore > 100 {
		return errors.NewValidation("composite score out of range [0,100]")
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return errors.NewValidation("confidence out of range [0,1]")
	}
	return nil
}

// AnalysisOutcome carries the result of one analysis run to be applied to
// the aggregate.
type AnalysisOutcome struct {
	Scores         CriterionScores
	CompositeScore float64
	Confidence     float64
	Recommendation Recommendation
	State          PrequalificationState
	Notes          string
}

// ApplyAnalysis overwrites the score fields with the latest run.  State
// always reflects the latest analysis; a lower-scoring re-run may move a
// prequalified supplier back to audit.
func (e *Evaluation) ApplyAnalysis(out AnalysisOutcome, at time.Time) {
	e.Scores = out.Scores
	e.CompositeScore = out.CompositeScore
	e.Confidence = out.Confidence
	e.Recommendation = out.Recommendation
	e.State = out.State
	if out.Notes != "" {
		e.AnalysisNotes = out.Notes
	}
	e.LastAnalyzedAt = &at
	e.UpdatedAt = at
}

// Snapshot captures the current score fields for the analysis log.
func (e *Evaluation) Snapshot() ScoreSnapshot {
	return ScoreSnapshot{
		Scores:         e.Scores,
		CompositeScore: e.CompositeScore,
		Confidence:     e.Confidence,
		Recommendation: e.Recommendation,
		State:          e.State,
	}
}

// Analyzed reports whether at least one analysis run has completed.
func (e *Evaluation) Analyzed() bool {
	return e.LastAnalyzedAt != nil
}
