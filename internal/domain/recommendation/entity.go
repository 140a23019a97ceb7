// Package recommendation implements the human-curated recommendation records
// and their review lifecycle.
package recommendation

import (
	"strings"
	"time"

	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/types/common"
)

// Type classifies what is being recommended.
type Type string

const (
	TypePrequalification Type = "prequalification"
	TypeAudit            Type = "audit"
	TypeRejection        Type = "rejection"
)

// Priority orders the review queue.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Status is the review lifecycle state.
type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusUnderReview Status = "under_review"
)

// Decision is the outcome of one review action.
type Decision string

const (
	DecisionApprove     Decision = "approve"
	DecisionReject      Decision = "reject"
	DecisionUnderReview Decision = "under_review"
)

// highPriorityThreshold is the composite score at or above which a new
// recommendation is created with high priority.
const highPriorityThreshold = 80.0

// Recommendation ties a curated suggestion to an evaluation and tracks its
// review.
type Recommendation struct {
	ID            string     `json:"id"`
	EvaluationID  string     `json:"evaluation_id"`
	SupplierID    string     `json:"supplier_id"`
	RecommendedBy string     `json:"recommended_by"`
	Type          Type       `json:"type"`
	Priority      Priority   `json:"priority"`
	Justification string     `json:"justification"`
	Status        Status     `json:"status"`
	ReviewedBy    string     `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes   string     `json:"review_notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// New creates a pending recommendation.  Priority is high iff the supplier's
// composite score at creation time is at least 80, otherwise medium.
func New(evaluationID, supplierID, actor string, recType Type, justification string, compositeScore float64) (*Recommendation, error) {
	if evaluationID == "" {
		return nil, errors.NewValidation("evaluationID cannot be empty")
	}
	if supplierID == "" {
		return nil, errors.NewValidation("supplierID cannot be empty")
	}
	if strings.TrimSpace(actor) == "" {
		return nil, errors.NewValidation("recommending actor cannot be empty")
	}
	switch recType {
	case TypePrequalification, TypeAudit, TypeRejection:
	default:
		return nil, errors.New(errors.ErrCodeRecommendationTypeInvalid, "invalid recommendation type").
			WithDetail(string(recType))
	}

	priority := PriorityMedium
	if compositeScore >= highPriorityThreshold {
		priority = PriorityHigh
	}

	now := time.Time(common.NewTimestamp())
	return &Recommendation{
		ID:            string(common.NewID()),
		EvaluationID:  evaluationID,
		SupplierID:    supplierID,
		RecommendedBy: actor,
		Type:          recType,
		Priority:      priority,
		Justification: justification,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Reviewable reports whether a review action may be applied.
func (r *Recommendation) Reviewable() bool {
	return r.Status == StatusPending || r.Status == StatusUnderReview
}

// Review applies a decision.  Only pending and under-review records accept a
// review; a decided record is never re-opened here.
func (r *Recommendation) Review(decision Decision, reviewer, notes string) error {
	if strings.TrimSpace(reviewer) == "" {
		return errors.NewValidation("reviewer cannot be empty")
	}
	if !r.Reviewable() {
		return errors.New(errors.ErrCodeRecommendationNotReviewable, "recommendation is not reviewable").
			WithDetail("status=" + string(r.Status))
	}

	switch decision {
	case DecisionApprove:
		r.Status = StatusApproved
	case DecisionReject:
		r.Status = StatusRejected
	case DecisionUnderReview:
		r.Status = StatusUnderReview
	default:
		return errors.NewValidation("invalid review decision: " + string(decision))
	}

	now := time.Time(common.NewTimestamp())
	r.ReviewedBy = reviewer
	r.ReviewedAt = &now
	r.ReviewNotes = notes
	r.UpdatedAt = now
	return nil
}
