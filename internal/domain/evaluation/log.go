package evaluation

import (
	"time"

	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/types/common"
)

// AnalysisType distinguishes the first run from later ones.
type AnalysisType string

const (
	AnalysisInitial      AnalysisType = "initial"
	AnalysisUpdate       AnalysisType = "update"
	AnalysisReevaluation AnalysisType = "re_evaluation"
)

// AnalysisTrigger records what started the run.
type AnalysisTrigger string

const (
	TriggerManual    AnalysisTrigger = "manual"
	TriggerScheduled AnalysisTrigger = "scheduled"
	TriggerNewData   AnalysisTrigger = "new_data"
)

// AnalysisStatus marks whether the run completed.
type AnalysisStatus string

const (
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

// ScoreSnapshot freezes the score fields of an evaluation at one instant.
type ScoreSnapshot struct {
	Scores         CriterionScores       `json:"scores"`
	CompositeScore float64               `json:"composite_score"`
	Confidence     float64               `json:"confidence"`
	Recommendation Recommendation        `json:"recommendation"`
	State          PrequalificationState `json:"state"`
}

// AnalysisLog is the immutable audit record of one analysis run.  It is the
// sole means of reconstructing evaluation history; even failed runs append
// an entry.
type AnalysisLog struct {
	ID               string          `json:"id"`
	EvaluationID     string          `json:"evaluation_id"`
	SupplierID       string          `json:"supplier_id"`
	Type             AnalysisType    `json:"type"`
	Trigger          AnalysisTrigger `json:"trigger"`
	Status           AnalysisStatus  `json:"status"`
	Before           ScoreSnapshot   `json:"before"`
	After            ScoreSnapshot   `json:"after"`
	Weights          []float64       `json:"weights"`
	SourcesConsulted []string        `json:"sources_consulted"`
	Error            string          `json:"error,omitempty"`
	Duration         time.Duration   `json:"duration"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewAnalysisLog builds the audit entry for one run.
func NewAnalysisLog(eval *Evaluation, analysisType AnalysisType, trigger AnalysisTrigger, before, after ScoreSnapshot, weights []float64, sources []string, duration time.Duration) (*AnalysisLog, error) {
	if eval == nil {
		return nil, errors.NewValidation("evaluation cannot be nil")
	}
	if sources == nil {
		sources = []string{}
	}
	return &AnalysisLog{
		ID:               string(common.NewID()),
		EvaluationID:     eval.ID,
		SupplierID:       eval.SupplierID,
		Type:             analysisType,
		Trigger:          trigger,
		Status:           AnalysisCompleted,
		Before:           before,
		After:            after,
		Weights:          weights,
		SourcesConsulted: sources,
		Duration:         duration,
		CreatedAt:        time.Time(common.NewTimestamp()),
	}, nil
}

// MarkFailed records the failure cause; the after snapshot keeps the
// pre-run values so the failed run remains attributable.
func (l *AnalysisLog) MarkFailed(cause error) {
	l.Status = AnalysisFailed
	if cause != nil {
		l.Error = cause.Error()
	}
}
