package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

const evaluationColumns = `e.id, e.supplier_id, e.relation_type, e.identification_source,
	e.scores, e.composite_score, e.confidence, e.state, e.recommendation,
	e.analysis_notes, e.last_analyzed_at, e.created_at, e.updated_at`

type postgresEvaluationRepo struct {
	exec queryExecutor
	log  logging.Logger
}

// NewPostgresEvaluationRepo returns the evaluation aggregate repository.
func NewPostgresEvaluationRepo(conn *postgres.Connection, metrics *prometheus.AppMetrics, log logging.Logger) evaluation.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresEvaluationRepo{exec: newTimedExecutor(conn.DB(), metrics), log: log}
}

func (r *postgresEvaluationRepo) executor() queryExecutor {
	return r.exec
}

func (r *postgresEvaluationRepo) FindBySupplierID(ctx context.Context, supplierID string) (*evaluation.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations e WHERE e.supplier_id = $1`
	row := r.executor().QueryRowContext(ctx, query, supplierID)
	eval, err := scanEvaluation(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeEvaluationNotFound, "evaluation not found").
			WithDetail("supplier_id=" + supplierID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load evaluation")
	}
	return eval, nil
}

func (r *postgresEvaluationRepo) FindByID(ctx context.Context, id string) (*evaluation.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations e WHERE e.id = $1`
	row := r.executor().QueryRowContext(ctx, query, id)
	eval, err := scanEvaluation(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeEvaluationNotFound, "evaluation not found").WithDetail("id=" + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load evaluation")
	}
	return eval, nil
}

func (r *postgresEvaluationRepo) Create(ctx context.Context, eval *evaluation.Evaluation) error {
	query := `
		INSERT INTO evaluations (
			id, supplier_id, relation_type, identification_source, scores,
			composite_score, confidence, state, recommendation, analysis_notes,
			last_analyzed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	scores, err := json.Marshal(eval.Scores)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode scores")
	}
	_, err = r.executor().ExecContext(ctx, query,
		eval.ID, eval.SupplierID, eval.RelationType, eval.IdentificationSource, scores,
		eval.CompositeScore, eval.Confidence, eval.State, eval.Recommendation, eval.AnalysisNotes,
		eval.LastAnalyzedAt, eval.CreatedAt, eval.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.New(errors.ErrCodeConflict, "evaluation already exists for supplier").
				WithDetail("supplier_id=" + eval.SupplierID)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create evaluation")
	}
	return nil
}

func (r *postgresEvaluationRepo) Update(ctx context.Context, eval *evaluation.Evaluation) error {
	query := `
		UPDATE evaluations SET
			relation_type = $1, scores = $2, composite_score = $3, confidence = $4,
			state = $5, recommendation = $6, analysis_notes = $7,
			last_analyzed_at = $8, updated_at = $9
		WHERE id = $10
	`
	scores, err := json.Marshal(eval.Scores)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode scores")
	}
	res, err := r.executor().ExecContext(ctx, query,
		eval.RelationType, scores, eval.CompositeScore, eval.Confidence,
		eval.State, eval.Recommendation, eval.AnalysisNotes,
		eval.LastAnalyzedAt, eval.UpdatedAt, eval.ID,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update evaluation")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodeEvaluationNotFound, "evaluation not found").WithDetail("id=" + eval.ID)
	}
	return nil
}

func (r *postgresEvaluationRepo) Query(ctx context.Context, filter evaluation.Filter) ([]*evaluation.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations e
		JOIN suppliers s ON s.id = e.supplier_id WHERE 1=1`
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(" AND "+clause, len(args))
	}
	if filter.RelationType != "" {
		add("e.relation_type = $%d", filter.RelationType)
	}
	if filter.Recommendation != "" {
		add("e.recommendation = $%d", filter.Recommendation)
	}
	if filter.State != "" {
		add("e.state = $%d", filter.State)
	}
	if filter.Country != "" {
		add("s.country = $%d", filter.Country)
	}
	if filter.MinComposite > 0 {
		add("e.composite_score >= $%d", filter.MinComposite)
	}
	if filter.NameQuery != "" {
		args = append(args, "%"+filter.NameQuery+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (s.company_name ILIKE $%d OR s.legal_name ILIKE $%d)", n, n)
	}

	query += " ORDER BY e.composite_score DESC, e.updated_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "evaluation query failed")
	}
	defer rows.Close()

	var evals []*evaluation.Evaluation
	for rows.Next() {
		eval, err := scanEvaluation(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan evaluation")
		}
		evals = append(evals, eval)
	}
	return evals, rows.Err()
}

func (r *postgresEvaluationRepo) Stats(ctx context.Context) (*evaluation.StatsBreakdown, error) {
	stats := &evaluation.StatsBreakdown{
		ByRecommendation: make(map[evaluation.Recommendation]int64),
		ByRelation:       make(map[evaluation.RelationType]int64),
	}

	query := `
		SELECT recommendation, relation_type, COUNT(*)
		FROM evaluations
		WHERE last_analyzed_at IS NOT NULL
		GROUP BY recommendation, relation_type
	`
	rows, err := r.executor().QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to aggregate evaluations")
	}
	defer rows.Close()

	for rows.Next() {
		var rec evaluation.Recommendation
		var rel evaluation.RelationType
		var count int64
		if err := rows.Scan(&rec, &rel, &count); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan aggregate row")
		}
		stats.TotalAnalyzed += count
		stats.ByRecommendation[rec] += count
		stats.ByRelation[rel] += count
	}
	return stats, rows.Err()
}

func scanEvaluation(s scanner) (*evaluation.Evaluation, error) {
	var eval evaluation.Evaluation
	var scores []byte
	var notes sql.NullString
	var lastAnalyzed sql.NullTime
	err := s.Scan(
		&eval.ID, &eval.SupplierID, &eval.RelationType, &eval.IdentificationSource,
		&scores, &eval.CompositeScore, &eval.Confidence, &eval.State, &eval.Recommendation,
		&notes, &lastAnalyzed, &eval.CreatedAt, &eval.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &eval.Scores); err != nil {
			return nil, err
		}
	}
	eval.AnalysisNotes = notes.String
	if lastAnalyzed.Valid {
		t := lastAnalyzed.Time
		eval.LastAnalyzedAt = &t
	}
	return &eval, nil
}

// isUniqueViolation reports whether the error is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	type sqlStater interface{ SQLState() string }
	var state sqlStater
	if stderrors.As(err, &state) {
		return state.SQLState() == "23505"
	}
	return false
}
