package repositories

import (
	"context"
	"database/sql"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/recommendation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

const recommendationColumns = `id, evaluation_id, supplier_id, recommended_by, rec_type,
	priority, justification, status, reviewed_by, reviewed_at, review_notes,
	created_at, updated_at`

type postgresRecommendationRepo struct {
	exec queryExecutor
	log  logging.Logger
}

// NewPostgresRecommendationRepo returns the recommendation record store.
func NewPostgresRecommendationRepo(conn *postgres.Connection, metrics *prometheus.AppMetrics, log logging.Logger) recommendation.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresRecommendationRepo{exec: newTimedExecutor(conn.DB(), metrics), log: log}
}

func (r *postgresRecommendationRepo) executor() queryExecutor {
	return r.exec
}

func (r *postgresRecommendationRepo) FindByID(ctx context.Context, id string) (*recommendation.Recommendation, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE id = $1`
	row := r.executor().QueryRowContext(ctx, query, id)
	rec, err := scanRecommendation(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeRecommendationNotFound, "recommendation not found").
			WithDetail("id=" + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load recommendation")
	}
	return rec, nil
}

func (r *postgresRecommendationRepo) Create(ctx context.Context, rec *recommendation.Recommendation) error {
	query := `
		INSERT INTO recommendations (
			id, evaluation_id, supplier_id, recommended_by, rec_type, priority,
			justification, status, reviewed_by, reviewed_at, review_notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.executor().ExecContext(ctx, query,
		rec.ID, rec.EvaluationID, rec.SupplierID, rec.RecommendedBy, rec.Type, rec.Priority,
		rec.Justification, rec.Status, nullString(rec.ReviewedBy), rec.ReviewedAt, rec.ReviewNotes,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create recommendation")
	}
	return nil
}

func (r *postgresRecommendationRepo) Update(ctx context.Context, rec *recommendation.Recommendation) error {
	query := `
		UPDATE recommendations SET
			status = $1, reviewed_by = $2, reviewed_at = $3, review_notes = $4, updated_at = $5
		WHERE id = $6
	`
	res, err := r.executor().ExecContext(ctx, query,
		rec.Status, nullString(rec.ReviewedBy), rec.ReviewedAt, rec.ReviewNotes, rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update recommendation")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodeRecommendationNotFound, "recommendation not found").
			WithDetail("id=" + rec.ID)
	}
	return nil
}

func (r *postgresRecommendationRepo) ListPending(ctx context.Context) ([]*recommendation.Recommendation, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations
		WHERE status = $1
		ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at ASC`
	return r.list(ctx, query, recommendation.StatusPending)
}

func (r *postgresRecommendationRepo) ListByEvaluation(ctx context.Context, evaluationID string) ([]*recommendation.Recommendation, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations
		WHERE evaluation_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, evaluationID)
}

func (r *postgresRecommendationRepo) CountByStatus(ctx context.Context, status recommendation.Status) (int64, error) {
	var count int64
	err := r.executor().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recommendations WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count recommendations")
	}
	return count, nil
}

func (r *postgresRecommendationRepo) list(ctx context.Context, query string, args ...interface{}) ([]*recommendation.Recommendation, error) {
	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list recommendations")
	}
	defer rows.Close()

	var recs []*recommendation.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan recommendation")
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanRecommendation(s scanner) (*recommendation.Recommendation, error) {
	var rec recommendation.Recommendation
	var reviewedBy, reviewNotes sql.NullString
	var reviewedAt sql.NullTime
	err := s.Scan(
		&rec.ID, &rec.EvaluationID, &rec.SupplierID, &rec.RecommendedBy, &rec.Type,
		&rec.Priority, &rec.Justification, &rec.Status, &reviewedBy, &reviewedAt, &reviewNotes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.ReviewedBy = reviewedBy.String
	rec.ReviewNotes = reviewNotes.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		rec.ReviewedAt = &t
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
