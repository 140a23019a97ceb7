package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

type postgresAnalysisLogRepo struct {
	exec queryExecutor
	log  logging.Logger
}

// NewPostgresAnalysisLogRepo returns the immutable analysis log store.
func NewPostgresAnalysisLogRepo(conn *postgres.Connection, metrics *prometheus.AppMetrics, log logging.Logger) evaluation.AnalysisLogRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresAnalysisLogRepo{exec: newTimedExecutor(conn.DB(), metrics), log: log}
}

func (r *postgresAnalysisLogRepo) executor() queryExecutor {
	return r.exec
}

func (r *postgresAnalysisLogRepo) Append(ctx context.Context, entry *evaluation.AnalysisLog) error {
	query := `
		INSERT INTO analysis_logs (
			id, evaluation_id, supplier_id, analysis_type, trigger_kind, status,
			before_snapshot, after_snapshot, weights, sources_consulted,
			error, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	before, err := json.Marshal(entry.Before)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode before snapshot")
	}
	after, err := json.Marshal(entry.After)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode after snapshot")
	}
	weights, err := json.Marshal(entry.Weights)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode weights")
	}
	sources, err := json.Marshal(entry.SourcesConsulted)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode sources")
	}

	_, err = r.executor().ExecContext(ctx, query,
		entry.ID, entry.EvaluationID, entry.SupplierID, entry.Type, entry.Trigger, entry.Status,
		before, after, weights, sources,
		entry.Error, entry.Duration.Milliseconds(), entry.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to append analysis log")
	}
	return nil
}

func (r *postgresAnalysisLogRepo) ListByEvaluation(ctx context.Context, evaluationID string) ([]*evaluation.AnalysisLog, error) {
	query := `
		SELECT id, evaluation_id, supplier_id, analysis_type, trigger_kind, status,
			before_snapshot, after_snapshot, weights, sources_consulted,
			error, duration_ms, created_at
		FROM analysis_logs
		WHERE evaluation_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.executor().QueryContext(ctx, query, evaluationID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list analysis logs")
	}
	defer rows.Close()

	var entries []*evaluation.AnalysisLog
	for rows.Next() {
		entry, err := scanAnalysisLog(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan analysis log")
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanAnalysisLog(s scanner) (*evaluation.AnalysisLog, error) {
	var entry evaluation.AnalysisLog
	var before, after, weights, sources []byte
	var errMsg sql.NullString
	var durationMS int64
	err := s.Scan(
		&entry.ID, &entry.EvaluationID, &entry.SupplierID, &entry.Type, &entry.Trigger, &entry.Status,
		&before, &after, &weights, &sources,
		&errMsg, &durationMS, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(before, &entry.Before); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(after, &entry.After); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(weights, &entry.Weights); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sources, &entry.SourcesConsulted); err != nil {
		return nil, err
	}
	entry.Error = errMsg.String
	entry.Duration = time.Duration(durationMS) * time.Millisecond
	return &entry, nil
}
