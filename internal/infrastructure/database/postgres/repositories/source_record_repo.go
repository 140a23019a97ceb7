package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

type postgresSourceRecordRepo struct {
	exec queryExecutor
	log  logging.Logger
}

// NewPostgresSourceRecordRepo returns the append-only source record store.
func NewPostgresSourceRecordRepo(conn *postgres.Connection, metrics *prometheus.AppMetrics, log logging.Logger) evaluation.SourceRecordRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresSourceRecordRepo{exec: newTimedExecutor(conn.DB(), metrics), log: log}
}

func (r *postgresSourceRecordRepo) executor() queryExecutor {
	return r.exec
}

func (r *postgresSourceRecordRepo) Append(ctx context.Context, record *evaluation.ExternalSourceRecord) error {
	query := `
		INSERT INTO external_source_records (
			id, evaluation_id, source_name, source_type, source_url,
			payload, confidence, collected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode source payload")
	}
	_, err = r.executor().ExecContext(ctx, query,
		record.ID, record.EvaluationID, record.SourceName, record.SourceType,
		record.SourceURL, payload, record.Confidence, record.CollectedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to append source record")
	}
	return nil
}

func (r *postgresSourceRecordRepo) ListByEvaluation(ctx context.Context, evaluationID string) ([]*evaluation.ExternalSourceRecord, error) {
	query := `
		SELECT id, evaluation_id, source_name, source_type, source_url,
			payload, confidence, collected_at
		FROM external_source_records
		WHERE evaluation_id = $1
		ORDER BY collected_at DESC
	`
	rows, err := r.executor().QueryContext(ctx, query, evaluationID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list source records")
	}
	defer rows.Close()

	var records []*evaluation.ExternalSourceRecord
	for rows.Next() {
		record, err := scanSourceRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan source record")
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanSourceRecord(s scanner) (*evaluation.ExternalSourceRecord, error) {
	var record evaluation.ExternalSourceRecord
	var sourceURL sql.NullString
	var payload []byte
	err := s.Scan(
		&record.ID, &record.EvaluationID, &record.SourceName, &record.SourceType,
		&sourceURL, &payload, &record.Confidence, &record.CollectedAt,
	)
	if err != nil {
		return nil, err
	}
	record.SourceURL = sourceURL.String
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &record.Payload); err != nil {
			return nil, err
		}
	}
	return &record, nil
}
