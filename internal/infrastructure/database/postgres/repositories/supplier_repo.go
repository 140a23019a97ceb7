package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/supplier"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

const supplierColumns = `id, company_name, legal_name, country, status,
	document_count, validated_document_count, registered_at, created_at, updated_at`

type postgresSupplierRepo struct {
	exec queryExecutor
	log  logging.Logger
}

// NewPostgresSupplierRepo returns the supplier read repository.
func NewPostgresSupplierRepo(conn *postgres.Connection, metrics *prometheus.AppMetrics, log logging.Logger) supplier.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresSupplierRepo{exec: newTimedExecutor(conn.DB(), metrics), log: log}
}

func (r *postgresSupplierRepo) executor() queryExecutor {
	return r.exec
}

func (r *postgresSupplierRepo) FindByID(ctx context.Context, id string) (*supplier.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = $1`
	row := r.executor().QueryRowContext(ctx, query, id)
	sup, err := scanSupplier(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeSupplierNotFound, "supplier not found").WithDetail("id=" + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load supplier")
	}
	return sup, nil
}

func (r *postgresSupplierRepo) FindByIDs(ctx context.Context, ids []string) ([]*supplier.Supplier, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id IN (` + strings.Join(placeholders, ", ") + `)`

	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load suppliers")
	}
	defer rows.Close()

	var suppliers []*supplier.Supplier
	for rows.Next() {
		sup, err := scanSupplier(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan supplier")
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, rows.Err()
}

func (r *postgresSupplierRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.executor().QueryRowContext(ctx, `SELECT COUNT(*) FROM suppliers`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count suppliers")
	}
	return count, nil
}

func scanSupplier(s scanner) (*supplier.Supplier, error) {
	var sup supplier.Supplier
	var legalName, country sql.NullString
	err := s.Scan(
		&sup.ID, &sup.CompanyName, &legalName, &country, &sup.Status,
		&sup.DocumentCount, &sup.ValidatedDocumentCount,
		&sup.RegisteredAt, &sup.CreatedAt, &sup.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sup.LegalName = legalName.String
	sup.Country = country.String
	return &sup, nil
}
