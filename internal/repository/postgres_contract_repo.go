package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/sumika/internal/model"
)

// PostgresContractRepo はPostgreSQLを使用した賃貸契約リポジトリ。
type PostgresContractRepo struct {
	db *sql.DB
}

// NewPostgresContractRepo はPostgresContractRepoを生成する。
func NewPostgresContractRepo(db *sql.DB) *PostgresContractRepo {
	return &PostgresContractRepo{db: db}
}

// Create は契約を作成する。成功時はIDと作成日時をcontractへ書き戻す。
func (r *PostgresContractRepo) Create(ctx context.Context, contract *model.Contract) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO contracts (tenant_id, unit_id, start_date, end_date, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		contract.TenantID, contract.UnitID, contract.StartDate, contract.EndDate, contract.Status,
	).Scan(&contract.ID, &contract.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert contract: %w", err)
	}

	return nil
}

// ListActiveByTenantID は入居者の有効な契約一覧を返す。
func (r *PostgresContractRepo) ListActiveByTenantID(ctx context.Context, tenantID int64) ([]*model.Contract, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tenant_id, unit_id, start_date, end_date, status, created_at
		 FROM contracts WHERE tenant_id = $1 AND status = $2 ORDER BY start_date DESC`,
		tenantID, model.ContractStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*model.Contract
	for rows.Next() {
		contract := &model.Contract{}
		if err := rows.Scan(&contract.ID, &contract.TenantID, &contract.UnitID,
			&contract.StartDate, &contract.EndDate, &contract.Status, &contract.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, contract)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contracts: %w", err)
	}

	return contracts, nil
}

// compile-time interface check
var _ ContractRepository = (*PostgresContractRepo)(nil)
