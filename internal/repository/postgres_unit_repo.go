package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/sumika/internal/model"
)

// PostgresUnitRepo はPostgreSQLを使用した部屋リポジトリ。
type PostgresUnitRepo struct {
	db *sql.DB
}

// NewPostgresUnitRepo はPostgresUnitRepoを生成する。
func NewPostgresUnitRepo(db *sql.DB) *PostgresUnitRepo {
	return &PostgresUnitRepo{db: db}
}

// FindByID は指定IDの部屋を取得する。見つからない場合はnilを返す。
func (r *PostgresUnitRepo) FindByID(ctx context.Context, id int64) (*model.Unit, error) {
	unit := &model.Unit{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, branch, status, created_at, updated_at FROM units WHERE id = $1`,
		id,
	).Scan(&unit.ID, &unit.Name, &unit.Branch, &unit.Status, &unit.CreatedAt, &unit.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find unit by ID: %w", err)
	}

	return unit, nil
}

// ListByStatus は指定ステータスの部屋一覧を返す。
func (r *PostgresUnitRepo) ListByStatus(ctx context.Context, status model.UnitStatus) ([]*model.Unit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, branch, status, created_at, updated_at
		 FROM units WHERE status = $1 ORDER BY branch, name`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list units by status: %w", err)
	}
	defer rows.Close()

	var units []*model.Unit
	for rows.Next() {
		unit := &model.Unit{}
		if err := rows.Scan(&unit.ID, &unit.Name, &unit.Branch, &unit.Status, &unit.CreatedAt, &unit.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate units: %w", err)
	}

	return units, nil
}

// UpdateStatus は部屋のステータスを更新する。
func (r *PostgresUnitRepo) UpdateStatus(ctx context.Context, id int64, status model.UnitStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE units SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update unit status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("unit not found: %d", id)
	}
	return nil
}

// compile-time interface check
var _ UnitRepository = (*PostgresUnitRepo)(nil)
