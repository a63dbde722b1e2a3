package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/sumika/internal/model"
)

// PostgresTenantRepo はPostgreSQLを使用した入居者リポジトリ。
type PostgresTenantRepo struct {
	db *sql.DB
}

// NewPostgresTenantRepo はPostgresTenantRepoを生成する。
func NewPostgresTenantRepo(db *sql.DB) *PostgresTenantRepo {
	return &PostgresTenantRepo{db: db}
}

// Create は入居者を作成する。成功時はIDとタイムスタンプをtenantへ書き戻す。
func (r *PostgresTenantRepo) Create(ctx context.Context, tenant *model.Tenant) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tenants (identity_id, first_name, last_name, email, contact_number, branch)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		tenant.IdentityID, tenant.FirstName, tenant.LastName, tenant.Email, tenant.ContactNumber, tenant.Branch,
	).Scan(&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tenant: %w", err)
	}

	return nil
}

// FindByEmail はメールアドレスで入居者を検索する（大文字小文字を区別しない）。
// 見つからない場合はnilを返す。
func (r *PostgresTenantRepo) FindByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	tenant := &model.Tenant{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, identity_id, first_name, last_name, email, contact_number, branch, created_at, updated_at
		 FROM tenants WHERE LOWER(email) = LOWER($1)`,
		email,
	).Scan(&tenant.ID, &tenant.IdentityID, &tenant.FirstName, &tenant.LastName,
		&tenant.Email, &tenant.ContactNumber, &tenant.Branch, &tenant.CreatedAt, &tenant.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tenant by email: %w", err)
	}

	return tenant, nil
}

// FindByIdentityID はIDプロバイダのユーザーIDで入居者を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresTenantRepo) FindByIdentityID(ctx context.Context, identityID string) (*model.Tenant, error) {
	tenant := &model.Tenant{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, identity_id, first_name, last_name, email, contact_number, branch, created_at, updated_at
		 FROM tenants WHERE identity_id = $1`,
		identityID,
	).Scan(&tenant.ID, &tenant.IdentityID, &tenant.FirstName, &tenant.LastName,
		&tenant.Email, &tenant.ContactNumber, &tenant.Branch, &tenant.CreatedAt, &tenant.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tenant by identity ID: %w", err)
	}

	return tenant, nil
}

// ListIdentityIDs は全入居者のidentity_idを返す。
func (r *PostgresTenantRepo) ListIdentityIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT identity_id FROM tenants`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant identity IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan identity ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate identity IDs: %w", err)
	}

	return ids, nil
}

// DeleteByIdentityID は指定identity_idの入居者を削除する（冪等）。
func (r *PostgresTenantRepo) DeleteByIdentityID(ctx context.Context, identityID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tenants WHERE identity_id = $1`,
		identityID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TenantRepository = (*PostgresTenantRepo)(nil)
