package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/sumika/internal/model"
)

// PostgresManagerRepo はPostgreSQLを使用した物件管理者リポジトリ。
type PostgresManagerRepo struct {
	db *sql.DB
}

// NewPostgresManagerRepo はPostgresManagerRepoを生成する。
func NewPostgresManagerRepo(db *sql.DB) *PostgresManagerRepo {
	return &PostgresManagerRepo{db: db}
}

// Create は物件管理者を作成する。成功時はIDとタイムスタンプをmanagerへ書き戻す。
func (r *PostgresManagerRepo) Create(ctx context.Context, manager *model.ApartmentManager) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO apartment_managers (identity_id, first_name, last_name, email, contact_number, branch)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		manager.IdentityID, manager.FirstName, manager.LastName, manager.Email, manager.ContactNumber, manager.Branch,
	).Scan(&manager.ID, &manager.CreatedAt, &manager.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert apartment manager: %w", err)
	}

	return nil
}

// FindByEmail はメールアドレスで物件管理者を検索する（大文字小文字を区別しない）。
// 見つからない場合はnilを返す。
func (r *PostgresManagerRepo) FindByEmail(ctx context.Context, email string) (*model.ApartmentManager, error) {
	manager := &model.ApartmentManager{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, identity_id, first_name, last_name, email, contact_number, branch, created_at, updated_at
		 FROM apartment_managers WHERE LOWER(email) = LOWER($1)`,
		email,
	).Scan(&manager.ID, &manager.IdentityID, &manager.FirstName, &manager.LastName,
		&manager.Email, &manager.ContactNumber, &manager.Branch, &manager.CreatedAt, &manager.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find apartment manager by email: %w", err)
	}

	return manager, nil
}

// FindByIdentityID はIDプロバイダのユーザーIDで物件管理者を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresManagerRepo) FindByIdentityID(ctx context.Context, identityID string) (*model.ApartmentManager, error) {
	manager := &model.ApartmentManager{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, identity_id, first_name, last_name, email, contact_number, branch, created_at, updated_at
		 FROM apartment_managers WHERE identity_id = $1`,
		identityID,
	).Scan(&manager.ID, &manager.IdentityID, &manager.FirstName, &manager.LastName,
		&manager.Email, &manager.ContactNumber, &manager.Branch, &manager.CreatedAt, &manager.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find apartment manager by identity ID: %w", err)
	}

	return manager, nil
}

// ListIdentityIDs は全物件管理者のidentity_idを返す。
func (r *PostgresManagerRepo) ListIdentityIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT identity_id FROM apartment_managers`)
	if err != nil {
		return nil, fmt.Errorf("failed to list manager identity IDs: %w", err)
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

// DeleteByIdentityID は指定identity_idの物件管理者を削除する（冪等）。
func (r *PostgresManagerRepo) DeleteByIdentityID(ctx context.Context, identityID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM apartment_managers WHERE identity_id = $1`,
		identityID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete apartment manager: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ApartmentManagerRepository = (*PostgresManagerRepo)(nil)
