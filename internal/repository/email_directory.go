package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/sumika/internal/model"
)

// PostgresEmailDirectory は入居者・物件管理者の両テーブルを横断して
// メールアドレスの所有者を検索する。
type PostgresEmailDirectory struct {
	db *sql.DB
}

// NewPostgresEmailDirectory はPostgresEmailDirectoryを生成する。
func NewPostgresEmailDirectory(db *sql.DB) *PostgresEmailDirectory {
	return &PostgresEmailDirectory{db: db}
}

// FindOwner は両テーブルをUNION ALLで横断検索し、メールの所有者を返す。
// 大文字小文字は区別しない。どちらにも存在しない場合はnilを返す。
// 両テーブルにヒットした場合はORDER BYにより入居者を優先する。
func (d *PostgresEmailDirectory) FindOwner(ctx context.Context, email string) (*EmailOwner, error) {
	owner := &EmailOwner{}
	err := d.db.QueryRowContext(ctx,
		`SELECT role, email FROM (
		     SELECT 'tenant' AS role, email, 0 AS priority FROM tenants WHERE LOWER(email) = LOWER($1)
		     UNION ALL
		     SELECT 'apartment_manager' AS role, email, 1 AS priority FROM apartment_managers WHERE LOWER(email) = LOWER($1)
		 ) AS owners
		 ORDER BY priority
		 LIMIT 1`,
		email,
	).Scan(&owner.Role, &owner.Email)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find email owner: %w", err)
	}

	if owner.Role != model.RoleTenant && owner.Role != model.RoleApartmentManager {
		return nil, fmt.Errorf("unexpected role in email directory: %s", owner.Role)
	}

	return owner, nil
}

// compile-time interface check
var _ EmailDirectory = (*PostgresEmailDirectory)(nil)
