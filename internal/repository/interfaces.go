// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/sumika/internal/model"
)

// TenantRepository は入居者データの永続化インターフェース。
type TenantRepository interface {
	// Create は入居者を作成する。成功時はIDとタイムスタンプをtenantへ書き戻す。
	// メールまたはidentity_idのユニーク制約違反はそのままエラーとして返す
	// （呼び出し元がIsUniqueViolationで判別する）。
	Create(ctx context.Context, tenant *model.Tenant) error

	// FindByEmail はメールアドレスで入居者を検索する（大文字小文字を区別しない）。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Tenant, error)

	// FindByIdentityID はIDプロバイダのユーザーIDで入居者を検索する。
	// 見つからない場合はnilを返す。
	FindByIdentityID(ctx context.Context, identityID string) (*model.Tenant, error)

	// ListIdentityIDs は全入居者のidentity_idを返す。孤児ID整理ジョブが使用する。
	ListIdentityIDs(ctx context.Context) ([]string, error)

	// DeleteByIdentityID は指定identity_idの入居者を削除する。
	// 対象が存在しない場合もエラーにしない（冪等）。
	DeleteByIdentityID(ctx context.Context, identityID string) error
}

// ApartmentManagerRepository は物件管理者データの永続化インターフェース。
type ApartmentManagerRepository interface {
	// Create は物件管理者を作成する。成功時はIDとタイムスタンプをmanagerへ書き戻す。
	Create(ctx context.Context, manager *model.ApartmentManager) error

	// FindByEmail はメールアドレスで物件管理者を検索する（大文字小文字を区別しない）。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.ApartmentManager, error)

	// FindByIdentityID はIDプロバイダのユーザーIDで物件管理者を検索する。
	// 見つからない場合はnilを返す。
	FindByIdentityID(ctx context.Context, identityID string) (*model.ApartmentManager, error)

	// ListIdentityIDs は全物件管理者のidentity_idを返す。孤児ID整理ジョブが使用する。
	ListIdentityIDs(ctx context.Context) ([]string, error)

	// DeleteByIdentityID は指定identity_idの物件管理者を削除する（冪等）。
	DeleteByIdentityID(ctx context.Context, identityID string) error
}

// UnitRepository は部屋データの永続化インターフェース。
type UnitRepository interface {
	// FindByID は指定IDの部屋を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Unit, error)

	// ListByStatus は指定ステータスの部屋一覧を返す。
	ListByStatus(ctx context.Context, status model.UnitStatus) ([]*model.Unit, error)

	// UpdateStatus は部屋のステータスを更新する。
	UpdateStatus(ctx context.Context, id int64, status model.UnitStatus) error
}

// ContractRepository は賃貸契約データの永続化インターフェース。
type ContractRepository interface {
	// Create は契約を作成する。成功時はIDをcontractへ書き戻す。
	Create(ctx context.Context, contract *model.Contract) error

	// ListActiveByTenantID は入居者の有効な契約一覧を返す。
	ListActiveByTenantID(ctx context.Context, tenantID int64) ([]*model.Contract, error)
}

// EmailOwner はメールアドレスの所有者情報。
type EmailOwner struct {
	Role  model.Role
	Email string // テーブルに保存されている表記のままのメールアドレス
}

// EmailDirectory は役割横断のメール所有者検索インターフェース。
// 招待前の重複チェックが使用する。
type EmailDirectory interface {
	// FindOwner は両テーブルを横断してメールの所有者を検索する（大文字小文字を区別しない）。
	// どちらにも存在しない場合はnilを返す。
	// 両テーブルに存在する場合は入居者を優先して返す。
	FindOwner(ctx context.Context, email string) (*EmailOwner, error)
}
