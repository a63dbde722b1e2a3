package invite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/sumika/internal/model"
	"github.com/hitoshi/sumika/internal/repository"
)

// Resolver は正規化済みメールが既に入居者または物件管理者に属しているかを判定する。
// 主経路は両テーブル横断の単一検索で、それ自体が失敗した場合のみ
// テーブル個別検索のフォールバックに切り替える。
type Resolver struct {
	directory repository.EmailDirectory
	tenants   repository.TenantRepository
	managers  repository.ApartmentManagerRepository
	logger    *slog.Logger
}

// NewResolver はResolverを生成する。
func NewResolver(
	directory repository.EmailDirectory,
	tenants repository.TenantRepository,
	managers repository.ApartmentManagerRepository,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		directory: directory,
		tenants:   tenants,
		managers:  managers,
		logger:    logger,
	}
}

// Resolve はメールの既存所有者を検索する。所有者がいない場合はnilを返す。
// 主経路の検索がエラーになった場合（「見つからない」は除く）のみ、
// 入居者→物件管理者の順でテーブル個別検索を行い、最初に見つかったものを返す。
func (r *Resolver) Resolve(ctx context.Context, email string) (*repository.EmailOwner, error) {
	owner, err := r.directory.FindOwner(ctx, email)
	if err == nil {
		return owner, nil
	}

	r.logger.Warn("メール所有者の横断検索に失敗したため個別検索に切り替えます",
		slog.String("error", err.Error()),
	)

	tenant, terr := r.tenants.FindByEmail(ctx, email)
	if terr == nil && tenant != nil {
		return &repository.EmailOwner{Role: model.RoleTenant, Email: tenant.Email}, nil
	}

	manager, merr := r.managers.FindByEmail(ctx, email)
	if merr == nil && manager != nil {
		return &repository.EmailOwner{Role: model.RoleApartmentManager, Email: manager.Email}, nil
	}

	// 所有者が見つからず、かつ個別検索のいずれかが失敗した場合は
	// 「存在しない」と断定できないためエラーを返す
	if terr != nil || merr != nil {
		return nil, fmt.Errorf("failed to resolve email owner: %w", err)
	}

	return nil, nil
}
