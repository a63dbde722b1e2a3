// Package reconcile はIDプロバイダとドメインテーブルの整合ジョブを提供する。
// 招待の途中失敗で残った「ドメイン行を持たないID」（孤児ID）を検出し、
// 猶予期間を超えた未確認のものを削除する。
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/sumika/internal/identity"
	"github.com/hitoshi/sumika/internal/metrics"
	"github.com/hitoshi/sumika/internal/repository"
)

// IdentityDirectory は整合ジョブが必要とするIDプロバイダ操作のインターフェース。
type IdentityDirectory interface {
	// ListUsers は登録済みの全ユーザーを返す。
	ListUsers(ctx context.Context) ([]identity.User, error)
	// DeleteUser は指定IDのユーザーを削除する。存在しない場合も成功とみなす。
	DeleteUser(ctx context.Context, identityID string) error
}

// Job はIDプロバイダとドメインテーブルの整合を取るバッチジョブ。
// 定期実行を想定しており、冪等に動作する。
type Job struct {
	identity IdentityDirectory
	tenants  repository.TenantRepository
	managers repository.ApartmentManagerRepository
	metrics  metrics.MetricsCollector
	logger   *slog.Logger

	// GracePeriod は孤児IDを削除対象とするまでの猶予期間。
	// 招待直後の正常なレコード（ドメイン行の挿入待ち）を誤削除しないための余裕。
	GracePeriod time.Duration

	now func() time.Time
}

// NewJob はJobを生成する。デフォルトの猶予期間は24時間。
func NewJob(
	identityDir IdentityDirectory,
	tenants repository.TenantRepository,
	managers repository.ApartmentManagerRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Job {
	return &Job{
		identity:    identityDir,
		tenants:     tenants,
		managers:    managers,
		metrics:     collector,
		logger:      logger,
		GracePeriod: 24 * time.Hour,
		now:         time.Now,
	}
}

// Start は指定間隔のティッカーで整合ジョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("ID整合ジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Duration("grace_period", j.GracePeriod),
	)

	// 起動直後に1回実行
	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("ID整合サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("ID整合ジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("ID整合サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は整合処理を1回実行する。
// ドメイン行を持たず、未確認かつ作成から猶予期間を超えたIDのみ削除する。
// 個別の削除失敗はログに残して続行し、サイクル全体は失敗させない。
func (j *Job) RunOnce(ctx context.Context) error {
	start := j.now()

	users, err := j.identity.ListUsers(ctx)
	if err != nil {
		return err
	}

	known, err := j.knownIdentityIDs(ctx)
	if err != nil {
		return err
	}

	cutoff := start.Add(-j.GracePeriod)
	deleted := 0

	for _, user := range users {
		if _, ok := known[user.ID]; ok {
			continue
		}
		// 確認済みのユーザーは招待を完了しているため削除しない
		if user.ConfirmedAt != nil {
			continue
		}
		if user.CreatedAt.After(cutoff) {
			continue
		}

		if derr := j.identity.DeleteUser(ctx, user.ID); derr != nil {
			j.logger.Error("孤児IDの削除に失敗しました",
				slog.String("identity_id", user.ID),
				slog.String("email", user.Email),
				slog.String("error", derr.Error()),
			)
			continue
		}

		j.logger.Info("孤児IDを削除しました",
			slog.String("identity_id", user.ID),
			slog.String("email", user.Email),
			slog.Time("created_at", user.CreatedAt),
		)
		deleted++
	}

	if deleted > 0 {
		j.metrics.RecordReconcileDeleted(deleted)
	}

	j.logger.Info("ID整合サイクルが完了しました",
		slog.Int("identity_count", len(users)),
		slog.Int("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// knownIdentityIDs は両テーブルに存在する全identity_idの集合を返す。
func (j *Job) knownIdentityIDs(ctx context.Context) (map[string]struct{}, error) {
	tenantIDs, err := j.tenants.ListIdentityIDs(ctx)
	if err != nil {
		return nil, err
	}
	managerIDs, err := j.managers.ListIdentityIDs(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(tenantIDs)+len(managerIDs))
	for _, id := range tenantIDs {
		known[id] = struct{}{}
	}
	for _, id := range managerIDs {
		known[id] = struct{}{}
	}
	return known, nil
}
