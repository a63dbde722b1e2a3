package invite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/sumika/internal/model"
	"github.com/hitoshi/sumika/internal/repository"
)

// Assigner は入居者への部屋割り当てと契約作成を行う。
// 割り当て失敗は招待全体を失敗させない（呼び出し元がログと記録のみ行う）。
type Assigner struct {
	units     repository.UnitRepository
	contracts repository.ContractRepository
	logger    *slog.Logger
	now       func() time.Time // テスト用に差し替え可能
}

// NewAssigner はAssignerを生成する。
func NewAssigner(units repository.UnitRepository, contracts repository.ContractRepository, logger *slog.Logger) *Assigner {
	return &Assigner{
		units:     units,
		contracts: contracts,
		logger:    logger,
		now:       time.Now,
	}
}

// Assign は部屋の存在を確認し、開始日=現在・終了日=1年後の有効な契約を作成して
// 部屋のステータスをoccupiedへ更新する。
// 契約作成後のステータス更新失敗は巻き戻さない（契約が正であり、部屋状態は後追いで直せる）。
func (a *Assigner) Assign(ctx context.Context, tenantID, unitID int64) error {
	unit, err := a.units.FindByID(ctx, unitID)
	if err != nil {
		return fmt.Errorf("failed to look up unit %d: %w", unitID, err)
	}
	if unit == nil {
		return fmt.Errorf("unit not found: %d", unitID)
	}

	start := a.now()
	contract := &model.Contract{
		TenantID:  tenantID,
		UnitID:    unitID,
		StartDate: start,
		EndDate:   start.AddDate(1, 0, 0),
		Status:    model.ContractStatusActive,
	}
	if err := a.contracts.Create(ctx, contract); err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}

	if err := a.units.UpdateStatus(ctx, unitID, model.UnitStatusOccupied); err != nil {
		a.logger.Warn("部屋ステータスの更新に失敗しました（契約は作成済み）",
			slog.Int64("unit_id", unitID),
			slog.Int64("contract_id", contract.ID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}
