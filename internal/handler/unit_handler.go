package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/sumika/internal/middleware"
	"github.com/hitoshi/sumika/internal/model"
)

// UnitServiceInterface は部屋一覧ハンドラーが必要とするインターフェース。
type UnitServiceInterface interface {
	// ListByStatus は指定ステータスの部屋一覧を返す。
	ListByStatus(ctx context.Context, status model.UnitStatus) ([]*model.Unit, error)
}

// UnitHandler は部屋（ユニット）照会のHTTPハンドラー。
type UnitHandler struct {
	units  UnitServiceInterface
	logger *slog.Logger
}

// NewUnitHandler はUnitHandlerを生成する。
func NewUnitHandler(units UnitServiceInterface, logger *slog.Logger) *UnitHandler {
	return &UnitHandler{
		units:  units,
		logger: logger,
	}
}

// unitResponse は部屋情報のAPIレスポンス。
type unitResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Branch    string    `json:"branch"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListUnits は部屋一覧を取得する。statusクエリで絞り込む（省略時は空室のみ）。
// GET /api/units?status=available
func (h *UnitHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	status := model.UnitStatusAvailable
	if raw := r.URL.Query().Get("status"); raw != "" {
		switch model.UnitStatus(raw) {
		case model.UnitStatusAvailable, model.UnitStatusOccupied:
			status = model.UnitStatus(raw)
		default:
			middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:    model.ErrCodeValidation,
				Message: "statusの値が不正です。",
				Hint:    "available または occupied を指定してください。",
			})
			return
		}
	}

	units, err := h.units.ListByStatus(r.Context(), status)
	if err != nil {
		h.logger.Error("部屋一覧の取得に失敗しました",
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	resp := make([]unitResponse, 0, len(units))
	for _, u := range units {
		resp = append(resp, unitResponse{
			ID:        u.ID,
			Name:      u.Name,
			Branch:    u.Branch,
			Status:    string(u.Status),
			UpdatedAt: u.UpdatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
