package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/sumika/internal/model"
)

// InviteServiceInterface は招待ハンドラーが必要とするサービスインターフェース。
type InviteServiceInterface interface {
	// Invite は指定された役割で招待ワークフローを実行する。
	Invite(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error)
}

// InvitationHandler は入居者・物件管理者の招待を処理するHTTPハンドラー。
type InvitationHandler struct {
	service InviteServiceInterface
}

// NewInvitationHandler はInvitationHandlerを生成する。
func NewInvitationHandler(service InviteServiceInterface) *InvitationHandler {
	return &InvitationHandler{service: service}
}

// invitationRequest は招待リクエストのボディ。
type invitationRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	Branch        string `json:"branch"`
	UnitID        *int64 `json:"unit_id"`
}

// invitationResponse は招待成功時のAPIレスポンス。
type invitationResponse struct {
	IdentityID string `json:"identity_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

// InviteTenant は入居者の招待を処理する。
// POST /api/tenants/invitations
func (h *InvitationHandler) InviteTenant(w http.ResponseWriter, r *http.Request) {
	h.invite(w, r, model.RoleTenant)
}

// InviteManager は物件管理者の招待を処理する。
// 部屋の割り当ては行われないため、unit_idは無視される。
// POST /api/managers/invitations
func (h *InvitationHandler) InviteManager(w http.ResponseWriter, r *http.Request) {
	h.invite(w, r, model.RoleApartmentManager)
}

func (h *InvitationHandler) invite(w http.ResponseWriter, r *http.Request, role model.Role) {
	var req invitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	result, err := h.service.Invite(r.Context(), role, &model.InvitationRequest{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		ContactNumber: req.ContactNumber,
		Branch:        req.Branch,
		UnitID:        req.UnitID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invitationResponse{
		IdentityID: result.IdentityID,
		Email:      result.Email,
		Role:       string(result.Role),
	})
}
