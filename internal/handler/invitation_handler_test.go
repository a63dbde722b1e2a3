package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/sumika/internal/model"
)

// --- モック定義 ---

// mockInviteService はInviteServiceInterfaceのモック実装。
type mockInviteService struct {
	inviteFn func(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error)
}

func (m *mockInviteService) Invite(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error) {
	if m.inviteFn != nil {
		return m.inviteFn(ctx, role, req)
	}
	return &model.InvitationResult{
		IdentityID: "identity-1",
		Email:      req.Email,
		Role:       role,
	}, nil
}

// --- テストヘルパー ---

// parseErrorResponse はレスポンスボディからエラーレスポンスをパースするヘルパー。
func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func inviteRequestBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"first_name":     "Ana",
		"last_name":      "Cruz",
		"email":          "ana.cruz@example.com",
		"contact_number": "09171234567",
		"branch":         "cainta",
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return bytes.NewBuffer(body)
}

// --- POST /api/tenants/invitations テスト ---

func TestInvitationHandler_InviteTenant_Success(t *testing.T) {
	var capturedRole model.Role
	var capturedReq *model.InvitationRequest

	svc := &mockInviteService{
		inviteFn: func(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error) {
			capturedRole = role
			capturedReq = req
			return &model.InvitationResult{
				IdentityID: "identity-abc",
				Email:      "ana.cruz@example.com",
				Role:       role,
			}, nil
		},
	}

	h := NewInvitationHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/tenants/invitations", inviteRequestBody(t))
	w := httptest.NewRecorder()

	h.InviteTenant(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if capturedRole != model.RoleTenant {
		t.Errorf("role = %q, want %q", capturedRole, model.RoleTenant)
	}
	if capturedReq.FirstName != "Ana" || capturedReq.Branch != "cainta" {
		t.Errorf("unexpected request: %+v", capturedReq)
	}

	var resp invitationResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.IdentityID != "identity-abc" {
		t.Errorf("identity_id = %q, want identity-abc", resp.IdentityID)
	}
	if resp.Role != "tenant" {
		t.Errorf("role = %q, want tenant", resp.Role)
	}
}

func TestInvitationHandler_InviteTenant_PassesUnitID(t *testing.T) {
	var capturedUnitID *int64

	svc := &mockInviteService{
		inviteFn: func(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error) {
			capturedUnitID = req.UnitID
			return &model.InvitationResult{IdentityID: "identity-1", Email: req.Email, Role: role}, nil
		},
	}

	h := NewInvitationHandler(svc)

	body := `{"first_name":"Ana","last_name":"Cruz","email":"ana@example.com","branch":"cainta","unit_id":42}`
	req := httptest.NewRequest(http.MethodPost, "/api/tenants/invitations", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.InviteTenant(w, req)

	if capturedUnitID == nil || *capturedUnitID != 42 {
		t.Errorf("unit_id = %v, want 42", capturedUnitID)
	}
}

func TestInvitationHandler_InviteManager_UsesManagerRole(t *testing.T) {
	var capturedRole model.Role

	svc := &mockInviteService{
		inviteFn: func(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error) {
			capturedRole = role
			return &model.InvitationResult{IdentityID: "identity-1", Email: req.Email, Role: role}, nil
		},
	}

	h := NewInvitationHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/managers/invitations", inviteRequestBody(t))
	w := httptest.NewRecorder()

	h.InviteManager(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if capturedRole != model.RoleApartmentManager {
		t.Errorf("role = %q, want %q", capturedRole, model.RoleApartmentManager)
	}
}

func TestInvitationHandler_InvalidJSON_Returns400(t *testing.T) {
	h := NewInvitationHandler(&mockInviteService{
		inviteFn: func(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/tenants/invitations", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.InviteTenant(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestInvitationHandler_ValidationError_Returns400(t *testing.T) {
	svc := &mockInviteService{
		inviteFn: func(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error) {
			return nil, model.NewValidationError([]string{"first_name"}, false)
		},
	}

	h := NewInvitationHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/tenants/invitations", inviteRequestBody(t))
	w := httptest.NewRecorder()

	h.InviteTenant(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	body := parseErrorResponse(t, w)
	if body["code"] != model.ErrCodeValidation {
		t.Errorf("code = %v, want %s", body["code"], model.ErrCodeValidation)
	}
	if details, ok := body["details"].([]any); !ok || len(details) != 1 {
		t.Errorf("details = %v, want 1 entry", body["details"])
	}
}

func TestInvitationHandler_Conflict_Returns400WithExistingEmail(t *testing.T) {
	svc := &mockInviteService{
		inviteFn: func(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error) {
			return nil, model.NewConflictError(model.RoleTenant, "Ana.Cruz@example.com")
		},
	}

	h := NewInvitationHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/tenants/invitations", inviteRequestBody(t))
	w := httptest.NewRecorder()

	h.InviteTenant(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	body := parseErrorResponse(t, w)
	if body["code"] != model.ErrCodeEmailInUse {
		t.Errorf("code = %v, want %s", body["code"], model.ErrCodeEmailInUse)
	}
	if body["existing_email"] != "Ana.Cruz@example.com" {
		t.Errorf("existing_email = %v, want stored casing", body["existing_email"])
	}
}

func TestInvitationHandler_IdentityRejection_Returns400(t *testing.T) {
	tests := []struct {
		name string
		err  *model.APIError
	}{
		{"already_registered", model.NewIdentityAlreadyRegisteredError("ana@example.com")},
		{"invalid_email", model.NewIdentityInvalidEmailError()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockInviteService{
				inviteFn: func(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error) {
					return nil, tt.err
				},
			}

			h := NewInvitationHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/tenants/invitations", inviteRequestBody(t))
			w := httptest.NewRecorder()

			h.InviteTenant(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestInvitationHandler_ServerSideError_Returns500(t *testing.T) {
	tests := []struct {
		name string
		err  *model.APIError
	}{
		{"persistence", model.NewPersistenceError()},
		{"configuration", model.NewConfigurationError("招待リダイレクトURL未設定")},
		{"identity_provider", model.NewIdentityProviderError()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockInviteService{
				inviteFn: func(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error) {
					return nil, tt.err
				},
			}

			h := NewInvitationHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/tenants/invitations", inviteRequestBody(t))
			w := httptest.NewRecorder()

			h.InviteTenant(w, req)

			if w.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
			}
		})
	}
}

func TestInvitationHandler_UnclassifiedError_Returns500(t *testing.T) {
	svc := &mockInviteService{
		inviteFn: func(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error) {
			return nil, context.DeadlineExceeded
		},
	}

	h := NewInvitationHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/tenants/invitations", inviteRequestBody(t))
	w := httptest.NewRecorder()

	h.InviteTenant(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	body := parseErrorResponse(t, w)
	if body["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %v, want INTERNAL_ERROR", body["code"])
	}
}
