package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/sumika/internal/identity"
	"github.com/hitoshi/sumika/internal/model"
)

// InviteVerifierInterface は招待トークン検証のインターフェース。
type InviteVerifierInterface interface {
	// VerifyInvite は招待トークンをセッショントークンに交換する。
	VerifyInvite(ctx context.Context, token, password string) (*identity.SessionTokens, error)
}

// VerifyHandler は招待トークンの検証を処理するHTTPハンドラー。
// 招待メールのリンクから遷移した未認証ユーザーが使うため、認証ミドルウェアの外に置く。
type VerifyHandler struct {
	verifier InviteVerifierInterface
	logger   *slog.Logger
}

// NewVerifyHandler はVerifyHandlerを生成する。
func NewVerifyHandler(verifier InviteVerifierInterface, logger *slog.Logger) *VerifyHandler {
	return &VerifyHandler{
		verifier: verifier,
		logger:   logger,
	}
}

// verifyRequest は招待トークン検証リクエストのボディ。
// passwordを指定すると承諾と同時にログインパスワードが設定される。
type verifyRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// verifyResponse は検証成功時のAPIレスポンス。発行されたセッションを返す。
type verifyResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	IdentityID   string `json:"identity_id,omitempty"`
	Email        string `json:"email,omitempty"`
}

// Verify は招待トークンをセッショントークンに交換する。
// POST /auth/invitations/verify
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Token == "" {
		handleServiceError(w, model.NewInvalidInviteTokenError())
		return
	}

	session, err := h.verifier.VerifyInvite(r.Context(), req.Token, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			handleServiceError(w, model.NewInvalidInviteTokenError())
			return
		}
		h.logger.Error("招待トークンの検証に失敗しました",
			slog.String("error", err.Error()),
		)
		handleServiceError(w, err)
		return
	}

	resp := verifyResponse{
		AccessToken:  session.AccessToken,
		TokenType:    session.TokenType,
		ExpiresIn:    session.ExpiresIn,
		RefreshToken: session.RefreshToken,
	}
	if session.User != nil {
		resp.IdentityID = session.User.ID
		resp.Email = session.User.Email
	}
	writeJSON(w, http.StatusOK, resp)
}
