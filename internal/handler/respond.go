package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/sumika/internal/middleware"
	"github.com/hitoshi/sumika/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeInvalidRequestBody はリクエストボディ解析失敗の400レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:    "INVALID_REQUEST",
		Message: "リクエストボディの解析に失敗しました。",
		Hint:    "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層のエラーをHTTPステータスにマッピングしてレスポンスを書き込む。
// クライアント起因（検証エラー・メール重複・IDプロバイダの拒否）は400、
// サーバー起因（設定不備・保存失敗・IDプロバイダ障害・分類不能）は500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		middleware.WriteInternalServerError(w)
		return
	}

	middleware.WriteErrorResponse(w, statusForAPIError(apiErr), apiErr)
}

// statusForAPIError はエラーコードに対応するHTTPステータスコードを返す。
func statusForAPIError(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation,
		model.ErrCodeEmailInUse,
		model.ErrCodeIdentityExists,
		model.ErrCodeIdentityBadEmail,
		model.ErrCodeInvalidInvite,
		model.ErrCodeUnitNotFound:
		return http.StatusBadRequest
	case model.ErrCodePersistence,
		model.ErrCodeConfiguration,
		model.ErrCodeIdentityProvider:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
