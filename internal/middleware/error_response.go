package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/sumika/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// errorは必須、それ以外は該当する場合のみ含める。
type ErrorResponseBody struct {
	Error         string   `json:"error"`
	Code          string   `json:"code,omitempty"`
	Hint          string   `json:"hint,omitempty"`
	Details       []string `json:"details,omitempty"`
	ExistingEmail string   `json:"existing_email,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Error:         apiErr.Message,
		Code:          apiErr.Code,
		Hint:          apiErr.Hint,
		Details:       apiErr.Details,
		ExistingEmail: apiErr.ExistingEmail,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "内部エラーが発生しました。",
		Hint:    "しばらく待ってから再度お試しください。",
	})
}
