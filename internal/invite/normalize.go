// Package invite は入居者・物件管理者の招待ワークフローを提供する。
// 入力検証、メール重複解決、ID作成、ドメイン行の永続化、失敗時の補償処理を調整する。
package invite

import (
	"regexp"
	"strings"

	"github.com/hitoshi/sumika/internal/model"
)

// emailPattern は簡易的なメール形式（local@domain.tld）の検証パターン。
// 厳密なRFC検証はIDプロバイダ側に委ね、ここでは明らかな入力ミスだけを弾く。
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeEmail はメールアドレスを正規化する（前後空白の除去と小文字化）。
// 一意性の判定と保存はすべてこの形式で行う。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRequest は招待リクエストの形式を検証する。
// 欠落フィールドをすべて列挙し、メール形式の不正も併せて報告する。
// 問題がない場合はnilを返す。
func ValidateRequest(req *model.InvitationRequest) *model.APIError {
	var missing []string
	if strings.TrimSpace(req.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(req.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(req.Branch) == "" {
		missing = append(missing, "branch")
	}

	emailMalformed := false
	if strings.TrimSpace(req.Email) != "" && !emailPattern.MatchString(NormalizeEmail(req.Email)) {
		emailMalformed = true
	}

	if len(missing) > 0 || emailMalformed {
		return model.NewValidationError(missing, emailMalformed)
	}

	return nil
}
