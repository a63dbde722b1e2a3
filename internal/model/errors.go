// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// Messageはユーザーに表示する原因説明、Hintは対処方法を含む。
// ExistingEmailはメール重複時に保存済みの（大文字小文字が入力と異なる可能性のある）値を返す。
type APIError struct {
	Code          string   // エラーコード
	Message       string   // エラーメッセージ
	Hint          string   // ユーザー向け対処方法
	Details       []string // フィールド単位の詳細（バリデーション時）
	ExistingEmail string   // 競合した既存メールアドレス
	Retryable     bool     // 再試行で解消しうる一時的な競合かどうか
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeEmailInUse       = "EMAIL_IN_USE"
	ErrCodeIdentityExists   = "IDENTITY_ALREADY_REGISTERED"
	ErrCodeIdentityBadEmail = "IDENTITY_INVALID_EMAIL"
	ErrCodeIdentityProvider = "IDENTITY_PROVIDER_ERROR"
	ErrCodePersistence      = "PERSISTENCE_ERROR"
	ErrCodeConfiguration    = "CONFIGURATION_ERROR"
	ErrCodeUnitNotFound     = "UNIT_NOT_FOUND"
	ErrCodeInvalidInvite    = "INVALID_INVITE_TOKEN"
)

// NewValidationError は欠落フィールドと不正メールを列挙したバリデーションエラーを生成する。
// missingには欠落した必須フィールド名、emailMalformedにはメール形式不正かどうかを渡す。
func NewValidationError(missing []string, emailMalformed bool) *APIError {
	details := make([]string, 0, len(missing)+1)
	for _, field := range missing {
		details = append(details, fmt.Sprintf("%s は必須です", field))
	}
	if emailMalformed {
		details = append(details, "email の形式が不正です")
	}
	return &APIError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("入力内容に誤りがあります: %s", strings.Join(details, "、")),
		Hint:    "不足・不正なフィールドを修正して再送信してください。",
		Details: details,
	}
}

// NewConflictError はメール重複エラーを生成する。
// ownerRoleは既存レコードの役割、existingEmailは保存済みのメールアドレス文字列。
func NewConflictError(ownerRole Role, existingEmail string) *APIError {
	return &APIError{
		Code:          ErrCodeEmailInUse,
		Message:       fmt.Sprintf("このメールアドレスは既に%sとして登録されています。", roleLabel(ownerRole)),
		Hint:          "別のメールアドレスを使用するか、既存ユーザーを確認してください。",
		ExistingEmail: existingEmail,
	}
}

// NewRetryableConflictError は一時的な競合（同時登録の競り負け）エラーを生成する。
func NewRetryableConflictError(email string) *APIError {
	return &APIError{
		Code:          ErrCodeEmailInUse,
		Message:       "同じメールアドレスの登録が同時に行われました。",
		Hint:          "しばらく待ってから再度お試しください。",
		ExistingEmail: email,
		Retryable:     true,
	}
}

// NewIdentityAlreadyRegisteredError はIDプロバイダー側にメールが登録済みの場合のエラーを生成する。
func NewIdentityAlreadyRegisteredError(email string) *APIError {
	return &APIError{
		Code:          ErrCodeIdentityExists,
		Message:       "このメールアドレスは認証基盤に既に登録されています。",
		Hint:          "既存ユーザーの招待状況を確認してください。",
		ExistingEmail: email,
	}
}

// NewIdentityInvalidEmailError はIDプロバイダーがメール形式を拒否した場合のエラーを生成する。
func NewIdentityInvalidEmailError() *APIError {
	return &APIError{
		Code:    ErrCodeIdentityBadEmail,
		Message: "認証基盤がメールアドレスの形式を受け付けませんでした。",
		Hint:    "メールアドレスを確認して再送信してください。",
	}
}

// NewIdentityProviderError はIDプロバイダーの分類不能な失敗エラーを生成する。
func NewIdentityProviderError() *APIError {
	return &APIError{
		Code:    ErrCodeIdentityProvider,
		Message: "招待メールの送信処理に失敗しました。",
		Hint:    "しばらく待ってから再度お試しください。",
	}
}

// NewPersistenceError はドメインレコードの保存失敗エラーを生成する。
func NewPersistenceError() *APIError {
	return &APIError{
		Code:    ErrCodePersistence,
		Message: "レコードの保存に失敗しました。",
		Hint:    "しばらく待ってから再度お試しください。",
	}
}

// NewConfigurationError はサーバー設定不備のエラーを生成する。
func NewConfigurationError(reason string) *APIError {
	return &APIError{
		Code:    ErrCodeConfiguration,
		Message: fmt.Sprintf("サーバー設定に不備があります: %s", reason),
		Hint:    "管理者に連絡してください。",
	}
}

// NewInvalidInviteTokenError は招待トークンの検証失敗エラーを生成する。
func NewInvalidInviteTokenError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidInvite,
		Message: "招待トークンが無効または期限切れです。",
		Hint:    "招待メールの再送を依頼してください。",
	}
}

// roleLabel は役割の表示名を返す。
func roleLabel(role Role) string {
	switch role {
	case RoleTenant:
		return "入居者"
	case RoleApartmentManager:
		return "物件管理者"
	default:
		return string(role)
	}
}
