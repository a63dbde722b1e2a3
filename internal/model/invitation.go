package model

// InvitationRequest は招待APIのリクエスト内容を表す。
// FirstName、LastName、Email、Branchは必須。UnitIDはテナント招待でのみ指定可能。
type InvitationRequest struct {
	FirstName     string
	LastName      string
	Email         string
	ContactNumber string
	Branch        string
	UnitID        *int64
}

// InvitationResult は招待成功時の結果を表す。
// EmailはNormalizedEmail（小文字・前後空白除去済み）の形で返る。
type InvitationResult struct {
	IdentityID string
	Email      string
	Role       Role
}
