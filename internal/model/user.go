// Package model はドメインモデルを定義する。
package model

import "time"

// Role は招待対象ユーザーの役割を表す。
type Role string

const (
	// RoleTenant は入居者（テナント）を示す。
	RoleTenant Role = "tenant"
	// RoleApartmentManager は物件管理者を示す。
	RoleApartmentManager Role = "apartment_manager"
)

// Tenant は入居者のドメインレコードを表す。
// Emailは正規化済み（小文字・前後空白除去済み）の値のみを保持する。
type Tenant struct {
	ID            int64
	IdentityID    string
	FirstName     string
	LastName      string
	Email         string
	ContactNumber string
	Branch        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ApartmentManager は物件管理者のドメインレコードを表す。
// Tenantと同形だが別テーブルに永続化される。
type ApartmentManager struct {
	ID            int64
	IdentityID    string
	FirstName     string
	LastName      string
	Email         string
	ContactNumber string
	Branch        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName は表示用の氏名を返す。
func (t *Tenant) FullName() string {
	return t.FirstName + " " + t.LastName
}

// FullName は表示用の氏名を返す。
func (m *ApartmentManager) FullName() string {
	return m.FirstName + " " + m.LastName
}
