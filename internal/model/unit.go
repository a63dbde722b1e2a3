package model

import "time"

// UnitStatus は部屋（ユニット）の入居状態を表す。
type UnitStatus string

const (
	// UnitStatusAvailable は空室を示す。
	UnitStatusAvailable UnitStatus = "available"
	// UnitStatusOccupied は入居済みを示す。
	UnitStatusOccupied UnitStatus = "occupied"
)

// Unit は物件内の1部屋を表す。
// Statusは契約作成の副作用として available → occupied に遷移する。
type Unit struct {
	ID        int64
	Name      string
	Branch    string
	Status    UnitStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContractStatus は賃貸契約の状態を表す。
type ContractStatus string

const (
	// ContractStatusActive は有効な契約を示す。
	ContractStatusActive ContractStatus = "active"
)

// Contract は入居者と部屋の賃貸契約を表す。
// EndDateはStartDateの1年後に設定される。
type Contract struct {
	ID        int64
	TenantID  int64
	UnitID    int64
	StartDate time.Time
	EndDate   time.Time
	Status    ContractStatus
	CreatedAt time.Time
}
