package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

// 各Postgres実装が対応するインターフェースを満たすことを検証
func TestPostgresTenantRepo_ImplementsInterface(t *testing.T) {
	var _ TenantRepository = (*PostgresTenantRepo)(nil)
}

func TestPostgresManagerRepo_ImplementsInterface(t *testing.T) {
	var _ ApartmentManagerRepository = (*PostgresManagerRepo)(nil)
}

func TestPostgresUnitRepo_ImplementsInterface(t *testing.T) {
	var _ UnitRepository = (*PostgresUnitRepo)(nil)
}

func TestPostgresContractRepo_ImplementsInterface(t *testing.T) {
	var _ ContractRepository = (*PostgresContractRepo)(nil)
}

func TestPostgresEmailDirectory_ImplementsInterface(t *testing.T) {
	var _ EmailDirectory = (*PostgresEmailDirectory)(nil)
}

// 各コンストラクタが正しく初期化されることを検証
func TestNewRepos_Initialize(t *testing.T) {
	if NewPostgresTenantRepo(nil) == nil {
		t.Error("NewPostgresTenantRepo は nil を返してはならない")
	}
	if NewPostgresManagerRepo(nil) == nil {
		t.Error("NewPostgresManagerRepo は nil を返してはならない")
	}
	if NewPostgresUnitRepo(nil) == nil {
		t.Error("NewPostgresUnitRepo は nil を返してはならない")
	}
	if NewPostgresContractRepo(nil) == nil {
		t.Error("NewPostgresContractRepo は nil を返してはならない")
	}
	if NewPostgresEmailDirectory(nil) == nil {
		t.Error("NewPostgresEmailDirectory は nil を返してはならない")
	}
}

func TestIsUniqueViolation_PqUniqueError(t *testing.T) {
	err := &pq.Error{Code: "23505"}
	if !IsUniqueViolation(err) {
		t.Error("23505はユニーク制約違反として判定されるべき")
	}
}

func TestIsUniqueViolation_WrappedPqError(t *testing.T) {
	err := fmt.Errorf("failed to insert tenant: %w", &pq.Error{Code: "23505"})
	if !IsUniqueViolation(err) {
		t.Error("ラップされた23505もユニーク制約違反として判定されるべき")
	}
}

func TestIsUniqueViolation_OtherPqError(t *testing.T) {
	// 23503 = foreign_key_violation
	err := &pq.Error{Code: "23503"}
	if IsUniqueViolation(err) {
		t.Error("外部キー違反はユニーク制約違反として判定されるべきではない")
	}
}

func TestIsUniqueViolation_NonPqError(t *testing.T) {
	if IsUniqueViolation(errors.New("connection refused")) {
		t.Error("一般エラーはユニーク制約違反として判定されるべきではない")
	}
	if IsUniqueViolation(nil) {
		t.Error("nilはユニーク制約違反として判定されるべきではない")
	}
}
