package invite

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/sumika/internal/identity"
	"github.com/hitoshi/sumika/internal/metrics"
	"github.com/hitoshi/sumika/internal/model"
	"github.com/hitoshi/sumika/internal/repository"
)

// --- モック定義 ---

type mockIdentityClient struct {
	createFn func(ctx context.Context, params identity.InviteParams) (*identity.User, error)
	deleteFn func(ctx context.Context, identityID string) error
	listFn   func(ctx context.Context) ([]identity.User, error)

	mu         sync.Mutex
	deletedIDs []string
	createdNum int
}

func (m *mockIdentityClient) CreateInvitedUser(ctx context.Context, params identity.InviteParams) (*identity.User, error) {
	m.mu.Lock()
	m.createdNum++
	m.mu.Unlock()
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return &identity.User{ID: "identity-1", Email: params.Email}, nil
}

func (m *mockIdentityClient) DeleteUser(ctx context.Context, identityID string) error {
	m.mu.Lock()
	m.deletedIDs = append(m.deletedIDs, identityID)
	m.mu.Unlock()
	if m.deleteFn != nil {
		return m.deleteFn(ctx, identityID)
	}
	return nil
}

func (m *mockIdentityClient) ListUsers(ctx context.Context) ([]identity.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockIdentityClient) deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deletedIDs...)
}

type mockTenantRepo struct {
	createFn           func(ctx context.Context, tenant *model.Tenant) error
	findByEmailFn      func(ctx context.Context, email string) (*model.Tenant, error)
	findByIdentityIDFn func(ctx context.Context, identityID string) (*model.Tenant, error)
	listIdentityIDsFn  func(ctx context.Context) ([]string, error)
	deleteFn           func(ctx context.Context, identityID string) error
}

func (m *mockTenantRepo) Create(ctx context.Context, tenant *model.Tenant) error {
	if m.createFn != nil {
		return m.createFn(ctx, tenant)
	}
	tenant.ID = 1
	return nil
}

func (m *mockTenantRepo) FindByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockTenantRepo) FindByIdentityID(ctx context.Context, identityID string) (*model.Tenant, error) {
	if m.findByIdentityIDFn != nil {
		return m.findByIdentityIDFn(ctx, identityID)
	}
	return nil, nil
}

func (m *mockTenantRepo) ListIdentityIDs(ctx context.Context) ([]string, error) {
	if m.listIdentityIDsFn != nil {
		return m.listIdentityIDsFn(ctx)
	}
	return nil, nil
}

func (m *mockTenantRepo) DeleteByIdentityID(ctx context.Context, identityID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, identityID)
	}
	return nil
}

type mockManagerRepo struct {
	createFn           func(ctx context.Context, manager *model.ApartmentManager) error
	findByEmailFn      func(ctx context.Context, email string) (*model.ApartmentManager, error)
	findByIdentityIDFn func(ctx context.Context, identityID string) (*model.ApartmentManager, error)
	listIdentityIDsFn  func(ctx context.Context) ([]string, error)
	deleteFn           func(ctx context.Context, identityID string) error
}

func (m *mockManagerRepo) Create(ctx context.Context, manager *model.ApartmentManager) error {
	if m.createFn != nil {
		return m.createFn(ctx, manager)
	}
	manager.ID = 1
	return nil
}

func (m *mockManagerRepo) FindByEmail(ctx context.Context, email string) (*model.ApartmentManager, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockManagerRepo) FindByIdentityID(ctx context.Context, identityID string) (*model.ApartmentManager, error) {
	if m.findByIdentityIDFn != nil {
		return m.findByIdentityIDFn(ctx, identityID)
	}
	return nil, nil
}

func (m *mockManagerRepo) ListIdentityIDs(ctx context.Context) ([]string, error) {
	if m.listIdentityIDsFn != nil {
		return m.listIdentityIDsFn(ctx)
	}
	return nil, nil
}

func (m *mockManagerRepo) DeleteByIdentityID(ctx context.Context, identityID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, identityID)
	}
	return nil
}

type mockUnitRepo struct {
	findByIDFn     func(ctx context.Context, id int64) (*model.Unit, error)
	listByStatusFn func(ctx context.Context, status model.UnitStatus) ([]*model.Unit, error)
	updateStatusFn func(ctx context.Context, id int64, status model.UnitStatus) error
}

func (m *mockUnitRepo) FindByID(ctx context.Context, id int64) (*model.Unit, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUnitRepo) ListByStatus(ctx context.Context, status model.UnitStatus) ([]*model.Unit, error) {
	if m.listByStatusFn != nil {
		return m.listByStatusFn(ctx, status)
	}
	return nil, nil
}

func (m *mockUnitRepo) UpdateStatus(ctx context.Context, id int64, status model.UnitStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

type mockContractRepo struct {
	createFn func(ctx context.Context, contract *model.Contract) error

	mu      sync.Mutex
	created []*model.Contract
}

func (m *mockContractRepo) Create(ctx context.Context, contract *model.Contract) error {
	m.mu.Lock()
	m.created = append(m.created, contract)
	m.mu.Unlock()
	if m.createFn != nil {
		return m.createFn(ctx, contract)
	}
	contract.ID = int64(len(m.created))
	return nil
}

func (m *mockContractRepo) ListActiveByTenantID(ctx context.Context, tenantID int64) ([]*model.Contract, error) {
	return nil, nil
}

type mockDirectory struct {
	findOwnerFn func(ctx context.Context, email string) (*repository.EmailOwner, error)
}

func (m *mockDirectory) FindOwner(ctx context.Context, email string) (*repository.EmailOwner, error) {
	if m.findOwnerFn != nil {
		return m.findOwnerFn(ctx, email)
	}
	return nil, nil
}

// recordingMetrics はテスト用にメトリクス呼び出しを数えるだけの実装。
type recordingMetrics struct {
	mu            sync.Mutex
	successes     int
	conflicts     int
	compensations int
	assignFails   int
}

func (r *recordingMetrics) RecordInvitationSuccess(role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes++
}

func (r *recordingMetrics) RecordInvitationConflict(role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}

func (r *recordingMetrics) RecordIdentityError(reason string) {}

func (r *recordingMetrics) RecordCompensation(role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compensations++
}

func (r *recordingMetrics) RecordAssignmentFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignFails++
}

func (r *recordingMetrics) RecordReconcileDeleted(count int)                             {}
func (r *recordingMetrics) RecordInvitationDuration(role string, duration time.Duration) {}

// --- compile-time interface checks ---
var _ IdentityClient = (*mockIdentityClient)(nil)
var _ repository.TenantRepository = (*mockTenantRepo)(nil)
var _ repository.ApartmentManagerRepository = (*mockManagerRepo)(nil)
var _ repository.UnitRepository = (*mockUnitRepo)(nil)
var _ repository.ContractRepository = (*mockContractRepo)(nil)
var _ repository.EmailDirectory = (*mockDirectory)(nil)
var _ metrics.MetricsCollector = (*recordingMetrics)(nil)

// --- テスト用の組み立てヘルパー ---

type testDeps struct {
	identity  *mockIdentityClient
	tenants   *mockTenantRepo
	managers  *mockManagerRepo
	units     *mockUnitRepo
	contracts *mockContractRepo
	directory *mockDirectory
	metrics   *recordingMetrics
	logBuf    *bytes.Buffer
}

func newTestService(deps *testDeps) *Service {
	logger := slog.New(slog.NewJSONHandler(deps.logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	resolver := NewResolver(deps.directory, deps.tenants, deps.managers, logger)
	assigner := NewAssigner(deps.units, deps.contracts, logger)
	return NewService(deps.identity, resolver, deps.tenants, deps.managers, assigner,
		deps.metrics, logger, "https://app.example.com/welcome")
}

func newTestDeps() *testDeps {
	return &testDeps{
		identity:  &mockIdentityClient{},
		tenants:   &mockTenantRepo{},
		managers:  &mockManagerRepo{},
		units:     &mockUnitRepo{},
		contracts: &mockContractRepo{},
		directory: &mockDirectory{},
		metrics:   &recordingMetrics{},
		logBuf:    &bytes.Buffer{},
	}
}
