package invite

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hitoshi/sumika/internal/identity"
	"github.com/hitoshi/sumika/internal/metrics"
	"github.com/hitoshi/sumika/internal/model"
	"github.com/hitoshi/sumika/internal/repository"
)

// IdentityClient は招待ワークフローが必要とするIDプロバイダ操作のインターフェース。
type IdentityClient interface {
	CreateInvitedUser(ctx context.Context, params identity.InviteParams) (*identity.User, error)
	DeleteUser(ctx context.Context, identityID string) error
	ListUsers(ctx context.Context) ([]identity.User, error)
}

// ownerRow は役割テーブル内の既存行の要約。自己衝突の照合に使う。
type ownerRow struct {
	domainID   int64
	identityID string
	email      string
}

// roleProfile は役割ごとの差分（テーブル操作と部屋割り当ての有無）をまとめた戦略。
// ワークフロー本体は役割に依存せず、このプロファイル経由でのみテーブルを触る。
type roleProfile struct {
	role model.Role
	// insert はドメイン行を作成し、採番されたIDを返す。
	insert func(ctx context.Context, req *model.InvitationRequest, email, identityID string) (int64, error)
	// findByEmail はこの役割のテーブルから既存行を検索する。見つからない場合はnilを返す。
	findByEmail func(ctx context.Context, email string) (*ownerRow, error)
	// assignUnit は成功後に部屋・契約の割り当てを行うかどうか。
	assignUnit bool
}

// Service は招待ワークフローの調整役。
// 検証 → 正規化 → 重複解決 → 孤児ID整理 → ID作成 → ドメイン行挿入 →（入居者のみ）部屋割り当て
// の順に実行し、ID作成後の失敗ではIDを削除する補償を行う。
type Service struct {
	identity    IdentityClient
	resolver    *Resolver
	tenants     repository.TenantRepository
	managers    repository.ApartmentManagerRepository
	assigner    *Assigner
	metrics     metrics.MetricsCollector
	logger      *slog.Logger
	redirectURL string
}

// NewService はServiceを生成する。
func NewService(
	identityClient IdentityClient,
	resolver *Resolver,
	tenants repository.TenantRepository,
	managers repository.ApartmentManagerRepository,
	assigner *Assigner,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	redirectURL string,
) *Service {
	return &Service{
		identity:    identityClient,
		resolver:    resolver,
		tenants:     tenants,
		managers:    managers,
		assigner:    assigner,
		metrics:     collector,
		logger:      logger,
		redirectURL: redirectURL,
	}
}

// Invite は指定された役割で招待ワークフローを実行する。
// 成功時はInvitationResultを返す。失敗時のエラーは原則*model.APIError。
func (s *Service) Invite(ctx context.Context, role model.Role, req *model.InvitationRequest) (*model.InvitationResult, error) {
	start := time.Now()

	profile, err := s.profile(role)
	if err != nil {
		return nil, err
	}

	if apiErr := ValidateRequest(req); apiErr != nil {
		return nil, apiErr
	}

	email := NormalizeEmail(req.Email)

	// 両テーブル横断の重複チェック。既存所有者がいれば何も作らずに中断する。
	owner, rerr := s.resolver.Resolve(ctx, email)
	if rerr != nil {
		s.logger.Error("メール重複チェックに失敗しました",
			slog.String("email", email),
			slog.String("error", rerr.Error()),
		)
		return nil, model.NewPersistenceError()
	}
	if owner != nil {
		s.metrics.RecordInvitationConflict(string(role))
		return nil, model.NewConflictError(owner.Role, owner.Email)
	}

	// ID作成直前の再チェック。同じメールのIDが既に存在する場合、
	// ドメイン行を持つなら衝突、持たないなら過去の失敗が残した孤児として削除する。
	if apiErr := s.reapOrphanIdentity(ctx, role, email); apiErr != nil {
		return nil, apiErr
	}

	var created *identity.User
	var domainID int64

	sg := newSaga(s.logger)
	sg.addStep(sagaStep{
		name: "create_identity",
		run: func(ctx context.Context) error {
			user, cerr := s.identity.CreateInvitedUser(ctx, identity.InviteParams{
				Email:       email,
				RedirectURL: s.redirectURL,
				Metadata: map[string]any{
					"name":   req.FirstName + " " + req.LastName,
					"role":   string(role),
					"uiRole": string(role),
					"branch": req.Branch,
				},
			})
			if cerr != nil {
				return s.classifyIdentityError(cerr, email)
			}
			created = user
			return nil
		},
		compensate: func(ctx context.Context) error {
			s.metrics.RecordCompensation(string(role))
			return s.identity.DeleteUser(ctx, created.ID)
		},
	})
	sg.addStep(sagaStep{
		name: "insert_record",
		run: func(ctx context.Context) error {
			id, ierr := profile.insert(ctx, req, email, created.ID)
			if ierr == nil {
				domainID = id
				return nil
			}
			return s.reconcileInsertFailure(ctx, profile, email, created.ID, ierr, &domainID)
		},
	})

	if serr := sg.run(ctx); serr != nil {
		return nil, serr
	}

	// 部屋割り当ての失敗は非致命的。IDとドメイン行は既に存在するため
	// 招待自体は成功として報告し、割り当ては後からやり直せる。
	if profile.assignUnit && req.UnitID != nil {
		if aerr := s.assigner.Assign(ctx, domainID, *req.UnitID); aerr != nil {
			s.metrics.RecordAssignmentFailure()
			s.logger.Warn("部屋・契約の割り当てに失敗しました（招待は成功扱い）",
				slog.Int64("tenant_id", domainID),
				slog.Int64("unit_id", *req.UnitID),
				slog.String("error", aerr.Error()),
			)
		}
	}

	s.metrics.RecordInvitationSuccess(string(role))
	s.metrics.RecordInvitationDuration(string(role), time.Since(start))
	s.logger.Info("招待が完了しました",
		slog.String("identity_id", created.ID),
		slog.String("email", email),
		slog.String("role", string(role)),
		slog.String("branch", req.Branch),
	)

	return &model.InvitationResult{
		IdentityID: created.ID,
		Email:      email,
		Role:       role,
	}, nil
}

// reconcileInsertFailure はドメイン行挿入の失敗を分類する。
// ユニーク制約違反の場合はテーブルを再読して自己衝突（自身の挿入が実は
// コミット済みだった良性の競合）かどうかを照合する。
func (s *Service) reconcileInsertFailure(ctx context.Context, profile *roleProfile, email, identityID string, insertErr error, domainID *int64) error {
	if !repository.IsUniqueViolation(insertErr) {
		s.logger.Error("ドメイン行の挿入に失敗しました",
			slog.String("role", string(profile.role)),
			slog.String("email", email),
			slog.String("error", insertErr.Error()),
		)
		return model.NewPersistenceError()
	}

	row, ferr := profile.findByEmail(ctx, email)
	if ferr != nil {
		s.logger.Error("ユニーク制約違反後の再読に失敗しました",
			slog.String("email", email),
			slog.String("error", ferr.Error()),
		)
		return model.NewPersistenceError()
	}

	if row == nil {
		// 違反が報告されたのに行が見えない。一時的な競合として扱う。
		return model.NewRetryableConflictError(email)
	}

	if row.identityID == identityID {
		// 自身の挿入が既にコミット済み。成功として扱う。
		s.logger.Info("ユニーク制約違反は自身の挿入との衝突でした",
			slog.String("email", email),
			slog.String("identity_id", identityID),
		)
		*domainID = row.domainID
		return nil
	}

	s.metrics.RecordInvitationConflict(string(profile.role))
	return model.NewConflictError(profile.role, row.email)
}

// reapOrphanIdentity はIDプロバイダに同じメールのIDが存在しないかを確認する。
// ドメイン行を持つIDが見つかれば衝突エラーを返す。行を持たないIDは孤児として削除する。
// 一覧取得の失敗は致命的としない（ベストエフォートの二重チェック）。
func (s *Service) reapOrphanIdentity(ctx context.Context, role model.Role, email string) *model.APIError {
	users, err := s.identity.ListUsers(ctx)
	if err != nil {
		s.logger.Warn("ID一覧の取得に失敗したため事前チェックをスキップします",
			slog.String("error", err.Error()),
		)
		return nil
	}

	for _, u := range users {
		if NormalizeEmail(u.Email) != email {
			continue
		}

		tenant, terr := s.tenants.FindByIdentityID(ctx, u.ID)
		if terr == nil && tenant != nil {
			s.metrics.RecordInvitationConflict(string(role))
			return model.NewConflictError(model.RoleTenant, tenant.Email)
		}
		manager, merr := s.managers.FindByIdentityID(ctx, u.ID)
		if merr == nil && manager != nil {
			s.metrics.RecordInvitationConflict(string(role))
			return model.NewConflictError(model.RoleApartmentManager, manager.Email)
		}
		if terr != nil || merr != nil {
			// ドメイン行の有無を断定できない場合は削除しない
			s.logger.Warn("孤児ID判定のための検索に失敗しました",
				slog.String("identity_id", u.ID),
			)
			continue
		}

		// ドメイン行を持たない孤児ID。削除してから招待を続行する。
		if derr := s.identity.DeleteUser(ctx, u.ID); derr != nil {
			s.logger.Warn("孤児IDの削除に失敗しました",
				slog.String("identity_id", u.ID),
				slog.String("error", derr.Error()),
			)
		} else {
			s.logger.Info("孤児IDを削除しました",
				slog.String("identity_id", u.ID),
				slog.String("email", email),
			)
		}
	}

	return nil
}

// classifyIdentityError はIDプロバイダのエラーを利用者向けエラーに変換する。
func (s *Service) classifyIdentityError(err error, email string) error {
	switch {
	case errors.Is(err, identity.ErrAlreadyRegistered):
		s.metrics.RecordIdentityError("already_registered")
		return model.NewIdentityAlreadyRegisteredError(email)
	case errors.Is(err, identity.ErrInvalidEmail):
		s.metrics.RecordIdentityError("invalid_email")
		return model.NewIdentityInvalidEmailError()
	default:
		s.metrics.RecordIdentityError("provider_error")
		s.logger.Error("IDプロバイダでのID作成に失敗しました",
			slog.String("error", err.Error()),
		)
		return model.NewIdentityProviderError()
	}
}

// profile は役割に対応するプロファイルを返す。
func (s *Service) profile(role model.Role) (*roleProfile, error) {
	switch role {
	case model.RoleTenant:
		return &roleProfile{
			role: model.RoleTenant,
			insert: func(ctx context.Context, req *model.InvitationRequest, email, identityID string) (int64, error) {
				tenant := &model.Tenant{
					IdentityID:    identityID,
					FirstName:     req.FirstName,
					LastName:      req.LastName,
					Email:         email,
					ContactNumber: req.ContactNumber,
					Branch:        req.Branch,
				}
				if err := s.tenants.Create(ctx, tenant); err != nil {
					return 0, err
				}
				return tenant.ID, nil
			},
			findByEmail: func(ctx context.Context, email string) (*ownerRow, error) {
				tenant, err := s.tenants.FindByEmail(ctx, email)
				if err != nil || tenant == nil {
					return nil, err
				}
				return &ownerRow{domainID: tenant.ID, identityID: tenant.IdentityID, email: tenant.Email}, nil
			},
			assignUnit: true,
		}, nil
	case model.RoleApartmentManager:
		return &roleProfile{
			role: model.RoleApartmentManager,
			insert: func(ctx context.Context, req *model.InvitationRequest, email, identityID string) (int64, error) {
				manager := &model.ApartmentManager{
					IdentityID:    identityID,
					FirstName:     req.FirstName,
					LastName:      req.LastName,
					Email:         email,
					ContactNumber: req.ContactNumber,
					Branch:        req.Branch,
				}
				if err := s.managers.Create(ctx, manager); err != nil {
					return 0, err
				}
				return manager.ID, nil
			},
			findByEmail: func(ctx context.Context, email string) (*ownerRow, error) {
				manager, err := s.managers.FindByEmail(ctx, email)
				if err != nil || manager == nil {
					return nil, err
				}
				return &ownerRow{domainID: manager.ID, identityID: manager.IdentityID, email: manager.Email}, nil
			},
			assignUnit: false,
		}, nil
	default:
		return nil, model.NewConfigurationError("未知の役割です: " + string(role))
	}
}
