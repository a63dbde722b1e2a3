package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/sumika/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	JWTSecret         string
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 招待
	InviteService InviteServiceInterface
	Verifier      InviteVerifierInterface

	// 部屋
	UnitService UnitServiceInterface

	// 監視
	DB             DBPinger
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → Auth → RateLimit(General)
//
// 招待トークン検証（/auth/invitations/verify）とヘルスチェックは認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	invitationHandler := NewInvitationHandler(deps.InviteService)
	verifyHandler := NewVerifyHandler(deps.Verifier, deps.Logger)
	unitHandler := NewUnitHandler(deps.UnitService, deps.Logger)
	healthHandler := NewHealthHandler(deps.DB, deps.Logger)

	// --- 認証不要のルート ---

	// DB疎通まで確認する。Dockerヘルスチェックとオーケストレーターが参照する。
	r.Get("/health", healthHandler.Check)

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 招待メールのリンクから遷移した未認証ユーザーが使う
	r.Post("/auth/invitations/verify", verifyHandler.Verify)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.JWTSecret))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 招待送信（招待専用レート制限を追加）
		r.With(deps.RateLimiter.InviteMiddleware()).
			Post("/api/tenants/invitations", invitationHandler.InviteTenant)
		r.With(deps.RateLimiter.InviteMiddleware()).
			Post("/api/managers/invitations", invitationHandler.InviteManager)

		// 部屋一覧
		r.Get("/api/units", unitHandler.ListUnits)
	})

	return r
}
