package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blog/internal/access"
	"github.com/hitoshi/blog/internal/metrics"
	"github.com/hitoshi/blog/internal/middleware"
	"github.com/hitoshi/blog/internal/view"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// 認証
	AuthService       AuthService
	PrincipalResolver middleware.PrincipalResolver
	AuthConfig        AuthHandlerConfig

	// 記事
	BlogService BlogService

	// 描画
	Renderer *view.Renderer

	// 運用
	Health         HealthChecker
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// NewRouter は全ルートとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Principal → Logging → Metrics → CSRF → Flash
//
// /healthz と /metrics はCSRF・フラッシュの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	cookieSecure := deps.AuthConfig.CookieSecure
	cookieDomain := deps.AuthConfig.CookieDomain

	rs := &responder{
		renderer: deps.Renderer,
		flash:    middleware.NewFlash(middleware.FlashConfig{CookieSecure: cookieSecure, CookieDomain: cookieDomain}),
		denials:  deps.Metrics,
	}
	authHandler := newAuthHandler(rs, deps.AuthService, deps.AuthConfig)
	postHandler := newPostHandler(rs, deps.BlogService)
	pageHandler := newPageHandler(rs, deps.Health)

	requireAuthenticated := middleware.RequirePolicy(access.RequireAuthenticated, rs.handleError)
	requireAdmin := middleware.RequirePolicy(access.RequireAdmin, rs.handleError)

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(http.HandlerFunc(rs.internalError)))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewPrincipalMiddleware(deps.PrincipalResolver))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	r.NotFound(rs.notFound)

	// --- 運用エンドポイント ---
	r.Get("/healthz", pageHandler.Healthz)
	r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)

	// --- ページ ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(middleware.CSRFConfig{
			CookieSecure: cookieSecure,
			CookieDomain: cookieDomain,
			Metrics:      deps.Metrics,
		}))
		r.Use(rs.flash.Middleware)

		// 公開
		r.Get("/", postHandler.Index)
		r.Get("/register", authHandler.RegisterForm)
		r.Post("/register", authHandler.Register)
		r.Get("/login", authHandler.LoginForm)
		r.Post("/login", authHandler.Login)
		r.Get("/post/{post_id}", postHandler.Show)
		// コメント投稿の認可はワークフロー内で判定し、ログインへ誘導する
		r.Post("/post/{post_id}", postHandler.Comment)

		// ログイン必須
		r.With(requireAuthenticated).Get("/logout", authHandler.Logout)
		r.With(requireAuthenticated).Get("/about", pageHandler.About)

		// 管理者のみ
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/new-post", postHandler.NewPostForm)
			r.Post("/new-post", postHandler.CreatePost)
			r.Get("/edit-post/{post_id}", postHandler.EditPostForm)
			r.Post("/edit-post/{post_id}", postHandler.UpdatePost)
			r.Get("/delete/{post_id}", postHandler.DeletePost)
		})
	})

	return r
}
