// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/blog/internal/access"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var principalContextKey = contextKey("principal")

// PrincipalResolver はセッショントークンから実行主体を復元する。
// auth.Serviceが実装する。
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) access.Principal
}

// NewPrincipalMiddleware はCookieのセッショントークンから実行主体を解決し、
// リクエストコンテキストに注入するミドルウェアを返す。
// トークンがない・無効な場合もリクエストは拒否せず、Anonymousとして続行する。
func NewPrincipalMiddleware(resolver PrincipalResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := access.Anonymous
			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				p = resolver.ResolvePrincipal(r.Context(), cookie.Value)
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// PrincipalFromContext はリクエストコンテキストから実行主体を取得する。
// 未設定の場合はAnonymousを返す。
func PrincipalFromContext(ctx context.Context) access.Principal {
	p, ok := ctx.Value(principalContextKey).(access.Principal)
	if !ok {
		return access.Anonymous
	}
	return p
}

// ContextWithPrincipal はコンテキストに実行主体を注入する。
func ContextWithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}
