package middleware

import (
	"net/http"

	"github.com/hitoshi/blog/internal/access"
)

// DenyFunc はポリシーで拒否されたリクエストへの応答を書き込む。
type DenyFunc func(w http.ResponseWriter, r *http.Request, err error)

// RequirePolicy はコンテキストの実行主体にポリシーを適用するミドルウェアを返す。
// 拒否された場合はdenyに処理を委ね、後続のハンドラーは呼び出さない。
func RequirePolicy(policy access.Policy, deny DenyFunc) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := policy(PrincipalFromContext(r.Context())); err != nil {
				deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
