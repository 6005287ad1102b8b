package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/blog/internal/access"
	"github.com/hitoshi/blog/internal/model"
)

type mockResolver struct {
	resolveFn func(ctx context.Context, token string) access.Principal
	calls     int
}

func (m *mockResolver) ResolvePrincipal(ctx context.Context, token string) access.Principal {
	m.calls++
	if m.resolveFn != nil {
		return m.resolveFn(ctx, token)
	}
	return access.Anonymous
}

func servePrincipal(t *testing.T, resolver PrincipalResolver, req *http.Request) (access.Principal, int) {
	t.Helper()
	var got access.Principal
	handler := NewPrincipalMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return got, w.Code
}

// TestPrincipalMiddleware_ValidToken は有効なトークンの実行主体が注入されることを検証する。
func TestPrincipalMiddleware_ValidToken(t *testing.T) {
	resolver := &mockResolver{
		resolveFn: func(_ context.Context, token string) access.Principal {
			if token == "good" {
				return access.Principal{UserID: 1, Name: "Alice", Role: model.RoleAdmin}
			}
			return access.Anonymous
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good"})

	p, code := servePrincipal(t, resolver, req)
	if code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if p.UserID != 1 || !p.IsAdmin() {
		t.Errorf("principal = %+v", p)
	}
}

// TestPrincipalMiddleware_NeverRejects はトークンがない・無効な場合も匿名で続行することを検証する。
func TestPrincipalMiddleware_NeverRejects(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"empty cookie", &http.Cookie{Name: SessionCookieName, Value: ""}},
		{"invalid token", &http.Cookie{Name: SessionCookieName, Value: "bad"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &mockResolver{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}

			p, code := servePrincipal(t, resolver, req)
			if code != http.StatusOK {
				t.Errorf("status = %d, want 200", code)
			}
			if !p.IsAnonymous() {
				t.Errorf("principal = %+v, want anonymous", p)
			}
		})
	}
}

// TestPrincipalMiddleware_SkipsResolverWithoutCookie はCookieがない場合に解決処理を呼ばないことを検証する。
func TestPrincipalMiddleware_SkipsResolverWithoutCookie(t *testing.T) {
	resolver := &mockResolver{}
	servePrincipal(t, resolver, httptest.NewRequest(http.MethodGet, "/", nil))

	if resolver.calls != 0 {
		t.Errorf("resolver called %d times, want 0", resolver.calls)
	}
}

// TestPrincipalFromContext_Default は未設定のコンテキストでAnonymousを返すことを検証する。
func TestPrincipalFromContext_Default(t *testing.T) {
	if p := PrincipalFromContext(context.Background()); p != access.Anonymous {
		t.Errorf("principal = %+v, want anonymous", p)
	}
}
