package handler

import (
	"net/http"

	"github.com/hitoshi/blog/internal/auth"
	"github.com/hitoshi/blog/internal/middleware"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/view"
)

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はアカウント登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	*responder
	service AuthService
	config  AuthHandlerConfig
}

func newAuthHandler(rs *responder, service AuthService, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{responder: rs, service: service, config: config}
}

// RegisterForm は登録フォームを表示する。
// GET /register
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, view.PageRegister, h.page(r, "Register"))
}

// Register はアカウントを作成し、ログインページへリダイレクトする。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	in := auth.RegisterInput{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	if _, err := h.service.Register(r.Context(), in); err != nil {
		if vErr, ok := model.AsValidationError(err); ok {
			data := h.page(r, "Register")
			data.Form = map[string]string{"name": in.Name, "email": in.Email}
			data.Errors = vErr.Fields
			h.render(w, http.StatusOK, view.PageRegister, data)
			return
		}
		h.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginForm はログインフォームを表示する。
// GET /login?next=...
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "Log In")
	data.Next = r.URL.Query().Get("next")
	h.render(w, http.StatusOK, view.PageLogin, data)
}

// Login はメールアドレスとパスワードで認証し、セッションCookieを発行する。
// 遷移先はクエリのnextをフォームのnextより優先し、サイト内パスのみ許可する。
// POST /login?next=...
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	in := auth.LoginInput{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	next := auth.SafeNext(r.URL.Query().Get("next"), r.PostFormValue("next"))

	_, issued, err := h.service.Login(r.Context(), in)
	if err != nil {
		if vErr, ok := model.AsValidationError(err); ok {
			data := h.page(r, "Log In")
			data.Form = map[string]string{"email": in.Email}
			data.Errors = vErr.Fields
			data.Next = next
			h.render(w, http.StatusOK, view.PageLogin, data)
			return
		}
		if model.HasCode(err, model.ErrCodeBadCredentials) {
			h.redirectWithFlash(w, r, loginURL(next), model.NewBadCredentialsError().Message)
			return
		}
		h.handleError(w, r, err)
		return
	}

	h.setSessionCookie(w, issued.Token)
	h.redirectWithFlash(w, r, next, "You've logged in!")
}

// Logout はセッションを破棄し、ホームへリダイレクトする。
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		if err := h.service.TeardownSession(r.Context(), cookie.Value); err != nil {
			h.handleError(w, r, err)
			return
		}
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
