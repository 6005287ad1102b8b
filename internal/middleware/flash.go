package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
)

const flashCookieName = "flash"

var flashContextKey = contextKey("flash")

// FlashConfig はフラッシュメッセージCookieの設定。
type FlashConfig struct {
	CookieSecure bool
	CookieDomain string
}

// Flash は次のリクエストで一度だけ表示するメッセージを扱う。
type Flash struct {
	config FlashConfig
}

// NewFlash はFlashを生成する。
func NewFlash(config FlashConfig) *Flash {
	return &Flash{config: config}
}

// Set はメッセージをCookieに保存する。リダイレクト先のリクエストで表示される。
func (f *Flash) Set(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		Domain:   f.config.CookieDomain,
		MaxAge:   60,
		HttpOnly: true,
		Secure:   f.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware はフラッシュメッセージをCookieから取り出してコンテキストに格納し、Cookieを削除する。
func (f *Flash) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(flashCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		f.clear(w)
		decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), flashContextKey, string(decoded))))
	})
}

func (f *Flash) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		Domain:   f.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   f.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FlashFromContext は現在のリクエストで表示するフラッシュメッセージを返す。
func FlashFromContext(ctx context.Context) string {
	msg, _ := ctx.Value(flashContextKey).(string)
	return msg
}
