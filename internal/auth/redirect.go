package auth

import (
	"net/url"
	"strings"
)

// SafeNext はログイン後のリダイレクト先を決定する。
// クエリのnextをフォームのnextより優先し、サイト内の相対パスのみを許可する。
// 条件を満たさない場合とログアウトへ戻る場合は "/" を返す。
func SafeNext(queryNext, formNext string) string {
	next := queryNext
	if next == "" {
		next = formNext
	}
	if !isLocalPath(next) || isLogoutPath(next) {
		return "/"
	}
	return next
}

// ログイン直後に再びログアウトさせない
func isLogoutPath(p string) bool {
	u, err := url.Parse(p)
	if err != nil {
		return false
	}
	return strings.TrimSuffix(u.Path, "/") == "/logout"
}

func isLocalPath(p string) bool {
	if p == "" || !strings.HasPrefix(p, "/") {
		return false
	}
	// "//host" や "/\host" はブラウザによって外部ホストとして解釈される
	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}
