// Package access はリクエストの実行主体（Principal）と、
// ルートごとのアクセスポリシーを純粋関数として提供する。
// HTTPフレームワークに依存せず、ワークフローから直接呼び出せる。
package access

import "github.com/hitoshi/blog/internal/model"

// Principal は現在のリクエストを実行しているユーザーを表す。
// ゼロ値は匿名ユーザー（Anonymous）。
type Principal struct {
	UserID int64
	Name   string
	Email  string
	Role   model.Role
}

// Anonymous は未ログインの実行主体。
var Anonymous = Principal{}

// FromUser はユーザーからPrincipalを生成する。nilの場合はAnonymousを返す。
func FromUser(u *model.User) Principal {
	if u == nil {
		return Anonymous
	}
	return Principal{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
	}
}

// IsAnonymous は未ログインかどうかを返す。
func (p Principal) IsAnonymous() bool {
	return p.UserID == 0
}

// IsAdmin は管理者かどうかを返す。匿名ユーザーは常にfalse。
func (p Principal) IsAdmin() bool {
	return !p.IsAnonymous() && p.Role == model.RoleAdmin
}
