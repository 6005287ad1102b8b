// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限種別を表す。
type Role string

const (
	// RoleAdmin は記事の作成・編集・削除が可能な管理者。
	// 最初に作成されたアカウントにのみ付与される。
	RoleAdmin Role = "admin"
	// RoleMember はコメントのみ可能な一般ユーザー。
	RoleMember Role = "member"
)

// User はブログの登録ユーザーを表す。
// Emailは一意制約を持たない（同一メールアドレスでの重複登録を許容する）。
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string // bcryptハッシュ（アルゴリズム・コスト・ソルトを内包）
	Role         Role
	CreatedAt    time.Time
}

// IsAdmin はユーザーが管理者かどうかを返す。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
