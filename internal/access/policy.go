package access

import "github.com/hitoshi/blog/internal/model"

// Policy はPrincipalに対する許可判定。許可する場合はnilを返す。
type Policy func(p Principal) error

// Public は誰でも許可する。
func Public(Principal) error {
	return nil
}

// RequireAuthenticated はログイン済みのユーザーのみ許可する。
// 匿名ユーザーにはAUTHENTICATION_REQUIREDを返す（呼び出し側でログインへ誘導する）。
func RequireAuthenticated(p Principal) error {
	if p.IsAnonymous() {
		return model.NewAuthenticationRequiredError()
	}
	return nil
}

// RequireAdmin は管理者のみ許可する。匿名ユーザーを含めそれ以外にはFORBIDDENを返す。
func RequireAdmin(p Principal) error {
	if !p.IsAdmin() {
		return model.NewForbiddenError()
	}
	return nil
}

// All は全てのポリシーを順に評価し、最初の拒否を返す。
func All(policies ...Policy) Policy {
	return func(p Principal) error {
		for _, policy := range policies {
			if err := policy(p); err != nil {
				return err
			}
		}
		return nil
	}
}
