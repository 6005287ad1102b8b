package blog

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

const gravatarBaseURL = "https://www.gravatar.com/avatar/"

// AvatarURL はメールアドレスからGravatarの画像URLを生成する。
// サイズ100、レーティングg、未登録時はretro画像。
func AvatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	q := url.Values{}
	q.Set("s", "100")
	q.Set("r", "g")
	q.Set("d", "retro")
	return gravatarBaseURL + hex.EncodeToString(sum[:]) + "?" + q.Encode()
}
