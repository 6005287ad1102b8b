// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer は記事本文とコメントのHTMLをサニタイズする。
// bluemondayの許可リストベースのポリシーで、安全なタグと属性のみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer はユーザー入力HTMLのサニタイズ機能のインターフェース。
// 記事・コメントの保存前に使用される。
type ContentSanitizer interface {
	// SanitizePost は記事本文をサニタイズする。
	// 見出し・リスト・引用・コード・画像・表などリッチエディタの出力を許可し、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	SanitizePost(rawHTML string) string

	// SanitizeComment はコメントをサニタイズする。
	// 記事本文より狭い、文字装飾とリンク程度のタグのみを許可する。
	SanitizeComment(rawHTML string) string
}

// contentSanitizer はContentSanitizerの実装。
// bluemondayのPolicyはスレッドセーフに使用できる。
type contentSanitizer struct {
	post    *bluemonday.Policy
	comment *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerを生成する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		post:    newPostPolicy(),
		comment: newCommentPolicy(),
	}
}

// newPostPolicy は記事本文用のポリシーを構築する。
//   - 許可タグ: 見出し, p, br, hr, 文字装飾, リスト, blockquote, pre, code, figure, table, a, img
//   - aのhrefとimgのsrcはhttp/httpsまたはサイト内相対URLのみ
//   - 外部リンクには target="_blank" と rel="noopener noreferrer" を付与
func newPostPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr", "span",
		"strong", "b", "em", "i", "u", "s", "sub", "sup",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"figure", "figcaption",
		"table", "thead", "tbody", "tr", "th", "td",
	)

	allowLinks(p)

	p.AllowAttrs("src", "alt", "width", "height").OnElements("img")

	return p
}

// newCommentPolicy はコメント用のポリシーを構築する。画像は許可しない。
func newCommentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br",
		"strong", "b", "em", "i", "u", "s",
		"ul", "ol", "li",
		"blockquote", "code",
	)

	allowLinks(p)

	return p
}

func allowLinks(p *bluemonday.Policy) {
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.AllowRelativeURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
}

// SanitizePost は記事本文をサニタイズする。
func (s *contentSanitizer) SanitizePost(rawHTML string) string {
	return s.post.Sanitize(rawHTML)
}

// SanitizeComment はコメントをサニタイズする。
func (s *contentSanitizer) SanitizeComment(rawHTML string) string {
	return s.comment.Sanitize(rawHTML)
}
