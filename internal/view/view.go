// Package view はhtml/templateによるページ描画を提供する。
// テンプレートはバイナリに埋め込まれ、起動時に一度だけパースされる。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blog/internal/access"
	"github.com/hitoshi/blog/internal/blog"
)

//go:embed templates/*.html
var templatesFS embed.FS

// ページ名。templates/<name>.html に対応する。
const (
	PageIndex    = "index"
	PagePost     = "post"
	PageLogin    = "login"
	PageRegister = "register"
	PageMakePost = "make-post"
	PageAbout    = "about"
	PageError    = "error"
)

var pages = []string{PageIndex, PagePost, PageLogin, PageRegister, PageMakePost, PageAbout, PageError}

// PageData はテンプレートに渡す表示用データ。
type PageData struct {
	Title     string
	Principal access.Principal
	CSRFToken string
	Flash     string

	// フォーム
	Form       map[string]string // 再表示する入力値
	Errors     map[string]string // フィールドごとのエラーメッセージ
	FormAction string
	IsEdit     bool
	Next       string

	// コンテンツ
	Posts    []blog.PostView
	Post     *blog.PostView
	Comments []blog.CommentView

	// エラーページ
	Status  int
	Message string
}

var functions = template.FuncMap{
	// safeHTML はサニタイズ済みの記事本文・コメントをエスケープせずに出力する。
	"safeHTML": func(s string) template.HTML {
		return template.HTML(s)
	},
}

// Renderer はパース済みテンプレートを保持し、ページを描画する。
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer は全ページのテンプレートをパースする。
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		ts, err := template.New(page).Funcs(functions).ParseFS(templatesFS,
			"templates/base.html",
			"templates/partials.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.pages[page] = ts
	}
	return r, nil
}

// Render はページを描画してレスポンスに書き込む。
// 描画はバッファに対して行い、失敗した場合は途中までのHTMLを送信しない。
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data *PageData) {
	if data == nil {
		data = &PageData{}
	}

	ts, ok := r.pages[page]
	if !ok {
		slog.Error("unknown template page", slog.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		slog.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
