package handler

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/hitoshi/blog/internal/blog"
	"github.com/hitoshi/blog/internal/middleware"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/view"
)

// PostHandler は記事とコメントのHTTPハンドラー。
type PostHandler struct {
	*responder
	service BlogService
}

func newPostHandler(rs *responder, service BlogService) *PostHandler {
	return &PostHandler{responder: rs, service: service}
}

// Index は記事一覧を表示する。
// GET /
func (h *PostHandler) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	data := h.page(r, "")
	data.Posts = posts
	h.render(w, http.StatusOK, view.PageIndex, data)
}

// Show は記事とコメントを表示する。
// GET /post/{post_id}
func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := postIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.renderPost(w, r, id, nil)
}

// Comment は記事にコメントを投稿する。
// 未ログインの場合はログインページへ、記事URLを遷移先として付けてリダイレクトする。
// POST /post/{post_id}
func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	id, err := postIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	in := blog.CommentInput{Text: r.PostFormValue("comment_text")}
	p := middleware.PrincipalFromContext(r.Context())

	if _, err := h.service.CreateComment(r.Context(), p, id, in); err != nil {
		if model.HasCode(err, model.ErrCodeAuthenticationRequired) {
			h.recordDenial(r, model.ErrCodeAuthenticationRequired)
			h.redirectWithFlash(w, r, loginURL(postPath(id)), "Please Log in before leaving a comment!")
			return
		}
		if vErr, ok := model.AsValidationError(err); ok {
			h.renderPost(w, r, id, &formState{
				values: map[string]string{"comment_text": in.Text},
				errors: vErr.Fields,
			})
			return
		}
		h.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, postPath(id), http.StatusFound)
}

// NewPostForm は記事作成フォームを表示する。
// GET /new-post
func (h *PostHandler) NewPostForm(w http.ResponseWriter, r *http.Request) {
	h.renderPostForm(w, r, "/new-post", false, nil)
}

// CreatePost は記事を作成し、ホームへリダイレクトする。
// POST /new-post
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	in := postInputFromRequest(r)
	p := middleware.PrincipalFromContext(r.Context())

	if _, err := h.service.CreatePost(r.Context(), p, in); err != nil {
		if fs, ok := postFormState(in, err); ok {
			h.renderPostForm(w, r, "/new-post", false, fs)
			return
		}
		h.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// EditPostForm は既存記事を初期値とした編集フォームを表示する。
// GET /edit-post/{post_id}
func (h *PostHandler) EditPostForm(w http.ResponseWriter, r *http.Request) {
	id, err := postIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.renderPostForm(w, r, editPath(id), true, &formState{values: postFormValues(blog.PostInputFrom(post.Post))})
}

// UpdatePost は記事を更新し、記事ページへリダイレクトする。
// POST /edit-post/{post_id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := postIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	in := postInputFromRequest(r)
	p := middleware.PrincipalFromContext(r.Context())

	if _, err := h.service.UpdatePost(r.Context(), p, id, in); err != nil {
		if fs, ok := postFormState(in, err); ok {
			h.renderPostForm(w, r, editPath(id), true, fs)
			return
		}
		h.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, postPath(id), http.StatusFound)
}

// DeletePost は記事を削除し、ホームへリダイレクトする。
// GETで削除するため、クエリのcsrf_tokenがCSRF Cookieと一致することを確認する。
// GET /delete/{post_id}?csrf_token=...
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := postIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	expected := middleware.CSRFTokenFromContext(r.Context())
	submitted := r.URL.Query().Get(middleware.CSRFFieldName)
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) != 1 {
		h.renderStatusMessage(w, r, http.StatusForbidden, "CSRF token validation failed")
		return
	}

	p := middleware.PrincipalFromContext(r.Context())
	if err := h.service.DeletePost(r.Context(), p, id); err != nil {
		h.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// formState は再表示するフォームの入力値とエラー。
type formState struct {
	values map[string]string
	errors map[string]string
}

func (h *PostHandler) renderPost(w http.ResponseWriter, r *http.Request, id int64, fs *formState) {
	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	comments, err := h.service.GetComments(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	data := h.page(r, post.Title)
	data.Post = post
	data.Comments = comments
	if fs != nil {
		data.Form = fs.values
		data.Errors = fs.errors
	}
	h.render(w, http.StatusOK, view.PagePost, data)
}

func (h *PostHandler) renderPostForm(w http.ResponseWriter, r *http.Request, action string, isEdit bool, fs *formState) {
	title := "New Post"
	if isEdit {
		title = "Edit Post"
	}

	data := h.page(r, title)
	data.FormAction = action
	data.IsEdit = isEdit
	if fs != nil {
		data.Form = fs.values
		data.Errors = fs.errors
	}
	h.render(w, http.StatusOK, view.PageMakePost, data)
}

// postFormState は入力エラー（検証エラー・タイトル重複）をフォーム再表示用の状態に変換する。
func postFormState(in blog.PostInput, err error) (*formState, bool) {
	if vErr, ok := model.AsValidationError(err); ok {
		return &formState{values: postFormValues(in), errors: vErr.Fields}, true
	}
	if model.HasCode(err, model.ErrCodeDuplicateTitle) {
		return &formState{
			values: postFormValues(in),
			errors: map[string]string{"title": "A post with this title already exists."},
		}, true
	}
	return nil, false
}

func postInputFromRequest(r *http.Request) blog.PostInput {
	return blog.PostInput{
		Title:    r.PostFormValue("title"),
		Subtitle: r.PostFormValue("subtitle"),
		ImgURL:   r.PostFormValue("img_url"),
		Body:     r.PostFormValue("body"),
	}
}

func postFormValues(in blog.PostInput) map[string]string {
	return map[string]string{
		"title":    in.Title,
		"subtitle": in.Subtitle,
		"img_url":  in.ImgURL,
		"body":     in.Body,
	}
}

func postPath(id int64) string {
	return "/post/" + strconv.FormatInt(id, 10)
}

func editPath(id int64) string {
	return "/edit-post/" + strconv.FormatInt(id, 10)
}
