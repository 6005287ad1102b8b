package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blog/internal/middleware"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/view"
)

// errInvalidID はパスパラメータのIDが数値でない場合のエラー。
var errInvalidID = errors.New("invalid id")

// responder はページ描画・フラッシュ・エラー応答をハンドラー間で共有する。
type responder struct {
	renderer *view.Renderer
	flash    *middleware.Flash
	denials  DenialRecorder // nil可
}

// page はリクエスト共通の表示データ（実行主体、CSRFトークン、フラッシュ）を埋めたPageDataを返す。
func (rs *responder) page(r *http.Request, title string) *view.PageData {
	ctx := r.Context()
	return &view.PageData{
		Title:     title,
		Principal: middleware.PrincipalFromContext(ctx),
		CSRFToken: middleware.CSRFTokenFromContext(ctx),
		Flash:     middleware.FlashFromContext(ctx),
	}
}

func (rs *responder) render(w http.ResponseWriter, status int, page string, data *view.PageData) {
	rs.renderer.Render(w, status, page, data)
}

// redirectWithFlash はフラッシュメッセージを設定してリダイレクトする。
func (rs *responder) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, message string) {
	rs.flash.Set(w, message)
	http.Redirect(w, r, target, http.StatusFound)
}

// handleError はサービス層のエラーをHTTP応答に変換する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func (rs *responder) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *model.AppError
	switch {
	case errors.Is(err, errInvalidID), model.IsNotFound(err):
		rs.renderStatus(w, r, http.StatusNotFound)
	case errors.As(err, &appErr):
		rs.handleAppError(w, r, appErr)
	default:
		if vErr, ok := model.AsValidationError(err); ok {
			rs.renderStatusMessage(w, r, http.StatusBadRequest, vErr.Error())
			return
		}
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		rs.renderStatus(w, r, http.StatusInternalServerError)
	}
}

func (rs *responder) handleAppError(w http.ResponseWriter, r *http.Request, appErr *model.AppError) {
	switch appErr.Code {
	case model.ErrCodeUnknownAccount:
		rs.redirectWithFlash(w, r, "/register", appErr.Message)
	case model.ErrCodeBadCredentials:
		rs.redirectWithFlash(w, r, loginURL(r.URL.Query().Get("next")), appErr.Message)
	case model.ErrCodeAuthenticationRequired:
		rs.recordDenial(r, appErr.Code)
		rs.redirectWithFlash(w, r, loginURL(returnPath(r.URL)), appErr.Message)
	case model.ErrCodeForbidden:
		rs.recordDenial(r, appErr.Code)
		rs.renderStatus(w, r, http.StatusForbidden)
	case model.ErrCodeDuplicateTitle:
		rs.renderStatusMessage(w, r, http.StatusConflict, appErr.Message)
	default:
		slog.Error("unhandled application error",
			slog.String("code", appErr.Code),
			slog.String("path", r.URL.Path),
		)
		rs.renderStatus(w, r, http.StatusInternalServerError)
	}
}

func (rs *responder) recordDenial(r *http.Request, code string) {
	p := middleware.PrincipalFromContext(r.Context())
	slog.Warn("authorization denied",
		slog.String("code", code),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int64("user_id", p.UserID),
	)
	if rs.denials != nil {
		rs.denials.RecordAuthorizationDenial(code)
	}
}

func (rs *responder) renderStatus(w http.ResponseWriter, r *http.Request, status int) {
	rs.renderStatusMessage(w, r, status, statusMessage(status))
}

func (rs *responder) renderStatusMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := rs.page(r, http.StatusText(status))
	data.Status = status
	data.Message = message
	rs.render(w, status, view.PageError, data)
}

// notFound はどのルートにも一致しないリクエストに404ページを返す。
func (rs *responder) notFound(w http.ResponseWriter, r *http.Request) {
	rs.renderStatus(w, r, http.StatusNotFound)
}

// internalError はpanic復旧時のエラーページを返す。
func (rs *responder) internalError(w http.ResponseWriter, r *http.Request) {
	rs.renderStatus(w, r, http.StatusInternalServerError)
}

func statusMessage(status int) string {
	switch status {
	case http.StatusForbidden:
		return "You are not allowed to access this page."
	case http.StatusNotFound:
		return "The page you are looking for does not exist."
	case http.StatusInternalServerError:
		return "Something went wrong. Please try again later."
	default:
		return http.StatusText(status)
	}
}

// loginURL はログイン後の遷移先を付けたログインページのURLを返す。
func loginURL(next string) string {
	if next == "" || next == "/" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}

// returnPath はログイン後に戻るパスを返す。CSRFトークンは引き継がない。
func returnPath(u *url.URL) string {
	q := u.Query()
	if !q.Has(middleware.CSRFFieldName) {
		return u.RequestURI()
	}
	q.Del(middleware.CSRFFieldName)
	ret := url.URL{Path: u.Path, RawPath: u.RawPath, RawQuery: q.Encode()}
	return ret.RequestURI()
}

// postIDParam はパスパラメータpost_idを取得する。
func postIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "post_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
