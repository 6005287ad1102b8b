package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/blog/internal/access"
	"github.com/hitoshi/blog/internal/auth"
	"github.com/hitoshi/blog/internal/blog"
	"github.com/hitoshi/blog/internal/metrics"
	"github.com/hitoshi/blog/internal/middleware"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/view"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	loginFn    func(ctx context.Context, in auth.LoginInput) (*model.User, *auth.IssuedSession, error)
	teardownFn func(ctx context.Context, token string) error
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return &model.User{ID: 1}, nil
}

func (m *mockAuthService) Login(ctx context.Context, in auth.LoginInput) (*model.User, *auth.IssuedSession, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, in)
	}
	return &model.User{ID: 1}, &auth.IssuedSession{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *mockAuthService) TeardownSession(ctx context.Context, token string) error {
	if m.teardownFn != nil {
		return m.teardownFn(ctx, token)
	}
	return nil
}

type mockBlogService struct {
	listPostsFn     func(ctx context.Context) ([]blog.PostView, error)
	getPostFn       func(ctx context.Context, id int64) (*blog.PostView, error)
	getCommentsFn   func(ctx context.Context, postID int64) ([]blog.CommentView, error)
	createCommentFn func(ctx context.Context, p access.Principal, postID int64, in blog.CommentInput) (*model.Comment, error)
	createPostFn    func(ctx context.Context, p access.Principal, in blog.PostInput) (*model.Post, error)
	updatePostFn    func(ctx context.Context, p access.Principal, id int64, in blog.PostInput) (*model.Post, error)
	deletePostFn    func(ctx context.Context, p access.Principal, id int64) error
}

func (m *mockBlogService) ListPosts(ctx context.Context) ([]blog.PostView, error) {
	if m.listPostsFn != nil {
		return m.listPostsFn(ctx)
	}
	return nil, nil
}

func (m *mockBlogService) GetPost(ctx context.Context, id int64) (*blog.PostView, error) {
	if m.getPostFn != nil {
		return m.getPostFn(ctx, id)
	}
	return &blog.PostView{Post: &model.Post{ID: id, Title: "Post"}, AuthorName: "Alice"}, nil
}

func (m *mockBlogService) GetComments(ctx context.Context, postID int64) ([]blog.CommentView, error) {
	if m.getCommentsFn != nil {
		return m.getCommentsFn(ctx, postID)
	}
	return nil, nil
}

func (m *mockBlogService) CreateComment(ctx context.Context, p access.Principal, postID int64, in blog.CommentInput) (*model.Comment, error) {
	if m.createCommentFn != nil {
		return m.createCommentFn(ctx, p, postID, in)
	}
	return &model.Comment{ID: 1, PostID: postID}, nil
}

func (m *mockBlogService) CreatePost(ctx context.Context, p access.Principal, in blog.PostInput) (*model.Post, error) {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, p, in)
	}
	return &model.Post{ID: 1}, nil
}

func (m *mockBlogService) UpdatePost(ctx context.Context, p access.Principal, id int64, in blog.PostInput) (*model.Post, error) {
	if m.updatePostFn != nil {
		return m.updatePostFn(ctx, p, id, in)
	}
	return &model.Post{ID: id}, nil
}

func (m *mockBlogService) DeletePost(ctx context.Context, p access.Principal, id int64) error {
	if m.deletePostFn != nil {
		return m.deletePostFn(ctx, p, id)
	}
	return nil
}

// tokenResolver はセッションCookieの値をそのまま実行主体に対応付ける。
type tokenResolver map[string]access.Principal

func (t tokenResolver) ResolvePrincipal(_ context.Context, token string) access.Principal {
	if p, ok := t[token]; ok {
		return p
	}
	return access.Anonymous
}

type mockHealth struct{ err error }

func (m mockHealth) PingContext(context.Context) error { return m.err }

// --- テストヘルパー ---

const testCSRF = "csrf-test-token"

var (
	adminPrincipal  = access.Principal{UserID: 1, Name: "Admin", Email: "admin@x.com", Role: model.RoleAdmin}
	memberPrincipal = access.Principal{UserID: 2, Name: "Bob", Email: "b@x.com", Role: model.RoleMember}
	testResolver    = tokenResolver{"admin-token": adminPrincipal, "member-token": memberPrincipal}
)

type testRouter struct {
	handler  http.Handler
	registry *prometheus.Registry
}

func newTestRouter(t *testing.T, authSvc AuthService, blogSvc BlogService) *testRouter {
	t.Helper()
	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer error: %v", err)
	}
	if authSvc == nil {
		authSvc = &mockAuthService{}
	}
	if blogSvc == nil {
		blogSvc = &mockBlogService{}
	}

	reg := prometheus.NewRegistry()
	return &testRouter{
		handler: NewRouter(&RouterDeps{
			AuthService:       authSvc,
			PrincipalResolver: testResolver,
			AuthConfig:        AuthHandlerConfig{SessionMaxAge: 3600},
			BlogService:       blogSvc,
			Renderer:          renderer,
			Health:            mockHealth{},
			Metrics:           metrics.NewCollector(reg),
			MetricsHandler:    metrics.Handler(reg),
			Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		}),
		registry: reg,
	}
}

// get はGETリクエストを送る。sessionが空でなければセッションCookieを付ける。
func (tr *testRouter) get(target, session string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRF})
	if session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: session})
	}
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)
	return w
}

// post はCSRFトークン付きのフォームをPOSTする。
func (tr *testRouter) post(target, session string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", testCSRF)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRF})
	if session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: session})
	}
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302 (body: %s)", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

// --- 認証 ---

func TestLogin_Success_SetsCookieAndRedirectsToNext(t *testing.T) {
	var gotInput auth.LoginInput
	tr := newTestRouter(t, &mockAuthService{
		loginFn: func(_ context.Context, in auth.LoginInput) (*model.User, *auth.IssuedSession, error) {
			gotInput = in
			return &model.User{ID: 1}, &auth.IssuedSession{Token: "signed"}, nil
		},
	}, nil)

	w := tr.post("/login?next=/post/3", "", url.Values{
		"email": {"a@x.com"}, "password": {"pw"}, "next": {"/about"},
	})

	assertRedirect(t, w, "/post/3")
	if gotInput.Email != "a@x.com" || gotInput.Password != "pw" {
		t.Errorf("login input = %+v", gotInput)
	}
	cookie := findCookie(w, middleware.SessionCookieName)
	if cookie == nil || cookie.Value != "signed" || !cookie.HttpOnly || cookie.MaxAge != 3600 {
		t.Errorf("session cookie = %+v", cookie)
	}
	if findCookie(w, "flash") == nil {
		t.Error("expected a flash message")
	}
}

func TestLogin_NextResolution(t *testing.T) {
	tests := []struct {
		name   string
		target string
		form   string
		want   string
	}{
		{"form next only", "/login", "/about", "/about"},
		{"no next", "/login", "", "/"},
		{"external next rejected", "/login?next=https://evil.example/", "", "/"},
		{"scheme-relative rejected", "/login", "//evil.example", "/"},
		{"logout next replaced", "/login?next=/logout", "", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter(t, nil, nil)
			w := tr.post(tt.target, "", url.Values{"email": {"a@x.com"}, "password": {"pw"}, "next": {tt.form}})
			assertRedirect(t, w, tt.want)
		})
	}
}

func TestLogin_UnknownAccount_RedirectsToRegister(t *testing.T) {
	tr := newTestRouter(t, &mockAuthService{
		loginFn: func(context.Context, auth.LoginInput) (*model.User, *auth.IssuedSession, error) {
			return nil, nil, model.NewUnknownAccountError()
		},
	}, nil)

	w := tr.post("/login", "", url.Values{"email": {"x@x.com"}, "password": {"pw"}})

	assertRedirect(t, w, "/register")
	if findCookie(w, middleware.SessionCookieName) != nil {
		t.Error("failed login must not set a session cookie")
	}
}

func TestLogin_BadCredentials_RedirectsToLoginKeepingNext(t *testing.T) {
	tr := newTestRouter(t, &mockAuthService{
		loginFn: func(context.Context, auth.LoginInput) (*model.User, *auth.IssuedSession, error) {
			return nil, nil, model.NewBadCredentialsError()
		},
	}, nil)

	w := tr.post("/login?next=/post/3", "", url.Values{"email": {"a@x.com"}, "password": {"bad"}})

	assertRedirect(t, w, "/login?next=%2Fpost%2F3")
	if findCookie(w, "flash") == nil {
		t.Error("expected a flash message")
	}
}

func TestLogin_ValidationError_RerendersForm(t *testing.T) {
	tr := newTestRouter(t, &mockAuthService{
		loginFn: func(context.Context, auth.LoginInput) (*model.User, *auth.IssuedSession, error) {
			return nil, nil, model.NewValidationError("email", "Invalid email address.")
		},
	}, nil)

	w := tr.post("/login", "", url.Values{"email": {"nope"}, "password": {"pw"}})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid email address.") || !strings.Contains(w.Body.String(), `value="nope"`) {
		t.Errorf("form not re-rendered with errors:\n%s", w.Body.String())
	}
}

func TestRegister_SuccessRedirectsToLogin(t *testing.T) {
	var got auth.RegisterInput
	tr := newTestRouter(t, &mockAuthService{
		registerFn: func(_ context.Context, in auth.RegisterInput) (*model.User, error) {
			got = in
			return &model.User{ID: 5}, nil
		},
	}, nil)

	w := tr.post("/register", "", url.Values{"name": {"Alice"}, "email": {"a@x.com"}, "password": {"pw1"}})

	assertRedirect(t, w, "/login")
	if got.Name != "Alice" || got.Email != "a@x.com" || got.Password != "pw1" {
		t.Errorf("register input = %+v", got)
	}
	if findCookie(w, middleware.SessionCookieName) != nil {
		t.Error("registration must not log the user in")
	}
}

func TestRegister_ValidationError_RerendersForm(t *testing.T) {
	tr := newTestRouter(t, &mockAuthService{
		registerFn: func(context.Context, auth.RegisterInput) (*model.User, error) {
			return nil, &model.ValidationError{Fields: map[string]string{"name": "This field is required."}}
		},
	}, nil)

	w := tr.post("/register", "", url.Values{"email": {"a@x.com"}})

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "This field is required.") {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestLogout_ClearsCookieAndRedirectsHome(t *testing.T) {
	var tornDown string
	tr := newTestRouter(t, &mockAuthService{
		teardownFn: func(_ context.Context, token string) error {
			tornDown = token
			return nil
		},
	}, nil)

	w := tr.get("/logout", "member-token")

	assertRedirect(t, w, "/")
	if tornDown != "member-token" {
		t.Errorf("teardown token = %q", tornDown)
	}
	if c := findCookie(w, middleware.SessionCookieName); c == nil || c.MaxAge >= 0 {
		t.Errorf("session cookie not cleared: %+v", c)
	}
}

func TestLogout_AnonymousRedirectsToLogin(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	w := tr.get("/logout", "")

	assertRedirect(t, w, "/login?next=%2Flogout")
}

// --- アクセス制御 ---

func TestAdminRoutes_RejectNonAdmins(t *testing.T) {
	routes := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/new-post"},
		{http.MethodPost, "/new-post"},
		{http.MethodGet, "/edit-post/1"},
		{http.MethodPost, "/edit-post/1"},
		{http.MethodGet, "/delete/1?csrf_token=" + testCSRF},
	}

	for _, session := range []string{"", "member-token"} {
		for _, rt := range routes {
			t.Run(rt.method+" "+rt.target+" as "+session, func(t *testing.T) {
				called := false
				tr := newTestRouter(t, nil, &mockBlogService{
					deletePostFn: func(context.Context, access.Principal, int64) error {
						called = true
						return nil
					},
				})

				var w *httptest.ResponseRecorder
				if rt.method == http.MethodGet {
					w = tr.get(rt.target, session)
				} else {
					w = tr.post(rt.target, session, nil)
				}

				if w.Code != http.StatusForbidden {
					t.Errorf("status = %d, want 403", w.Code)
				}
				if called {
					t.Error("service must not be called")
				}
			})
		}
	}
}

func TestAbout_RequiresLogin(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	assertRedirect(t, tr.get("/about", ""), "/login?next=%2Fabout")

	w := tr.get("/about", "member-token")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Bob") {
		t.Errorf("status = %d", w.Code)
	}
}

// --- 記事・コメント ---

func TestComment_Anonymous_RedirectsToLoginWithPostURL(t *testing.T) {
	tr := newTestRouter(t, nil, &mockBlogService{
		createCommentFn: func(_ context.Context, p access.Principal, _ int64, _ blog.CommentInput) (*model.Comment, error) {
			if p.IsAnonymous() {
				return nil, model.NewAuthenticationRequiredError()
			}
			return &model.Comment{}, nil
		},
	})

	w := tr.post("/post/3", "", url.Values{"comment_text": {"hi"}})

	assertRedirect(t, w, "/login?next=%2Fpost%2F3")
	flash := findCookie(w, "flash")
	if flash == nil {
		t.Fatal("expected flash cookie")
	}
}

func TestComment_Success_PassesPrincipalAndRedirects(t *testing.T) {
	var gotPrincipal access.Principal
	var gotText string
	tr := newTestRouter(t, nil, &mockBlogService{
		createCommentFn: func(_ context.Context, p access.Principal, postID int64, in blog.CommentInput) (*model.Comment, error) {
			gotPrincipal = p
			gotText = in.Text
			return &model.Comment{ID: 1, PostID: postID}, nil
		},
	})

	w := tr.post("/post/3", "member-token", url.Values{"comment_text": {"nice!"}})

	assertRedirect(t, w, "/post/3")
	if gotPrincipal != memberPrincipal || gotText != "nice!" {
		t.Errorf("principal = %+v, text = %q", gotPrincipal, gotText)
	}
}

func TestComment_ValidationError_RerendersPost(t *testing.T) {
	tr := newTestRouter(t, nil, &mockBlogService{
		createCommentFn: func(context.Context, access.Principal, int64, blog.CommentInput) (*model.Comment, error) {
			return nil, model.NewValidationError("comment_text", "This field is required.")
		},
	})

	w := tr.post("/post/3", "member-token", url.Values{"comment_text": {""}})

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "This field is required.") {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestShowPost_NotFound(t *testing.T) {
	tr := newTestRouter(t, nil, &mockBlogService{
		getPostFn: func(_ context.Context, id int64) (*blog.PostView, error) {
			return nil, model.NewPostNotFoundError(id)
		},
	})

	for _, target := range []string{"/post/99", "/post/abc", "/post/0"} {
		if w := tr.get(target, ""); w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", target, w.Code)
		}
	}
}

func TestDeletePost_NotFoundErrorsRenderStatus404(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"post", model.NewPostNotFoundError(4)},
		{"comment", model.NewCommentNotFoundError(4)},
		{"user", model.NewUserNotFoundError(4)},
		{"wrapped", fmt.Errorf("failed to delete post: %w", model.NewUserNotFoundError(4))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter(t, nil, &mockBlogService{
				deletePostFn: func(context.Context, access.Principal, int64) error { return tt.err },
			})
			if w := tr.get("/delete/4?csrf_token="+testCSRF, "admin-token"); w.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", w.Code)
			}
		})
	}
}

func TestCreatePost_DuplicateTitleShownOnForm(t *testing.T) {
	tr := newTestRouter(t, nil, &mockBlogService{
		createPostFn: func(_ context.Context, _ access.Principal, in blog.PostInput) (*model.Post, error) {
			return nil, model.NewDuplicateTitleError(in.Title)
		},
	})

	w := tr.post("/new-post", "admin-token", url.Values{"title": {"Taken"}, "subtitle": {"s"}, "img_url": {"https://x/a.png"}, "body": {"b"}})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "A post with this title already exists.") || !strings.Contains(body, `value="Taken"`) {
		t.Errorf("form not re-rendered:\n%s", body)
	}
}

func TestCreatePost_SuccessRedirectsHome(t *testing.T) {
	var got blog.PostInput
	tr := newTestRouter(t, nil, &mockBlogService{
		createPostFn: func(_ context.Context, p access.Principal, in blog.PostInput) (*model.Post, error) {
			got = in
			return &model.Post{ID: 1, AuthorID: p.UserID}, nil
		},
	})

	w := tr.post("/new-post", "admin-token", url.Values{"title": {"T"}, "subtitle": {"S"}, "img_url": {"https://x/a.png"}, "body": {"<p>b</p>"}})

	assertRedirect(t, w, "/")
	if got.Title != "T" || got.Body != "<p>b</p>" {
		t.Errorf("input = %+v", got)
	}
}

func TestEditPost_FormPrefilled(t *testing.T) {
	tr := newTestRouter(t, nil, &mockBlogService{
		getPostFn: func(_ context.Context, id int64) (*blog.PostView, error) {
			return &blog.PostView{Post: &model.Post{ID: id, Title: "Existing", Subtitle: "Sub", ImgURL: "https://x/a.png", Body: "<p>b</p>"}}, nil
		},
	})

	w := tr.get("/edit-post/4", "admin-token")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`value="Existing"`, `action="/edit-post/4"`, "Edit Post"} {
		if !strings.Contains(body, want) {
			t.Errorf("edit form missing %q", want)
		}
	}
}

func TestUpdatePost_RedirectsToPost(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	w := tr.post("/edit-post/4", "admin-token", url.Values{"title": {"T"}})

	assertRedirect(t, w, "/post/4")
}

func TestDeletePost_RequiresCSRFToken(t *testing.T) {
	deleted := false
	tr := newTestRouter(t, nil, &mockBlogService{
		deletePostFn: func(context.Context, access.Principal, int64) error {
			deleted = true
			return nil
		},
	})

	if w := tr.get("/delete/4", "admin-token"); w.Code != http.StatusForbidden {
		t.Errorf("without token: status = %d, want 403", w.Code)
	}
	if w := tr.get("/delete/4?csrf_token=wrong", "admin-token"); w.Code != http.StatusForbidden {
		t.Errorf("wrong token: status = %d, want 403", w.Code)
	}
	if deleted {
		t.Fatal("post must not be deleted without a valid token")
	}

	assertRedirect(t, tr.get("/delete/4?csrf_token="+testCSRF, "admin-token"), "/")
	if !deleted {
		t.Error("post should be deleted")
	}
}

func TestDeletePost_Anonymous_LoginRedirectDropsCSRFToken(t *testing.T) {
	tr := newTestRouter(t, nil, &mockBlogService{
		deletePostFn: func(_ context.Context, p access.Principal, _ int64) error {
			if p.IsAnonymous() {
				return model.NewAuthenticationRequiredError()
			}
			return nil
		},
	})

	w := tr.get("/delete/4?csrf_token="+testCSRF, "")

	assertRedirect(t, w, "/login?next=%2Fdelete%2F4")
	if strings.Contains(w.Header().Get("Location"), testCSRF) {
		t.Errorf("Location leaks token: %s", w.Header().Get("Location"))
	}
}

func TestReturnPath(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/post/3", "/post/3"},
		{"/post/3?page=2", "/post/3?page=2"},
		{"/delete/4?csrf_token=abc", "/delete/4"},
		{"/edit-post/4?csrf_token=abc&x=1", "/edit-post/4?x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			u, err := url.Parse(tt.target)
			if err != nil {
				t.Fatal(err)
			}
			if got := returnPath(u); got != tt.want {
				t.Errorf("returnPath(%q) = %q, want %q", tt.target, got, tt.want)
			}
		})
	}
}

func TestDeletePost_NotFound(t *testing.T) {
	tr := newTestRouter(t, nil, &mockBlogService{
		deletePostFn: func(_ context.Context, _ access.Principal, id int64) error {
			return model.NewPostNotFoundError(id)
		},
	})

	if w := tr.get("/delete/4?csrf_token="+testCSRF, "admin-token"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestIndex_InternalErrorHidesDetails(t *testing.T) {
	tr := newTestRouter(t, nil, &mockBlogService{
		listPostsFn: func(context.Context) ([]blog.PostView, error) {
			return nil, errors.New("database is locked")
		},
	})

	w := tr.get("/", "")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "database is locked") {
		t.Error("internal error details must not be shown")
	}
}

// --- ミドルウェア・運用 ---

func TestRouter_POSTWithoutCSRF_Returns403(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=a%40x.com&password=pw"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestRouter_UnknownRoute_Returns404Page(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	w := tr.get("/nowhere", "")

	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "does not exist") {
		t.Errorf("status = %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	tr := newTestRouter(t, nil, nil)
	if w := tr.get("/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	down := NewRouter(&RouterDeps{
		AuthService:       &mockAuthService{},
		PrincipalResolver: testResolver,
		BlogService:       &mockBlogService{},
		Renderer:          renderer,
		Health:            mockHealth{err: errors.New("down")},
		Metrics:           metrics.NewCollector(reg),
		MetricsHandler:    metrics.Handler(reg),
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	w := httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestMetricsEndpoint_ExposesRequestsAndDenials(t *testing.T) {
	tr := newTestRouter(t, nil, nil)
	tr.get("/new-post", "member-token")

	w := tr.get("/metrics", "")

	body := w.Body.String()
	for _, want := range []string{
		`blog_http_requests_total{method="GET",route="/new-post",status_code="403"} 1`,
		`blog_authorization_denials_total{code="FORBIDDEN"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
