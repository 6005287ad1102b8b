// Package handler はブログのHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"

	"github.com/hitoshi/blog/internal/access"
	"github.com/hitoshi/blog/internal/auth"
	"github.com/hitoshi/blog/internal/blog"
	"github.com/hitoshi/blog/internal/model"
)

// AuthService は認証ハンドラーが必要とするサービスインターフェース。
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	Login(ctx context.Context, in auth.LoginInput) (*model.User, *auth.IssuedSession, error)
	TeardownSession(ctx context.Context, token string) error
}

// BlogService は記事ハンドラーが必要とするサービスインターフェース。
type BlogService interface {
	ListPosts(ctx context.Context) ([]blog.PostView, error)
	GetPost(ctx context.Context, id int64) (*blog.PostView, error)
	GetComments(ctx context.Context, postID int64) ([]blog.CommentView, error)
	CreateComment(ctx context.Context, p access.Principal, postID int64, in blog.CommentInput) (*model.Comment, error)
	CreatePost(ctx context.Context, p access.Principal, in blog.PostInput) (*model.Post, error)
	UpdatePost(ctx context.Context, p access.Principal, id int64, in blog.PostInput) (*model.Post, error)
	DeletePost(ctx context.Context, p access.Principal, id int64) error
}

// HealthChecker はストアの疎通確認を行う。*sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// DenialRecorder はアクセス拒否の計測インターフェース。
type DenialRecorder interface {
	RecordAuthorizationDenial(code string)
}

// compile-time interface check
var (
	_ AuthService = (*auth.Service)(nil)
	_ BlogService = (*blog.Service)(nil)
)
