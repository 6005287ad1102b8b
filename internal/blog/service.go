// Package blog は記事の閲覧・作成・編集・削除とコメント投稿のワークフローを提供する。
// 権限を伴う操作は実行主体（access.Principal）を明示的に受け取り、
// ポリシーを評価してから永続化を行う。
package blog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/blog/internal/access"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/repository"
	"github.com/hitoshi/blog/internal/validation"
)

// unknownAuthorName は参照先ユーザーが見つからない場合の表示名。
const unknownAuthorName = "Unknown"

// PostInput は記事作成・編集フォームの入力。
type PostInput struct {
	Title    string `form:"title" validate:"required,max=250"`
	Subtitle string `form:"subtitle" validate:"required,max=250"`
	ImgURL   string `form:"img_url" validate:"required,http_url,max=250"`
	Body     string `form:"body" validate:"required"`
}

// PostInputFrom は既存記事から編集フォームの初期値を生成する。
func PostInputFrom(p *model.Post) PostInput {
	return PostInput{
		Title:    p.Title,
		Subtitle: p.Subtitle,
		ImgURL:   p.ImgURL,
		Body:     p.Body,
	}
}

// CommentInput はコメントフォームの入力。
type CommentInput struct {
	Text string `form:"comment_text" validate:"required,max=250"`
}

// PostView は記事と著者情報をまとめた表示用モデル。
type PostView struct {
	*model.Post
	AuthorName   string
	AuthorAvatar string
}

// CommentView はコメントと投稿者情報をまとめた表示用モデル。
type CommentView struct {
	*model.Comment
	CommenterName   string
	CommenterAvatar string
}

// Sanitizer は記事本文・コメントのHTMLサニタイザ。
type Sanitizer interface {
	SanitizePost(rawHTML string) string
	SanitizeComment(rawHTML string) string
}

// Metrics はコンテンツ操作の計測インターフェース。
type Metrics interface {
	RecordPostMutation(op string)
	RecordComment()
}

// 記事操作のラベル。
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Service はコンテンツワークフローを提供する。
type Service struct {
	posts     repository.PostRepository
	comments  repository.CommentRepository
	users     repository.UserRepository
	sanitizer Sanitizer
	clock     Clock
	metrics   Metrics
}

// NewService はServiceを生成する。clockがnilの場合はRealClock、metricsはnilでもよい。
func NewService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	users repository.UserRepository,
	sanitizer Sanitizer,
	clock Clock,
	metrics Metrics,
) *Service {
	if clock == nil {
		clock = RealClock{}
	}
	return &Service{
		posts:     posts,
		comments:  comments,
		users:     users,
		sanitizer: sanitizer,
		clock:     clock,
		metrics:   metrics,
	}
}

// ListPosts は全記事を著者情報付きで返す。
func (s *Service) ListPosts(ctx context.Context) ([]PostView, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	authors, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load post authors: %w", err)
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, newPostView(p, authors[p.AuthorID]))
	}
	return views, nil
}

// GetPost は記事を著者情報付きで返す。存在しない場合はPOST_NOT_FOUND。
func (s *Service) GetPost(ctx context.Context, id int64) (*PostView, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}

	author, err := s.users.FindByID(ctx, post.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post author: %w", err)
	}

	view := newPostView(post, author)
	return &view, nil
}

// GetComments は記事のコメントを投稿者情報付きで返す。
func (s *Service) GetComments(ctx context.Context, postID int64) ([]CommentView, error) {
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	ids := make([]int64, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.CommenterID)
	}
	commenters, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load commenters: %w", err)
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, newCommentView(c, commenters[c.CommenterID]))
	}
	return views, nil
}

// GetComment はコメントを返す。存在しない場合はCOMMENT_NOT_FOUND。
func (s *Service) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	if c == nil {
		return nil, model.NewCommentNotFoundError(id)
	}
	return c, nil
}

// CommentPost はコメントの対象記事を返す。
// 記事が削除済みの場合はPOST_NOT_FOUNDを返す（コメントは残り続ける）。
func (s *Service) CommentPost(ctx context.Context, c *model.Comment) (*model.Post, error) {
	return s.findPost(ctx, c.PostID)
}

// CreateComment は記事にコメントを投稿する。
// 匿名ユーザーにはAUTHENTICATION_REQUIRED、記事が存在しない場合はPOST_NOT_FOUNDを返す。
func (s *Service) CreateComment(ctx context.Context, p access.Principal, postID int64, in CommentInput) (*model.Comment, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if _, err := s.findPost(ctx, postID); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	text := s.sanitizer.SanitizeComment(in.Text)
	if strings.TrimSpace(text) == "" {
		return nil, model.NewValidationError("comment_text", "This field is required.")
	}

	comment := &model.Comment{
		CommenterID: p.UserID,
		PostID:      postID,
		Text:        text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordComment()
	}
	slog.Info("comment created",
		slog.Int64("comment_id", comment.ID),
		slog.Int64("post_id", postID),
		slog.Int64("user_id", p.UserID),
	)
	return comment, nil
}

// CreatePost は記事を作成する。管理者のみ実行できる。
// 著者は実行主体、作成日は現在日付となる。
func (s *Service) CreatePost(ctx context.Context, p access.Principal, in PostInput) (*model.Post, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	in, err := s.preparePost(in)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		AuthorID: p.UserID,
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Date:     s.clock.Now().Format(model.PostDateLayout),
		Body:     in.Body,
		ImgURL:   in.ImgURL,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	s.recordPostMutation(OpCreate)
	slog.Info("post created", slog.Int64("post_id", post.ID), slog.Int64("user_id", p.UserID))
	return post, nil
}

// UpdatePost は記事のタイトル・サブタイトル・画像URL・本文を上書きする。管理者のみ実行できる。
func (s *Service) UpdatePost(ctx context.Context, p access.Principal, id int64, in PostInput) (*model.Post, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err = s.preparePost(in)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Subtitle = in.Subtitle
	post.ImgURL = in.ImgURL
	post.Body = in.Body
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	s.recordPostMutation(OpUpdate)
	slog.Info("post updated", slog.Int64("post_id", post.ID), slog.Int64("user_id", p.UserID))
	return post, nil
}

// DeletePost は記事を削除する。管理者のみ実行できる。
// 記事へのコメントは削除されずに残る。
func (s *Service) DeletePost(ctx context.Context, p access.Principal, id int64) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	s.recordPostMutation(OpDelete)
	slog.Info("post deleted", slog.Int64("post_id", id), slog.Int64("user_id", p.UserID))
	return nil
}

// preparePost は入力を正規化・検証し、本文をサニタイズする。
func (s *Service) preparePost(in PostInput) (PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Subtitle = strings.TrimSpace(in.Subtitle)
	in.ImgURL = strings.TrimSpace(in.ImgURL)
	if err := validation.Struct(in); err != nil {
		return in, err
	}

	in.Body = s.sanitizer.SanitizePost(in.Body)
	if strings.TrimSpace(in.Body) == "" {
		return in, model.NewValidationError("body", "This field is required.")
	}
	return in, nil
}

func (s *Service) findPost(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(id)
	}
	return post, nil
}

func (s *Service) recordPostMutation(op string) {
	if s.metrics != nil {
		s.metrics.RecordPostMutation(op)
	}
}

func newPostView(p *model.Post, author *model.User) PostView {
	v := PostView{Post: p, AuthorName: unknownAuthorName}
	if author != nil {
		v.AuthorName = author.Name
		v.AuthorAvatar = AvatarURL(author.Email)
	}
	return v
}

func newCommentView(c *model.Comment, commenter *model.User) CommentView {
	v := CommentView{Comment: c, CommenterName: unknownAuthorName}
	if commenter != nil {
		v.CommenterName = commenter.Name
		v.CommenterAvatar = AvatarURL(commenter.Email)
	}
	return v
}
