// Package repository はデータ永続化のインターフェースとSQL実装を提供する。
//
// SQLはPostgreSQLとSQLiteの双方で動作する共通部分のみを使用する
// （$N プレースホルダ、RETURNING句、時刻は引数で渡す）。
// 各操作は単一ステートメントで完結し、自動コミットされる。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/blog/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成し、採番されたIDとロールをuserに設定する。
	// テーブルが空の場合のみロールはadminとなり、それ以外はmemberとなる。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByIDs は指定IDのユーザーをIDをキーとするマップで返す。
	// 存在しないIDはマップに含まれない。
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error)

	// FindFirstByEmail はメールアドレスでユーザーを検索する。
	// メールアドレスは一意でないため、重複時は最も古い（IDが最小の）ユーザーを返す。
	// 見つからない場合はnilを返す。
	FindFirstByEmail(ctx context.Context, email string) (*model.User, error)
}

// PostRepository は記事データの永続化インターフェース。
type PostRepository interface {
	// List は全記事をID昇順で返す。
	List(ctx context.Context) ([]*model.Post, error)

	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Post, error)

	// Create は記事を作成し、採番されたIDをpostに設定する。
	// タイトルが重複する場合はDUPLICATE_TITLEのAppErrorを返す。
	Create(ctx context.Context, post *model.Post) error

	// Update はタイトル・サブタイトル・画像URL・本文のみを上書きする。
	// 著者と作成日は変更しない。存在しない場合はPOST_NOT_FOUNDを返す。
	Update(ctx context.Context, post *model.Post) error

	// Delete は指定IDの記事を削除する。関連コメントは削除しない。
	// 存在しない場合はPOST_NOT_FOUNDを返す。
	Delete(ctx context.Context, id int64) error
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// ListByPost は指定記事のコメントをID昇順で返す。
	ListByPost(ctx context.Context, postID int64) ([]*model.Comment, error)

	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Comment, error)

	// Create はコメントを作成し、採番されたIDをcommentに設定する。
	Create(ctx context.Context, comment *model.Comment) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しなくてもエラーにしない。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired はnowより前に期限切れとなったセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
