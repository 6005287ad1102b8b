package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/blog/internal/model"
)

// SQLCommentRepo はdatabase/sqlを使用したコメントリポジトリ。
type SQLCommentRepo struct {
	db *sql.DB
}

// NewSQLCommentRepo はSQLCommentRepoを生成する。
func NewSQLCommentRepo(db *sql.DB) *SQLCommentRepo {
	return &SQLCommentRepo{db: db}
}

// ListByPost は指定記事のコメントをID昇順で返す。
func (r *SQLCommentRepo) ListByPost(ctx context.Context, postID int64) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, commenter_id, post_id, text
		 FROM comments WHERE post_id = $1
		 ORDER BY id`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		c := &model.Comment{}
		if err := rows.Scan(&c.ID, &c.CommenterID, &c.PostID, &c.Text); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
func (r *SQLCommentRepo) FindByID(ctx context.Context, id int64) (*model.Comment, error) {
	c := &model.Comment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, commenter_id, post_id, text FROM comments WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.CommenterID, &c.PostID, &c.Text)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	return c, nil
}

// Create はコメントを作成する。
func (r *SQLCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO comments (commenter_id, post_id, text)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		comment.CommenterID, comment.PostID, comment.Text,
	).Scan(&comment.ID)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CommentRepository = (*SQLCommentRepo)(nil)
