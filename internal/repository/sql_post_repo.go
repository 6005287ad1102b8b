package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/blog/internal/model"
)

// SQLPostRepo はdatabase/sqlを使用した記事リポジトリ。
type SQLPostRepo struct {
	db *sql.DB
}

// NewSQLPostRepo はSQLPostRepoを生成する。
func NewSQLPostRepo(db *sql.DB) *SQLPostRepo {
	return &SQLPostRepo{db: db}
}

const postColumns = `id, author_id, title, subtitle, date, body, img_url`

// List は全記事をID昇順で返す。
func (r *SQLPostRepo) List(ctx context.Context) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *SQLPostRepo) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`,
		id,
	)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return post, nil
}

// Create は記事を作成する。
func (r *SQLPostRepo) Create(ctx context.Context, post *model.Post) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO posts (author_id, title, subtitle, date, body, img_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		post.AuthorID, post.Title, post.Subtitle, post.Date, post.Body, post.ImgURL,
	).Scan(&post.ID)
	if isUniqueViolation(err) {
		return model.NewDuplicateTitleError(post.Title)
	}
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// Update はタイトル・サブタイトル・画像URL・本文を上書きする。
// 同時編集は後勝ちとなる。
func (r *SQLPostRepo) Update(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts
		 SET title = $1, subtitle = $2, img_url = $3, body = $4
		 WHERE id = $5`,
		post.Title, post.Subtitle, post.ImgURL, post.Body, post.ID,
	)
	if isUniqueViolation(err) {
		return model.NewDuplicateTitleError(post.Title)
	}
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return requireAffected(result, model.NewPostNotFoundError(post.ID))
}

// Delete は指定IDの記事を削除する。コメントは残る。
func (r *SQLPostRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return requireAffected(result, model.NewPostNotFoundError(id))
}

func scanPost(s rowScanner) (*model.Post, error) {
	post := &model.Post{}
	if err := s.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Subtitle, &post.Date, &post.Body, &post.ImgURL); err != nil {
		return nil, err
	}
	return post, nil
}

// requireAffected は更新件数が0の場合にnotFoundを返す。
func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// compile-time interface check
var _ PostRepository = (*SQLPostRepo)(nil)
