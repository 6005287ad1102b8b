package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/blog/internal/model"
)

// SQLUserRepo はdatabase/sqlを使用したユーザーリポジトリ。
type SQLUserRepo struct {
	db *sql.DB
}

// NewSQLUserRepo はSQLUserRepoを生成する。
func NewSQLUserRepo(db *sql.DB) *SQLUserRepo {
	return &SQLUserRepo{db: db}
}

// Create はユーザーを作成する。
// ロールは同一ステートメント内で決定し、最初のアカウントのみadminとする。
func (r *SQLUserRepo) Create(ctx context.Context, user *model.User) error {
	var role string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, created_at)
		 VALUES ($1, $2, $3,
		         CASE WHEN EXISTS (SELECT 1 FROM users) THEN 'member' ELSE 'admin' END,
		         $4)
		 RETURNING id, role`,
		user.Name, user.Email, user.PasswordHash, user.CreatedAt.UTC(),
	).Scan(&user.ID, &role)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.Role = model.Role(role)
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *SQLUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, created_at
		 FROM users WHERE id = $1`,
		id,
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindByIDs は指定IDのユーザーをまとめて取得する。
func (r *SQLUserRepo) FindByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	users := make(map[int64]*model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, password_hash, role, created_at
		 FROM users WHERE id IN (`+placeholders(1, len(ids))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// FindFirstByEmail はメールアドレスでIDが最小のユーザーを取得する。
func (r *SQLUserRepo) FindFirstByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, created_at
		 FROM users WHERE email = $1
		 ORDER BY id
		 LIMIT 1`,
		email,
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	user := &model.User{}
	var role string
	if err := s.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Role = model.Role(role)
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*SQLUserRepo)(nil)
