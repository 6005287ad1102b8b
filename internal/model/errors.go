package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// AppError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type AppError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, authorization, content, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnknownAccount         = "UNKNOWN_ACCOUNT"
	ErrCodeBadCredentials         = "BAD_CREDENTIALS"
	ErrCodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodePostNotFound           = "POST_NOT_FOUND"
	ErrCodeCommentNotFound        = "COMMENT_NOT_FOUND"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeDuplicateTitle         = "DUPLICATE_TITLE"
)

// HasCode はエラーチェーンに指定コードのAppErrorが含まれるかを判定する。
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsNotFound はエラーが「見つからない」系のAppErrorかどうかを判定する。
func IsNotFound(err error) bool {
	return HasCode(err, ErrCodePostNotFound) ||
		HasCode(err, ErrCodeCommentNotFound) ||
		HasCode(err, ErrCodeUserNotFound)
}

// NewUnknownAccountError は未登録のメールアドレスでログインしようとした場合のエラーを生成する。
func NewUnknownAccountError() *AppError {
	return &AppError{
		Code:     ErrCodeUnknownAccount,
		Message:  "You're not our member yet! Please sign up first!",
		Category: "auth",
		Action:   "Register a new account.",
	}
}

// NewBadCredentialsError はパスワードが一致しない場合のエラーを生成する。
func NewBadCredentialsError() *AppError {
	return &AppError{
		Code:     ErrCodeBadCredentials,
		Message:  "Wrong password! Please try again!",
		Category: "auth",
		Action:   "Check your password and log in again.",
	}
}

// NewAuthenticationRequiredError は未ログインでログイン必須の操作を行った場合のエラーを生成する。
func NewAuthenticationRequiredError() *AppError {
	return &AppError{
		Code:     ErrCodeAuthenticationRequired,
		Message:  "Please log in first!",
		Category: "authorization",
		Action:   "Log in and try again.",
	}
}

// NewForbiddenError は管理者以外が管理者専用の操作を行った場合のエラーを生成する。
func NewForbiddenError() *AppError {
	return &AppError{
		Code:     ErrCodeForbidden,
		Message:  "You are not allowed to perform this action.",
		Category: "authorization",
		Action:   "Only the administrator can manage posts.",
	}
}

// NewPostNotFoundError は記事未検出エラーを生成する。
func NewPostNotFoundError(postID int64) *AppError {
	return &AppError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("post not found: %d", postID),
		Category: "content",
		Action:   "Check the post ID.",
	}
}

// NewCommentNotFoundError はコメント未検出エラーを生成する。
func NewCommentNotFoundError(commentID int64) *AppError {
	return &AppError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("comment not found: %d", commentID),
		Category: "content",
		Action:   "Check the comment ID.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(userID int64) *AppError {
	return &AppError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("user not found: %d", userID),
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewDuplicateTitleError は同じタイトルの記事が既に存在する場合のエラーを生成する。
func NewDuplicateTitleError(title string) *AppError {
	return &AppError{
		Code:     ErrCodeDuplicateTitle,
		Message:  fmt.Sprintf("a post titled %q already exists", title),
		Category: "content",
		Action:   "Choose a different title.",
	}
}

// ValidationError はフォーム入力の検証エラーを表す。
// Fieldsはフィールド名からユーザー向けメッセージへの対応。
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError は単一フィールドの検証エラーを生成する。
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError はエラーチェーンからValidationErrorを取り出す。
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
