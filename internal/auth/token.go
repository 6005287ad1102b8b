package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はトークンの署名・形式・有効期限のいずれかが不正な場合のエラー。
var ErrInvalidToken = errors.New("invalid session token")

// TokenClaims はセッショントークンから取り出した内容。
type TokenClaims struct {
	SessionID string
	UserID    int64
	ExpiresAt time.Time
}

// TokenSigner はセッショントークンの署名と検証を行う（HS256）。
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

// NewTokenSigner はTokenSignerを生成する。nowがnilの場合はtime.Nowを使用する。
func NewTokenSigner(secret string, now func() time.Time) *TokenSigner {
	if now == nil {
		now = time.Now
	}
	return &TokenSigner{secret: []byte(secret), now: now}
}

// Sign はセッションID（jti）とユーザーID（sub）を含むトークンを生成する。
func (s *TokenSigner) Sign(c TokenClaims) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        c.SessionID,
		Subject:   strconv.FormatInt(c.UserID, 10),
		ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		IssuedAt:  jwt.NewNumericDate(s.now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse はトークンを検証し、内容を返す。
// 不正・期限切れ・必須クレーム欠落の場合はErrInvalidTokenを返す。
func (s *TokenSigner) Parse(tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}

	return &TokenClaims{
		SessionID: claims.ID,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
