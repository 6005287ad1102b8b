// Package auth はアカウント登録、パスワード認証、セッションの発行・破棄、
// リクエストごとの実行主体の解決を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blog/internal/access"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/repository"
	"github.com/hitoshi/blog/internal/validation"
)

// RegisterInput は登録フォームの入力。
type RegisterInput struct {
	Name     string `form:"name" validate:"required,max=250"`
	Email    string `form:"email" validate:"required,email,max=250"`
	Password string `form:"password" validate:"required,max=72"`
}

// LoginInput はログインフォームの入力。
type LoginInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// IssuedSession は発行したセッションのトークンと有効期限。
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SecretKey     string
	SessionMaxAge int // セッション有効期間（秒）
	// Now は現在時刻を返す。nilの場合はtime.Nowを使用する。
	Now func() time.Time
}

// Metrics は認証イベントの計測インターフェース。
type Metrics interface {
	RecordLogin(outcome string)
	RecordRegistration()
}

// ログイン結果のラベル。
const (
	LoginSuccess        = "success"
	LoginUnknownAccount = "unknown_account"
	LoginBadCredentials = "bad_credentials"
)

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	signer      *TokenSigner
	metrics     Metrics
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	metrics Metrics,
	config ServiceConfig,
) *Service {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		signer:      NewTokenSigner(config.SecretKey, now),
		metrics:     metrics,
		config:      config,
		now:         now,
	}
}

// Register はアカウントを作成する。
// メールアドレスの重複は確認しない（同じメールアドレスでも登録に成功する）。
// 自動ログインは行わない。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	// maxタグは文字数で数えるため、bcryptの上限はバイト数で別に確認する
	if len(in.Password) > MaxPasswordBytes {
		return nil, model.NewValidationError("password", fmt.Sprintf("Must be at most %d bytes.", MaxPasswordBytes))
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}
	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	if user.IsAdmin() {
		slog.Info("administrator account bootstrapped", slog.Int64("user_id", user.ID))
	}
	return user, nil
}

// Authenticate はメールアドレスとパスワードでユーザーを認証する。
// 未登録の場合はUNKNOWN_ACCOUNT、パスワード不一致の場合はBAD_CREDENTIALSを返す。
func (s *Service) Authenticate(ctx context.Context, in LoginInput) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindFirstByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recordLogin(LoginUnknownAccount)
		slog.Warn("login attempt for unknown account")
		return nil, model.NewUnknownAccountError()
	}

	ok, err := CheckPassword(user.PasswordHash, in.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.recordLogin(LoginBadCredentials)
		slog.Warn("login attempt with bad credentials", slog.Int64("user_id", user.ID))
		return nil, model.NewBadCredentialsError()
	}

	s.recordLogin(LoginSuccess)
	return user, nil
}

// EstablishSession はセッションを永続化し、署名済みトークンを発行する。
func (s *Service) EstablishSession(ctx context.Context, user *model.User) (*IssuedSession, error) {
	now := s.now()
	session := &model.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	token, err := s.signer.Sign(TokenClaims{
		SessionID: session.ID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return &IssuedSession{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Login は認証とセッション発行をまとめて行う。
func (s *Service) Login(ctx context.Context, in LoginInput) (*model.User, *IssuedSession, error) {
	user, err := s.Authenticate(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	issued, err := s.EstablishSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, issued, nil
}

// TeardownSession はトークンが指すセッションを破棄する。
// トークンが空または不正な場合は何もしない。何度呼び出しても結果は同じ。
func (s *Service) TeardownSession(ctx context.Context, token string) error {
	claims, err := s.signer.Parse(token)
	if err != nil {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.Int64("user_id", claims.UserID))
	return nil
}

// ResolvePrincipal はトークンから現在の実行主体を復元する。
// トークンが空・不正・期限切れ・失効済み、またはユーザーが存在しない場合はAnonymousを返す。
// ストレージのエラーはログに記録し、Anonymousとして扱う。
func (s *Service) ResolvePrincipal(ctx context.Context, token string) access.Principal {
	if token == "" {
		return access.Anonymous
	}

	claims, err := s.signer.Parse(token)
	if err != nil {
		slog.Debug("session token rejected", slog.String("error", err.Error()))
		return access.Anonymous
	}

	session, err := s.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		slog.Error("failed to find session", slog.String("error", err.Error()))
		return access.Anonymous
	}
	if session == nil || session.UserID != claims.UserID {
		return access.Anonymous
	}

	user, err := s.findUser(ctx, session.UserID)
	if model.IsNotFound(err) {
		slog.Debug("session user no longer exists", slog.Int64("user_id", session.UserID))
		return access.Anonymous
	}
	if err != nil {
		slog.Error("failed to find session user",
			slog.Int64("user_id", session.UserID),
			slog.String("error", err.Error()),
		)
		return access.Anonymous
	}
	return access.FromUser(user)
}

// findUser はユーザーを取得する。存在しない場合はUSER_NOT_FOUNDを返す。
func (s *Service) findUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

func (s *Service) recordLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(outcome)
	}
}
