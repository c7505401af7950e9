package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jomadlcrz/Class-Schedule-System/config"
	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
	"github.com/jomadlcrz/Class-Schedule-System/internal/model"
	"github.com/jomadlcrz/Class-Schedule-System/internal/repository"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/jwt"
)

var (
	ErrOAuthStateInvalid = errors.New("OAuth state 无效或已过期")
	ErrOAuthExchange     = errors.New("第三方登录授权失败")
	ErrIdentityNoEmail   = errors.New("第三方账号未提供邮箱")
	ErrSessionInvalid    = errors.New("会话无效或已过期")
)

// IdentityProvider 第三方身份提供方
type IdentityProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*dto.Identity, error)
}

// LoginResult 登录成功后写入 Cookie 的会话令牌
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService 认证业务接口
//
// 会话策略：
//   - 数据库会话，令牌为 32 字节随机数，库中只存 SHA-256
//   - 有效期 max_age；距上次续期超过 update_age 时滚动续期
//   - 过期会话在读取时删除，登录时顺带清理全部过期会话
type AuthService interface {
	// BeginLogin 返回授权跳转地址和需写入 Cookie 的 nonce
	BeginLogin() (redirectURL, nonce string, err error)
	CompleteLogin(ctx context.Context, code, state, nonce string) (*LoginResult, error)
	// Authenticate 按令牌解析当前会话，每个请求调用一次
	Authenticate(ctx context.Context, token string) (*dto.SessionResponse, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	cfg      *config.AuthConfig
	repo     *repository.Repository
	jwtMgr   *jwt.Manager
	provider IdentityProvider
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.AuthConfig,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	provider IdentityProvider,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:      cfg,
		repo:     repo,
		jwtMgr:   jwtMgr,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *authService) BeginLogin() (string, string, error) {
	state, nonce, err := s.jwtMgr.GenerateState()
	if err != nil {
		s.logger.Error("生成 OAuth state 失败", zap.Error(err))
		return "", "", err
	}
	return s.provider.AuthCodeURL(state), nonce, nil
}

func (s *authService) CompleteLogin(ctx context.Context, code, state, nonce string) (*LoginResult, error) {
	// 1. 校验 state 签名、有效期以及与 Cookie 中 nonce 是否一致
	got, err := s.jwtMgr.ParseState(state)
	if err != nil || nonce == "" || got != nonce {
		s.logger.Warn("OAuth state 校验失败", zap.Error(err))
		return nil, ErrOAuthStateInvalid
	}
	if code == "" {
		return nil, ErrOAuthExchange
	}

	// 2. 授权码换取用户信息
	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("第三方授权码兑换失败", zap.String("provider", s.provider.Name()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, ErrIdentityNoEmail
	}

	// 3. 查找或创建用户并绑定账号
	user, err := s.repo.User.UpsertWithAccount(ctx, &model.User{
		Email: email,
		Name:  identity.Name,
		Image: identity.Picture,
	}, s.provider.Name(), identity.Subject)
	if err != nil {
		s.logger.Error("保存登录用户失败", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	// 4. 创建数据库会话
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	session := &model.Session{
		TokenHash: hashToken(token),
		UserID:    user.UserID,
		ExpiresAt: now.Add(s.cfg.Session.MaxAge),
	}
	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.logger.Error("创建会话失败", zap.String("user_id", user.UserID), zap.Error(err))
		return nil, err
	}

	// 顺带清理过期会话，失败不影响登录
	if n, err := s.repo.Session.DeleteExpired(ctx, now); err != nil {
		s.logger.Warn("清理过期会话失败", zap.Error(err))
	} else if n > 0 {
		s.logger.Debug("已清理过期会话", zap.Int64("count", n))
	}

	s.logger.Info("用户登录成功", zap.String("user_id", user.UserID), zap.String("email", email))
	return &LoginResult{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*dto.SessionResponse, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}
	hash := hashToken(token)

	session, err := s.repo.Session.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if session.User == nil {
		return nil, ErrSessionInvalid
	}

	now := s.now()
	if !now.Before(session.ExpiresAt) {
		if err := s.repo.Session.DeleteByTokenHash(ctx, hash); err != nil {
			s.logger.Warn("删除过期会话失败", zap.Error(err))
		}
		return nil, ErrSessionInvalid
	}

	// 滚动续期：上次续期时间 = expires - max_age
	resp := &dto.SessionResponse{
		User:    toSessionUser(session.User),
		Expires: session.ExpiresAt,
	}
	lastRefresh := session.ExpiresAt.Add(-s.cfg.Session.MaxAge)
	if now.Sub(lastRefresh) >= s.cfg.Session.UpdateAge {
		extended := now.Add(s.cfg.Session.MaxAge)
		if err := s.repo.Session.Extend(ctx, session.SessionID, extended); err != nil {
			s.logger.Warn("会话续期失败", zap.String("session_id", session.SessionID), zap.Error(err))
		} else {
			resp.Expires = extended
			resp.Refreshed = true
		}
	}
	return resp, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.Session.DeleteByTokenHash(ctx, hashToken(token)); err != nil {
		s.logger.Error("删除会话失败", zap.Error(err))
		return err
	}
	return nil
}

// ── 辅助函数 ──

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("生成会话令牌失败: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func toSessionUser(u *model.User) dto.SessionUser {
	return dto.SessionUser{
		ID:           u.UserID,
		Email:        u.Email,
		Name:         u.Name,
		Image:        u.Image,
		Program:      u.Program,
		Year:         u.Year,
		Semester:     u.Semester,
		AcademicYear: u.AcademicYear,
	}
}
