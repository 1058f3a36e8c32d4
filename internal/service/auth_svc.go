package service

import (
	"context"
	"errors"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/model"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 登录会话
// 会话保存在内存中，退出登录即销毁；Token 只是会话的签名凭证
type AuthService struct {
	users    *UserService
	sessions *ttlcache.Cache[string, *model.Session]
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewAuthService ttl 为 0 时使用固定的 20 天
func NewAuthService(users *UserService, ttl time.Duration, logger *zap.Logger) *AuthService {
	if ttl <= 0 {
		ttl = model.SessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sessions := ttlcache.New[string, *model.Session](
		ttlcache.WithTTL[string, *model.Session](ttl),
		ttlcache.WithDisableTouchOnHit[string, *model.Session](),
	)
	go sessions.Start()

	svc := &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
	users.SetSessionRevoker(svc)
	return svc
}

// Stop 停止过期清理
func (s *AuthService) Stop() {
	s.sessions.Stop()
}

// Login 邮箱 + 密码登录
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrUserDisabled
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	sessionUser := model.SessionUser{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		VendorID: user.VendorID,
	}
	sessionID := uuid.NewString()
	token, err := middleware.GenerateSessionToken(sessionID, sessionUser, now, expiresAt)
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		Token:     token,
		User:      sessionUser,
		ExpiresAt: expiresAt.UnixMilli(),
	}
	s.sessions.Set(sessionID, session, s.ttl)
	s.logger.Info("[Auth] 登录成功", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return session, nil
}

// Logout 销毁会话，重复调用无副作用
func (s *AuthService) Logout(token string) {
	claims, err := middleware.ParseToken(token)
	if err != nil {
		return
	}
	s.sessions.Delete(claims.ID)
}

// Authenticate 校验 Token 并取回会话，now 时刻已过期的会话会被销毁
func (s *AuthService) Authenticate(token string, now time.Time) (*model.Session, error) {
	claims, err := middleware.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	item := s.sessions.Get(claims.ID)
	if item == nil {
		return nil, ErrSessionExpired
	}
	session := item.Value()
	if session.Token != token {
		return nil, ErrInvalidToken
	}
	if model.IsExpired(session, now) {
		s.sessions.Delete(claims.ID)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// RevokeUser 销毁该用户的全部会话，返回销毁数量
func (s *AuthService) RevokeUser(userID string) int {
	var ids []string
	s.sessions.Range(func(item *ttlcache.Item[string, *model.Session]) bool {
		if item.Value().User.ID == userID {
			ids = append(ids, item.Key())
		}
		return true
	})
	for _, id := range ids {
		s.sessions.Delete(id)
	}
	if len(ids) > 0 {
		s.logger.Info("[Auth] 已销毁用户会话", zap.String("user_id", userID), zap.Int("count", len(ids)))
	}
	return len(ids)
}

// ActiveSessions 当前有效会话数
func (s *AuthService) ActiveSessions() int {
	return s.sessions.Len()
}

// BootstrapAdmin 没有任何管理员时按配置创建一个，返回是否创建
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password, name string) (bool, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return false, nil
	}
	exists, err := s.users.HasAdmin(ctx)
	if err != nil || exists {
		return false, err
	}
	if name == "" {
		name = "Administrator"
	}
	user, err := s.users.CreateUser(ctx, &dto.CreateUserRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	s.logger.Info("[Auth] 已创建初始管理员", zap.String("email", user.Email))
	return true, nil
}
