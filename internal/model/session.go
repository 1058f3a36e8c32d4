package model

import "time"

// SessionTTL 会话固定有效期
const SessionTTL = 20 * 24 * time.Hour

// SessionUser 会话中保存的用户信息（不含密码哈希）
type SessionUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	VendorID string `json:"vendorId,omitempty"`
}

// Session 登录会话，显式注入到请求上下文
type Session struct {
	Token     string      `json:"token"`
	User      SessionUser `json:"user"`
	ExpiresAt int64       `json:"expiresAt"` // 毫秒时间戳
}

// IsExpired 会话在 now 时刻是否已过期
func IsExpired(s *Session, now time.Time) bool {
	if s == nil {
		return true
	}
	return now.UnixMilli() >= s.ExpiresAt
}
