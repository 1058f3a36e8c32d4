package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== CooldownLimiter 冷却限流器 ====================

// CooldownLimiter 邮件发送和数据导入的冷却限流
// 同一用户在冷却期内重复提交直接返回 429，零值可用
type CooldownLimiter struct {
	mu      sync.Mutex
	entries map[string]cooldown
	calls   int
}

// cooldown 上次占用时间与冷却截止时间
type cooldown struct {
	at    time.Time
	until time.Time
}

func (c cooldown) remaining(now time.Time, interval time.Duration) time.Duration {
	return c.at.Add(interval).Sub(now)
}

// 全局限流器实例
var globalLimiter = &CooldownLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *CooldownLimiter {
	return globalLimiter
}

// pruneEvery 每隔多少次 Check 清理一次已过冷却期的 key
const pruneEvery = 256

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 冷却期外返回允许，并从现在起占用 interval
// key: 限流键，如 "email:refund:user-1"
func (r *CooldownLimiter) Check(key string, interval time.Duration) CheckResult {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]cooldown)
	}
	r.calls++
	if r.calls%pruneEvery == 0 {
		for k, c := range r.entries {
			if !now.Before(c.until) {
				delete(r.entries, k)
			}
		}
	}

	if c, ok := r.entries[key]; ok {
		if left := c.remaining(now, interval); left > 0 {
			return CheckResult{RetryAfter: left}
		}
	}
	r.entries[key] = cooldown{at: now, until: now.Add(interval)}
	return CheckResult{Allowed: true}
}

// CheckOnly 只查询，不占用冷却
func (r *CooldownLimiter) CheckOnly(key string, interval time.Duration) CheckResult {
	r.mu.Lock()
	c, ok := r.entries[key]
	r.mu.Unlock()

	if ok {
		if left := c.remaining(time.Now(), interval); left > 0 {
			return CheckResult{RetryAfter: left}
		}
	}
	return CheckResult{Allowed: true}
}

// Len 仍在记录中的 key 数量，含已过期但尚未清理的
func (r *CooldownLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Reset 释放 key 的冷却，请求失败后允许立即重试
func (r *CooldownLimiter) Reset(key string) {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
}

// ==================== Key 生成工具 ====================

// LimitKind 限流类别
type LimitKind string

const (
	LimitEmail        LimitKind = "email"
	LimitLegacyImport LimitKind = "legacy_import"
	LimitCSVImport    LimitKind = "csv_import"
)

// UserLimitKey 按用户 + 类别 + 子类别生成 Key
func UserLimitKey(kind LimitKind, sub, userID string) string {
	if sub == "" {
		return fmt.Sprintf("%s:%s", kind, userID)
	}
	return fmt.Sprintf("%s:%s:%s", kind, sub, userID)
}

// ==================== 默认冷却间隔 ====================

// DefaultIntervals 默认冷却间隔
var DefaultIntervals = map[LimitKind]time.Duration{
	LimitEmail:        10 * time.Second,
	LimitLegacyImport: time.Minute,
	LimitCSVImport:    5 * time.Second,
}

// GetInterval 获取类别的默认间隔
func GetInterval(kind LimitKind) time.Duration {
	if interval, ok := DefaultIntervals[kind]; ok {
		return interval
	}
	return 10 * time.Second
}
