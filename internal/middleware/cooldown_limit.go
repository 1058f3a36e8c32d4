package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ContextKeyCooldown 本次请求占用的限流 key
const ContextKeyCooldown = "cooldown_key"

// ==================== 冷却限流中间件 ====================

// CooldownRateLimit 冷却限流中间件
// 按 类别 + 路由参数 + 当前用户 维度限流，未登录时使用客户端 IP
//
// 使用示例:
//
//	router.POST("/api/v1/emails/:kind",
//	    middleware.CooldownRateLimit(middleware.LimitEmail, "kind", 0),
//	    emailCtl.Send,
//	)
//
// 参数:
//   - kind: 限流类别
//   - param: 参与限流的路由参数名，为空表示不区分
//   - interval: 冷却间隔，0 表示使用默认值
func CooldownRateLimit(kind LimitKind, param string, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = GetInterval(kind)
	}

	return func(c *gin.Context) {
		var sub string
		if param != "" {
			sub = c.Param(param)
		}
		who := GetUserID(c)
		if who == "" {
			who = c.ClientIP()
		}
		key := UserLimitKey(kind, sub, who)

		result := GetLimiter().Check(key, interval)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": int(result.RetryAfter.Seconds()) + 1,
					"kind":        kind,
				},
			})
			c.Abort()
			return
		}

		c.Set(ContextKeyCooldown, key)
		c.Next()
	}
}

// ResetCooldown 释放本次请求占用的冷却，操作失败后允许立即重试
func ResetCooldown(c *gin.Context) {
	if key := c.GetString(ContextKeyCooldown); key != "" {
		GetLimiter().Reset(key)
	}
}

// ==================== 辅助函数 ====================

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	if seconds < 60 {
		return fmt.Sprintf("操作过于频繁，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("操作过于频繁，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("操作过于频繁，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
