package middleware

import (
	"errors"
	"net/http"
	"shop_admin_v1_202610/internal/model"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== JWT 配置 ====================

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey string // 签名密钥
	Issuer    string // 签发者
}

// DefaultJWTConfig 默认配置，密钥必须由配置覆盖
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		Issuer: "shop-admin",
	}
}

// 全局配置
var jwtConfig = DefaultJWTConfig()

// SetJWTConfig 设置 JWT 配置
func SetJWTConfig(cfg *JWTConfig) {
	jwtConfig = cfg
}

// GetJWTConfig 获取 JWT 配置
func GetJWTConfig() *JWTConfig {
	return jwtConfig
}

// ==================== Claims 定义 ====================

// SessionClaims 会话声明，RegisteredClaims.ID 为会话 id
type SessionClaims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	VendorID string `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}

// ==================== Token 生成 ====================

// GenerateSessionToken 生成会话 Token
func GenerateSessionToken(sessionID string, user model.SessionUser, issuedAt, expiresAt time.Time) (string, error) {
	if jwtConfig.SecretKey == "" {
		return "", errors.New("JWT 密钥未配置")
	}
	claims := &SessionClaims{
		UserID:   user.ID,
		Role:     user.Role,
		VendorID: user.VendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    jwtConfig.Issuer,
			Subject:   "session",
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.SecretKey))
}

// ==================== Token 解析 ====================

// ParseToken 只校验签名和签发者，过期由会话层按 IsExpired 判断
func ParseToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(jwtConfig.SecretKey), nil
	}, jwt.WithoutClaimsValidation())

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid && claims.Subject == "session" && claims.Issuer == jwtConfig.Issuer {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

// SessionAuthenticator 根据 Token 取回会话（service.AuthService 实现）
type SessionAuthenticator interface {
	Authenticate(token string, now time.Time) (*model.Session, error)
}

// Context Keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyRole     = "role"
	ContextKeyVendorID = "vendor_id"
	ContextKeySession  = "session"
)

// SessionAuth 会话认证中间件，每次请求都检查会话是否过期
func SessionAuth(auth SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未提供认证信息",
			})
			c.Abort()
			return
		}

		session, err := auth.Authenticate(token, time.Now())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": err.Error(),
			})
			c.Abort()
			return
		}

		// 注入会话到 Context
		c.Set(ContextKeySession, session)
		c.Set(ContextKeyUserID, session.User.ID)
		c.Set(ContextKeyRole, session.User.Role)
		c.Set(ContextKeyVendorID, session.User.VendorID)

		c.Next()
	}
}

// bearerToken 优先读取 Authorization 头；EventSource 无法设置请求头，允许 ?token= 传入
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query("token")
		return token, token != ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireRole 角色权限校验中间件
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextKeyRole)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未获取到用户角色",
			})
			c.Abort()
			return
		}

		userRole := role.(string)
		for _, r := range roles {
			if userRole == r {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": "无权限访问",
		})
		c.Abort()
	}
}

// ==================== 辅助函数 ====================

// GetSession 从 Context 获取会话
func GetSession(c *gin.Context) *model.Session {
	if s, exists := c.Get(ContextKeySession); exists {
		return s.(*model.Session)
	}
	return nil
}

// GetUserID 从 Context 获取用户 ID
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(ContextKeyUserID); exists {
		return id.(string)
	}
	return ""
}

// GetUserRole 从 Context 获取用户角色
func GetUserRole(c *gin.Context) string {
	if role, exists := c.Get(ContextKeyRole); exists {
		return role.(string)
	}
	return ""
}

// GetVendorID 从 Context 获取商家 ID（非商家账号为空）
func GetVendorID(c *gin.Context) string {
	if id, exists := c.Get(ContextKeyVendorID); exists {
		return id.(string)
	}
	return ""
}
