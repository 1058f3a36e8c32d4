package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"shop_admin_v1_202610/internal/model"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuth 只认识一个 token
type fakeAuth struct {
	token   string
	session *model.Session
}

func (f *fakeAuth) Authenticate(token string, now time.Time) (*model.Session, error) {
	if token != f.token {
		return nil, errors.New("会话不存在")
	}
	return f.session, nil
}

func serve(r *gin.Engine, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==================== JWT ====================

func TestSessionToken_RoundTrip(t *testing.T) {
	SetJWTConfig(&JWTConfig{SecretKey: "mw-secret", Issuer: "mw-test"})
	now := time.Now()
	user := model.SessionUser{ID: "u1", Role: model.RoleVendor, VendorID: "v1"}

	token, err := GenerateSessionToken("s1", user, now, now.Add(time.Hour))
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.ID)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "v1", claims.VendorID)

	// 过期的 token 仍可解析，由会话层判断过期
	old, err := GenerateSessionToken("s2", user, now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = ParseToken(old)
	assert.NoError(t, err)

	// 其他签发者
	SetJWTConfig(&JWTConfig{SecretKey: "mw-secret", Issuer: "someone-else"})
	_, err = ParseToken(token)
	assert.Error(t, err)

	SetJWTConfig(&JWTConfig{SecretKey: "another-secret", Issuer: "mw-test"})
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestGenerateSessionToken_NoSecret(t *testing.T) {
	SetJWTConfig(DefaultJWTConfig())
	_, err := GenerateSessionToken("s1", model.SessionUser{ID: "u1"}, time.Now(), time.Now().Add(time.Hour))
	assert.Error(t, err)
}

// ==================== SessionAuth / RequireRole ====================

func setupAuthRouter() *gin.Engine {
	auth := &fakeAuth{
		token: "good",
		session: &model.Session{
			Token: "good",
			User:  model.SessionUser{ID: "u1", Role: model.RoleVendor, VendorID: "v1"},
		},
	}
	r := gin.New()
	g := r.Group("/", SessionAuth(auth), AuditContext())
	g.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user":   GetUserID(c),
			"vendor": GetVendorID(c),
			"audit":  GetAuditUserID(c.Request.Context()),
		})
	})
	g.GET("/admin", RequireRole(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	g.GET("/shared", RequireRole(model.RoleAdmin, model.RoleVendor), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestSessionAuth(t *testing.T) {
	r := setupAuthRouter()

	w := serve(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", map[string]string{"Authorization": "Token good"})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "只接受 Bearer")

	w = serve(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer good"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u1","vendor":"v1","audit":"u1"}`, w.Body.String())

	w = serve(r, http.MethodGet, "/me?token=good", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := setupAuthRouter()
	header := map[string]string{"Authorization": "Bearer good"}

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", header).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/shared", header).Code)

	// 未经过 SessionAuth
	bare := gin.New()
	bare.GET("/admin", RequireRole(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusUnauthorized, serve(bare, http.MethodGet, "/admin", nil).Code)
}

// ==================== 冷却限流 ====================

func TestCooldownLimiter(t *testing.T) {
	l := &CooldownLimiter{}

	assert.True(t, l.Check("k", time.Minute).Allowed)
	res := l.Check("k", time.Minute)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)
	assert.False(t, l.CheckOnly("k", time.Minute).Allowed)

	l.Reset("k")
	assert.True(t, l.CheckOnly("k", time.Minute).Allowed)
	assert.True(t, l.Check("k", time.Minute).Allowed)

	assert.True(t, l.Check("short", time.Millisecond).Allowed)
	time.Sleep(5 * time.Millisecond)
	assert.True(t, l.Check("short", time.Millisecond).Allowed)
}

func TestCooldownLimiter_PrunesExpiredKeys(t *testing.T) {
	l := &CooldownLimiter{}
	for i := 0; i < pruneEvery-1; i++ {
		assert.True(t, l.Check(fmt.Sprintf("k%d", i), time.Millisecond).Allowed)
	}
	assert.Equal(t, pruneEvery-1, l.Len())

	time.Sleep(5 * time.Millisecond)
	assert.True(t, l.Check("live", time.Minute).Allowed)
	assert.Equal(t, 1, l.Len(), "过期的 key 已清理")
	assert.False(t, l.CheckOnly("live", time.Minute).Allowed)
}

func TestUserLimitKey(t *testing.T) {
	assert.Equal(t, "email:refund:u1", UserLimitKey(LimitEmail, "refund", "u1"))
	assert.Equal(t, "csv_import:u1", UserLimitKey(LimitCSVImport, "", "u1"))
	assert.Equal(t, time.Minute, GetInterval(LimitLegacyImport))
	assert.Equal(t, 10*time.Second, GetInterval(LimitKind("unknown")))
}

func TestCooldownRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/emails/:kind", CooldownRateLimit(LimitEmail, "kind", time.Minute), func(c *gin.Context) {
		if c.Query("fail") != "" {
			ResetCooldown(c)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	// 未登录时按客户端 IP 限流
	t.Cleanup(func() {
		for _, kind := range []string{"refund", "shipped", "cancel"} {
			GetLimiter().Reset(UserLimitKey(LimitEmail, kind, "192.0.2.1"))
		}
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/emails/refund", nil).Code)
	w := serve(r, http.MethodPost, "/emails/refund", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "retry_after")

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/emails/shipped", nil).Code)

	// 失败后释放冷却
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodPost, "/emails/cancel?fail=1", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/emails/cancel", nil).Code)
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "操作过于频繁，请 1 秒后重试", formatRetryMessage(200*time.Millisecond))
	assert.Equal(t, "操作过于频繁，请 2 分钟后重试", formatRetryMessage(2*time.Minute))
	assert.Equal(t, "操作过于频繁，请 1 分 30 秒后重试", formatRetryMessage(90*time.Second))
}

// ==================== Recovery ====================

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()), Recovery(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
