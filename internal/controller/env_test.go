package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/service"
	"shop_admin_v1_202610/pkg/rtdb"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试辅助 ====================

type ctlEnv struct {
	db        *rtdb.Database
	ops       *service.OperationService
	validator *model.SchemaValidator
	router    *gin.Engine
	ctx       context.Context
}

// newCtlEnv 内存存储 + 已登录的管理员会话
func newCtlEnv(t *testing.T) *ctlEnv {
	return newCtlEnvAs(t, model.SessionUser{ID: "admin-1", Role: model.RoleAdmin})
}

func newCtlEnvAs(t *testing.T, user model.SessionUser) *ctlEnv {
	t.Helper()
	db := rtdb.New(rtdb.NewMemoryBackend())
	validator := model.NewSchemaValidator()
	ops := service.NewOperationService(db, validator, nil)
	t.Cleanup(func() {
		ops.Stop()
		_ = db.Close()
	})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeySession, &model.Session{Token: "test-token", User: user})
		c.Set(middleware.ContextKeyUserID, user.ID)
		c.Set(middleware.ContextKeyRole, user.Role)
		c.Set(middleware.ContextKeyVendorID, user.VendorID)
		c.Next()
	}, middleware.AuditContext())

	return &ctlEnv{db: db, ops: ops, validator: validator, router: r, ctx: context.Background()}
}

func (e *ctlEnv) seed(t *testing.T, path string, value any) {
	t.Helper()
	require.NoError(t, e.db.Set(e.ctx, path, value))
}

func (e *ctlEnv) value(t *testing.T, path string) any {
	t.Helper()
	snap, err := e.db.Get(e.ctx, path)
	require.NoError(t, err)
	return snap.Value
}

// do 发起 JSON 请求并解析响应体
func (e *ctlEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func dataOf(resp map[string]any) map[string]any {
	data, _ := resp["data"].(map[string]any)
	return data
}

func assertStatus(t *testing.T, want int, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, w.Code, w.Body.String())
}
