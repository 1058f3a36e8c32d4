package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"shop_admin_v1_202610/internal/service"
	"shop_admin_v1_202610/pkg/rtdb"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"校验失败", model.NewValidationError([]string{"name 不能为空"}), http.StatusBadRequest},
		{"记录不存在", fmt.Errorf("products/p1: %w", repository.ErrNotFound), http.StatusNotFound},
		{"用户不存在", service.ErrUserNotFound, http.StatusNotFound},
		{"密码错误", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"会话过期", service.ErrSessionExpired, http.StatusUnauthorized},
		{"账号停用", service.ErrUserDisabled, http.StatusForbidden},
		{"邮箱重复", service.ErrEmailExists, http.StatusConflict},
		{"图片不合法", fmt.Errorf("%w: 文件为空", service.ErrImageRejected), http.StatusBadRequest},
		{"存储未配置", service.ErrStorageDisabled, http.StatusServiceUnavailable},
		{"非法路径", &rtdb.Error{Op: "get", Path: "a.b", Code: rtdb.CodeInvalidPath, Err: rtdb.ErrInvalidPath}, http.StatusBadRequest},
		{"存储不可用", &rtdb.Error{Op: "get", Path: "orders", Code: rtdb.CodeUnavailable, Err: errors.New("dial tcp")}, http.StatusBadGateway},
		{"无权限", &rtdb.Error{Op: "set", Path: "orders", Code: rtdb.CodePermissionDenied, Err: errors.New("denied")}, http.StatusBadGateway},
		{"其他错误", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err)
			assert.Equal(t, tt.want, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.EqualValues(t, tt.want, body["code"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestRespondError_ValidationProblems(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, model.NewValidationError([]string{"name 不能为空", "price 必须大于 0"}))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	problems := dataOf(body)["problems"].([]any)
	assert.Equal(t, []any{"name 不能为空", "price 必须大于 0"}, problems)
}
