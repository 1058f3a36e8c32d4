package controller

import (
	"errors"
	"net/http"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"shop_admin_v1_202610/internal/service"
	"shop_admin_v1_202610/pkg/rtdb"

	"github.com/gin-gonic/gin"
)

// ==================== 统一响应 ====================

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "创建成功",
		"data":    data,
	})
}

func fail(c *gin.Context, status int, message string, data any) {
	body := gin.H{
		"code":    status,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// badRequest 参数绑定失败
func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, "参数错误: "+err.Error(), nil)
}

// respondError 按错误类型映射 HTTP 状态码
func respondError(c *gin.Context, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, err.Error(), gin.H{"problems": ve.Problems})
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrUserNotFound):
		fail(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrSessionExpired):
		fail(c, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, service.ErrUserDisabled):
		fail(c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, service.ErrEmailExists):
		fail(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrCannotDeleteAdmin),
		errors.Is(err, service.ErrImportHeader),
		errors.Is(err, service.ErrImageRejected):
		fail(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrStorageDisabled), errors.Is(err, service.ErrMailNotConfigured):
		fail(c, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		switch rtdb.CodeOf(err) {
		case rtdb.CodeInvalidPath, rtdb.CodeInvalidData:
			fail(c, http.StatusBadRequest, err.Error(), nil)
		case rtdb.CodeUnavailable, rtdb.CodePermissionDenied:
			fail(c, http.StatusBadGateway, "数据存储不可用: "+err.Error(), nil)
		default:
			fail(c, http.StatusInternalServerError, err.Error(), nil)
		}
	}
}
