package controller

import (
	"net/http"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/service"
	"strings"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService *service.AuthService
	userService *service.UserService
}

func NewAuthController(authService *service.AuthService, userService *service.UserService) *AuthController {
	return &AuthController{authService: authService, userService: userService}
}

// Login 登录
// @Summary 邮箱密码登录
// @Description 成功后返回会话 Token，有效期 20 天
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} map[string]interface{} "邮箱或密码错误"
// @Failure 403 {object} map[string]interface{} "账号已停用"
// @Router /api/v1/auth/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := ctrl.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, dto.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      session.User,
	})
}

// Logout 退出登录
// @Summary 退出登录并销毁会话
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/auth/logout [post]
func (ctrl *AuthController) Logout(c *gin.Context) {
	if session := middleware.GetSession(c); session != nil {
		ctrl.authService.Logout(session.Token)
	} else if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		ctrl.authService.Logout(strings.TrimPrefix(h, "Bearer "))
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "已退出登录"})
}

// Me 当前登录用户
// @Summary 当前登录用户信息
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserInfo
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/me [get]
func (ctrl *AuthController) Me(c *gin.Context) {
	info, err := ctrl.userService.GetUserByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, gin.H{
		"user":      info,
		"expiresAt": middleware.GetSession(c).ExpiresAt,
	})
}
