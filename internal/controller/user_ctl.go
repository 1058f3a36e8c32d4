package controller

import (
	"net/http"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/service"

	"github.com/gin-gonic/gin"
)

// UserController 用户管理（仅管理员）
type UserController struct {
	userService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{userService: userService}
}

// ListUsers 用户列表
// @Summary 用户列表
// @Tags User
// @Produce json
// @Security BearerAuth
// @Param role query string false "admin|vendor|customer"
// @Success 200 {object} dto.UserListResponse
// @Router /api/v1/users [get]
func (ctrl *UserController) ListUsers(c *gin.Context) {
	resp, err := ctrl.userService.ListUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, resp)
}

// GetUser 用户详情
// @Summary 用户详情
// @Tags User
// @Produce json
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Success 200 {object} dto.UserInfo
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/users/{id} [get]
func (ctrl *UserController) GetUser(c *gin.Context) {
	info, err := ctrl.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, info)
}

// CreateUser 创建用户
// @Summary 创建用户
// @Description 商家账号必须关联已存在的商家
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "用户信息"
// @Success 201 {object} dto.UserInfo
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "邮箱已存在"
// @Router /api/v1/users [post]
func (ctrl *UserController) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	info, err := ctrl.userService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, info)
}

// UpdateUser 更新用户
// @Summary 更新用户
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Param request body dto.UpdateUserRequest true "要修改的字段"
// @Success 200 {object} dto.UserInfo
// @Router /api/v1/users/{id} [patch]
func (ctrl *UserController) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	info, err := ctrl.userService.UpdateUser(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, info)
}

// ResetPassword 重置密码
// @Summary 重置用户密码
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Param request body dto.ResetPasswordRequest true "新密码"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/users/{id}/password [put]
func (ctrl *UserController) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := ctrl.userService.ResetPassword(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		respondError(c, err)
		return
	}
	success(c, nil)
}

// DeleteUser 删除用户
// @Summary 删除用户
// @Description 不能删除自己，也不能删除最后一个管理员
// @Tags User
// @Produce json
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/users/{id} [delete]
func (ctrl *UserController) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == middleware.GetUserID(c) {
		fail(c, http.StatusBadRequest, "不能删除当前登录的账号", nil)
		return
	}
	if err := ctrl.userService.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	success(c, nil)
}
