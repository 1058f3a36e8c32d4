package dto

import "shop_admin_v1_202610/internal/model"

// ==================== 登录 ====================

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=100"`
}

// LoginResponse 登录响应，ExpiresAt 为毫秒时间戳
type LoginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt int64             `json:"expiresAt"`
	User      model.SessionUser `json:"user"`
}

// ==================== 用户信息 ====================

// UserInfo 用户信息（不含密码哈希）
type UserInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	VendorID  string `json:"vendorId,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// ==================== 用户管理 ====================

// CreateUserRequest 创建用户
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=100"`
	Role     string `json:"role" binding:"required,oneof=admin vendor customer"`
	VendorID string `json:"vendorId"`
	Phone    string `json:"phone"`
}

// UpdateUserRequest 更新用户，未传的字段不修改
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
	Role     *string `json:"role,omitempty" binding:"omitempty,oneof=admin vendor customer"`
	VendorID *string `json:"vendorId,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// ResetPasswordRequest 重置密码
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=100"`
}

// UserListResponse 用户列表
type UserListResponse struct {
	List  []*UserInfo `json:"list"`
	Total int         `json:"total"`
}
