package model

// 用户角色
const (
	RoleAdmin    = "admin"
	RoleVendor   = "vendor"
	RoleCustomer = "customer"
)

// User 用户 users/{id}
// 只保存 bcrypt 哈希，明文密码不落库
type User struct {
	Meta

	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email"`
	PasswordHash string `json:"passwordHash,omitempty"`
	Role         string `json:"role" validate:"required,oneof=admin vendor customer"`
	VendorID     string `json:"vendorId,omitempty" validate:"required_if=Role vendor"`
	Phone        string `json:"phone,omitempty"`
	Active       bool   `json:"active"`
}
