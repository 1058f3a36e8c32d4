package service

import (
	"context"
	"errors"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ==================== UserService 用户服务 ====================

// UserService 用户服务
type UserService struct {
	users     *repository.CollectionRepository[model.User, *model.User]
	vendors   *repository.CollectionRepository[model.Vendor, *model.Vendor]
	validator *model.SchemaValidator
	sessions  SessionRevoker
}

// SessionRevoker 销毁某个用户的全部会话
type SessionRevoker interface {
	RevokeUser(userID string) int
}

// NewUserService 创建用户服务
func NewUserService(reader repository.Reader, writer repository.Mutator, validator *model.SchemaValidator) *UserService {
	return &UserService{
		users:     repository.NewCollectionRepository[model.User, *model.User](model.ColUsers, reader, writer),
		vendors:   repository.NewCollectionRepository[model.Vendor, *model.Vendor](model.ColVendors, reader, writer),
		validator: validator,
	}
}

// SetSessionRevoker 删除、禁用、改角色或重置密码后销毁该用户已登录的会话
func (s *UserService) SetSessionRevoker(r SessionRevoker) {
	s.sessions = r
}

func (s *UserService) revokeSessions(userID string) {
	if s.sessions != nil {
		s.sessions.RevokeUser(userID)
	}
}

// ==================== 查询 ====================

// ListUsers 用户列表，最新的在前；role 为空时返回全部
func (s *UserService) ListUsers(ctx context.Context, role string) (*dto.UserListResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	repository.SortByCreatedDesc(users)

	list := make([]*dto.UserInfo, 0, len(users))
	for _, u := range users {
		if role == "" || u.Role == role {
			list = append(list, s.toUserInfo(u))
		}
	}
	return &dto.UserListResponse{List: list, Total: len(list)}, nil
}

// GetUserByID 获取用户详情
func (s *UserService) GetUserByID(ctx context.Context, id string) (*dto.UserInfo, error) {
	user, err := s.users.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.toUserInfo(user), nil
}

// FindByEmail 按邮箱查找（忽略大小写），返回含密码哈希的完整记录
func (s *UserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

// HasAdmin 是否已存在管理员
func (s *UserService) HasAdmin(ctx context.Context) (bool, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.Role == model.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

// ==================== 用户管理（管理员） ====================

// CreateUser 创建用户，密码只保存 bcrypt 哈希
func (s *UserService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserInfo, error) {
	if _, err := s.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Role:     req.Role,
		VendorID: strings.TrimSpace(req.VendorID),
		Phone:    req.Phone,
		Active:   true,
	}
	if user.Role != model.RoleVendor {
		user.VendorID = ""
	}
	if err := s.checkUser(ctx, user); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hashedPassword)

	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.toUserInfo(user), nil
}

// UpdateUser 更新用户
func (s *UserService) UpdateUser(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UserInfo, error) {
	user, err := s.users.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	before := *user

	if req.Email != nil && !strings.EqualFold(*req.Email, user.Email) {
		existing, err := s.FindByEmail(ctx, *req.Email)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, ErrEmailExists
		}
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.VendorID != nil {
		user.VendorID = strings.TrimSpace(*req.VendorID)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if user.Role != model.RoleVendor {
		user.VendorID = ""
	}
	if err := s.checkUser(ctx, user); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"name":   user.Name,
		"email":  user.Email,
		"role":   user.Role,
		"phone":  user.Phone,
		"active": user.Active,
	}
	if user.VendorID != "" {
		fields["vendorId"] = user.VendorID
	} else {
		fields["vendorId"] = nil
	}
	if user.Phone == "" {
		fields["phone"] = nil
	}
	if err := s.users.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	if user.Role != before.Role || user.VendorID != before.VendorID || (before.Active && !user.Active) {
		s.revokeSessions(id)
	}
	return s.toUserInfo(user), nil
}

// ResetPassword 重置密码（管理员）
func (s *UserService) ResetPassword(ctx context.Context, id, newPassword string) error {
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return err
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, id, map[string]any{"passwordHash": string(hashedPassword)}); err != nil {
		return err
	}
	s.revokeSessions(id)
	return nil
}

// DeleteUser 删除用户，最后一个管理员不能删除
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.users.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if user.Role == model.RoleAdmin {
		users, err := s.users.List(ctx)
		if err != nil {
			return err
		}
		admins := 0
		for _, u := range users {
			if u.Role == model.RoleAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return ErrCannotDeleteAdmin
		}
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.revokeSessions(id)
	return nil
}

// ==================== 辅助方法 ====================

// checkUser 结构校验，商家账号需要关联已存在的商家
func (s *UserService) checkUser(ctx context.Context, user *model.User) error {
	if err := s.validator.Validate(user); err != nil {
		return err
	}
	if user.Role == model.RoleVendor {
		ok, err := s.vendors.Exists(ctx, user.VendorID)
		if err != nil {
			return err
		}
		if !ok {
			return model.NewValidationError([]string{"关联的商家不存在"})
		}
	}
	return nil
}

// toUserInfo 转换为 DTO
func (s *UserService) toUserInfo(user *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		VendorID:  user.VendorID,
		Phone:     user.Phone,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ==================== 错误定义 ====================

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserDisabled       = errors.New("用户已禁用")
	ErrInvalidToken       = errors.New("Token 无效")
	ErrSessionExpired     = errors.New("登录已过期，请重新登录")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailExists        = errors.New("邮箱已存在")
	ErrCannotDeleteAdmin  = errors.New("不能删除最后一个管理员")
)
