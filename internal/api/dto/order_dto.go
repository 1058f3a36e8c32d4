package dto

import "shop_admin_v1_202610/internal/model"

// ==================== 订单列表查询 ====================

// ListOrdersReq 订单列表筛选
type ListOrdersReq struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending processing shipped delivered cancelled refunded"`
	VendorID string `form:"vendorId"`
	Keyword  string `form:"keyword"` // 订单号、客户名、客户邮箱
}

// ListOrdersResp 订单列表
type ListOrdersResp struct {
	Total int            `json:"total"`
	List  []*model.Order `json:"list"`
}

// ==================== 状态变更 ====================

// UpdateOrderStatusReq 修改订单状态；Reason 会写进取消/退款邮件
type UpdateOrderStatusReq struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled refunded"`
	Reason string `json:"reason"`
}

// UpdateOrderStatusResp 状态已保存；邮件发送失败不影响状态变更，只在 EmailError 中说明
type UpdateOrderStatusResp struct {
	Order      *model.Order `json:"order"`
	EmailSent  bool         `json:"emailSent"`
	EmailError string       `json:"emailError,omitempty"`
}
