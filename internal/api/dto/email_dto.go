package dto

import "shop_admin_v1_202610/internal/model"

// EmailReq 邮件请求，Order 为订单快照
type EmailReq struct {
	To           string       `json:"to" binding:"required,email"`
	Order        *model.Order `json:"order" binding:"required"`
	Reason       string       `json:"reason,omitempty"`
	RefundAmount float64      `json:"refundAmount,omitempty"`
	VendorName   string       `json:"vendorName,omitempty"`
}

// EmailResp 邮件发送结果
// 失败时 Troubleshooting 给出排查建议
type EmailResp struct {
	Success         bool     `json:"success"`
	Message         string   `json:"message,omitempty"`
	Error           string   `json:"error,omitempty"`
	Troubleshooting []string `json:"troubleshooting,omitempty"`
}
