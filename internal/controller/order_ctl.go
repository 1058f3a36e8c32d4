package controller

import (
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderController 订单控制器
type OrderController struct {
	svc *service.OrderService
}

// NewOrderController 创建订单控制器
func NewOrderController(svc *service.OrderService) *OrderController {
	return &OrderController{svc: svc}
}

// ==================== 订单列表与详情 ====================

// List 订单列表
// @Summary 订单列表
// @Description 最新的在前
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param status query string false "订单状态"
// @Param vendorId query string false "商家ID"
// @Param keyword query string false "订单号/客户名/邮箱"
// @Success 200 {object} dto.ListOrdersResp
// @Router /api/v1/orders [get]
func (c *OrderController) List(ctx *gin.Context) {
	var req dto.ListOrdersReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	resp, err := c.svc.ListOrders(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	success(ctx, resp)
}

// GetByID 获取订单详情
// @Summary 订单详情
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param id path string true "订单ID"
// @Success 200 {object} model.Order
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/orders/{id} [get]
func (c *OrderController) GetByID(ctx *gin.Context) {
	order, err := c.svc.GetOrder(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	success(ctx, order)
}

// ==================== 状态变更 ====================

// UpdateStatus 修改订单状态
// @Summary 修改订单状态
// @Description 改为取消或退款时给客户发邮件；邮件失败不回滚状态
// @Tags Order
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "订单ID"
// @Param request body dto.UpdateOrderStatusReq true "新状态"
// @Success 200 {object} dto.UpdateOrderStatusResp
// @Router /api/v1/orders/{id}/status [patch]
func (c *OrderController) UpdateStatus(ctx *gin.Context) {
	var req dto.UpdateOrderStatusReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	resp, err := c.svc.UpdateStatus(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	success(ctx, resp)
}
