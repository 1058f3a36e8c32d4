package controller

import (
	"net/http"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/service"
	"time"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	dashboardSvc *service.DashboardService
	now          func() time.Time
}

func NewDashboardController(dashboardSvc *service.DashboardService) *DashboardController {
	return &DashboardController{dashboardSvc: dashboardSvc, now: time.Now}
}

// Stats 管理员看板
// @Summary 管理员看板统计
// @Description 本月收入/订单与上月对比、库存不足商品、最近订单
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DashboardStatsResp
// @Router /api/v1/dashboard/stats [get]
func (ctl *DashboardController) Stats(c *gin.Context) {
	resp, err := ctl.dashboardSvc.Stats(c.Request.Context(), ctl.now())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, resp)
}

// VendorStats 商家看板
// @Summary 商家看板统计
// @Description 商家账号只能看自己的数据；管理员可用 vendorId 指定商家
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param vendorId query string false "商家ID（仅管理员）"
// @Success 200 {object} dto.VendorStatsResp
// @Router /api/v1/dashboard/vendor [get]
func (ctl *DashboardController) VendorStats(c *gin.Context) {
	vendorID := middleware.GetVendorID(c)
	if middleware.GetUserRole(c) == model.RoleAdmin {
		vendorID = c.Query("vendorId")
	}
	if vendorID == "" {
		fail(c, http.StatusBadRequest, "缺少商家ID", nil)
		return
	}

	resp, err := ctl.dashboardSvc.VendorStats(c.Request.Context(), vendorID, ctl.now())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, resp)
}
