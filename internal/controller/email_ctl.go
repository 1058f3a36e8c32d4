package controller

import (
	"net/http"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/service"

	"github.com/gin-gonic/gin"
)

type EmailController struct {
	emailSvc *service.EmailService
}

func NewEmailController(emailSvc *service.EmailService) *EmailController {
	return &EmailController{emailSvc: emailSvc}
}

// Send 发送订单邮件
// @Summary 发送订单相关邮件
// @Description kind: order-confirmation | order-cancellation | vendor-notification | refund；失败时返回排查建议
// @Tags Email
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "邮件类型"
// @Param request body dto.EmailReq true "收件人与订单快照"
// @Success 200 {object} dto.EmailResp
// @Failure 429 {object} map[string]interface{} "限流中"
// @Failure 500 {object} dto.EmailResp
// @Router /api/v1/emails/{kind} [post]
func (ctl *EmailController) Send(c *gin.Context) {
	kind := c.Param("kind")
	if !service.IsEmailKind(kind) {
		middleware.ResetCooldown(c)
		fail(c, http.StatusNotFound, "不支持的邮件类型: "+kind, nil)
		return
	}

	var req dto.EmailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.ResetCooldown(c)
		badRequest(c, err)
		return
	}

	resp := ctl.emailSvc.Send(c.Request.Context(), service.EmailKind(kind), &req)
	if !resp.Success {
		// 发送失败不占用冷却
		middleware.ResetCooldown(c)
		fail(c, http.StatusInternalServerError, resp.Error, resp)
		return
	}
	success(c, resp)
}
