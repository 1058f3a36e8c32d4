package controller

import (
	"net/http"
	"shop_admin_v1_202610/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

// OperationController 写操作状态查询
type OperationController struct {
	ops *service.OperationService
}

func NewOperationController(ops *service.OperationService) *OperationController {
	return &OperationController{ops: ops}
}

// Get 单个写操作
// @Summary 查询写操作状态
// @Tags Operation
// @Produce json
// @Security BearerAuth
// @Param id path string true "操作ID"
// @Success 200 {object} model.Operation
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/operations/{id} [get]
func (ctl *OperationController) Get(c *gin.Context) {
	op, ok := ctl.ops.Get(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "操作不存在或已过期", nil)
		return
	}
	success(c, op)
}

// InFlight 进行中的写操作
// @Summary 进行中的写操作
// @Tags Operation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/operations/in-flight [get]
func (ctl *OperationController) InFlight(c *gin.Context) {
	list := ctl.ops.InFlight()
	success(c, gin.H{"list": list, "total": len(list)})
}

// Recent 最近的写操作
// @Summary 最近的写操作
// @Tags Operation
// @Produce json
// @Security BearerAuth
// @Param limit query int false "条数，默认 50"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/operations [get]
func (ctl *OperationController) Recent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		fail(c, http.StatusBadRequest, "limit 必须是正整数", nil)
		return
	}
	list := ctl.ops.Recent(limit)
	success(c, gin.H{"list": list, "total": len(list)})
}
