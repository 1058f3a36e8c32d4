package controller

import (
	"net/http"
	"path/filepath"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/service"
	"strings"

	"github.com/gin-gonic/gin"
)

type ImportController struct {
	importSvc *service.ImportService
}

func NewImportController(importSvc *service.ImportService) *ImportController {
	return &ImportController{importSvc: importSvc}
}

// ImportProducts CSV 批量导入商品
// @Summary CSV 批量导入商品
// @Description 表头必须包含 name、price；每行独立导入，失败行在 errors 中说明
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV 文件"
// @Success 200 {object} dto.ImportResp
// @Failure 400 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/v1/import/products [post]
func (ctl *ImportController) ImportProducts(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		middleware.ResetCooldown(c)
		fail(c, http.StatusBadRequest, "请选择要导入的 CSV 文件", nil)
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".csv") {
		middleware.ResetCooldown(c)
		fail(c, http.StatusBadRequest, "只支持 .csv 文件", nil)
		return
	}

	f, err := file.Open()
	if err != nil {
		middleware.ResetCooldown(c)
		respondError(c, err)
		return
	}
	defer f.Close()

	resp, err := ctl.importSvc.ImportProducts(c.Request.Context(), f)
	if err != nil {
		middleware.ResetCooldown(c)
		respondError(c, err)
		return
	}
	success(c, resp)
}
