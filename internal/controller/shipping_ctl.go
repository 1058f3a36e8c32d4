package controller

import (
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/service"

	"github.com/gin-gonic/gin"
)

// ShippingController 国家 / 州 / 城市 三级运费
type ShippingController struct {
	service *service.ShippingService
}

func NewShippingController(s *service.ShippingService) *ShippingController {
	return &ShippingController{service: s}
}

// ==================== 查询 ====================

// ListCountries 国家列表
// @Summary 国家列表
// @Tags Shipping
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/shipping/countries [get]
func (ctrl *ShippingController) ListCountries(c *gin.Context) {
	list, err := ctrl.service.ListCountries(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, gin.H{"list": list, "total": len(list)})
}

// ListStates 州列表
// @Summary 州/省列表
// @Tags Shipping
// @Produce json
// @Security BearerAuth
// @Param countryId query string false "只看某个国家"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/shipping/states [get]
func (ctrl *ShippingController) ListStates(c *gin.Context) {
	list, err := ctrl.service.ListStates(c.Request.Context(), c.Query("countryId"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, gin.H{"list": list, "total": len(list)})
}

// ListCities 城市列表
// @Summary 城市列表
// @Tags Shipping
// @Produce json
// @Security BearerAuth
// @Param stateId query string false "只看某个州"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/shipping/cities [get]
func (ctrl *ShippingController) ListCities(c *gin.Context) {
	list, err := ctrl.service.ListCities(c.Request.Context(), c.Query("stateId"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, gin.H{"list": list, "total": len(list)})
}

// Quote 按名称查询运费
// @Summary 查询运费
// @Description 名称不区分大小写；找不到时 found=false
// @Tags Shipping
// @Produce json
// @Security BearerAuth
// @Param country query string true "国家名"
// @Param state query string true "州名"
// @Param city query string true "城市名"
// @Success 200 {object} dto.ShippingQuoteResp
// @Router /api/v1/shipping/quote [get]
func (ctrl *ShippingController) Quote(c *gin.Context) {
	var req dto.ShippingQuoteReq
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	price, found, err := ctrl.service.QuotePrice(c.Request.Context(), req.Country, req.State, req.City)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, dto.ShippingQuoteResp{Found: found, Price: price})
}

// ==================== 国家 ====================

// CreateCountry 新增国家
// @Summary 新增国家
// @Tags Shipping
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CountryReq true "国家"
// @Success 201 {object} model.Country
// @Router /api/v1/shipping/countries [post]
func (ctrl *ShippingController) CreateCountry(c *gin.Context) {
	var req dto.CountryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	country, err := ctrl.service.CreateCountry(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, country)
}

// UpdateCountry 修改国家
// @Summary 修改国家
// @Tags Shipping
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "国家ID"
// @Param request body dto.CountryReq true "国家"
// @Success 200 {object} model.Country
// @Router /api/v1/shipping/countries/{id} [put]
func (ctrl *ShippingController) UpdateCountry(c *gin.Context) {
	var req dto.CountryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	country, err := ctrl.service.UpdateCountry(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, country)
}

// DeleteCountry 删除国家
// @Summary 删除国家（连同下属州和城市）
// @Tags Shipping
// @Produce json
// @Security BearerAuth
// @Param id path string true "国家ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/shipping/countries/{id} [delete]
func (ctrl *ShippingController) DeleteCountry(c *gin.Context) {
	if err := ctrl.service.DeleteCountry(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c, nil)
}

// ==================== 州 ====================

// CreateState 新增州
// @Summary 新增州/省
// @Tags Shipping
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StateReq true "州"
// @Success 201 {object} model.State
// @Router /api/v1/shipping/states [post]
func (ctrl *ShippingController) CreateState(c *gin.Context) {
	var req dto.StateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	state, err := ctrl.service.CreateState(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, state)
}

// UpdateState 修改州
// @Summary 修改州/省
// @Description 改到其他国家时下属城市一并迁移
// @Tags Shipping
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "州ID"
// @Param request body dto.StateReq true "州"
// @Success 200 {object} model.State
// @Router /api/v1/shipping/states/{id} [put]
func (ctrl *ShippingController) UpdateState(c *gin.Context) {
	var req dto.StateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	state, err := ctrl.service.UpdateState(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, state)
}

// DeleteState 删除州
// @Summary 删除州/省（连同下属城市）
// @Tags Shipping
// @Produce json
// @Security BearerAuth
// @Param id path string true "州ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/shipping/states/{id} [delete]
func (ctrl *ShippingController) DeleteState(c *gin.Context) {
	if err := ctrl.service.DeleteState(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c, nil)
}

// ==================== 城市 ====================

// CreateCity 新增城市
// @Summary 新增城市
// @Tags Shipping
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CityReq true "城市"
// @Success 201 {object} model.City
// @Router /api/v1/shipping/cities [post]
func (ctrl *ShippingController) CreateCity(c *gin.Context) {
	var req dto.CityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	city, err := ctrl.service.CreateCity(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, city)
}

// UpdateCity 修改城市
// @Summary 修改城市
// @Tags Shipping
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "城市ID"
// @Param request body dto.CityReq true "城市"
// @Success 200 {object} model.City
// @Router /api/v1/shipping/cities/{id} [put]
func (ctrl *ShippingController) UpdateCity(c *gin.Context) {
	var req dto.CityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	city, err := ctrl.service.UpdateCity(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, city)
}

// DeleteCity 删除城市
// @Summary 删除城市
// @Tags Shipping
// @Produce json
// @Security BearerAuth
// @Param id path string true "城市ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/shipping/cities/{id} [delete]
func (ctrl *ShippingController) DeleteCity(c *gin.Context) {
	if err := ctrl.service.DeleteCity(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c, nil)
}

// ==================== 旧数据导入 ====================

// ImportLegacy 导入旧版运费数据
// @Summary 导入旧版 shipping 数据
// @Description 一次批量写入；同名记录复用，城市运费以旧数据为准
// @Tags Shipping
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.LegacyImportResp
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/v1/shipping/import-legacy [post]
func (ctrl *ShippingController) ImportLegacy(c *gin.Context) {
	resp, err := ctrl.service.ImportLegacy(c.Request.Context())
	if err != nil {
		middleware.ResetCooldown(c)
		respondError(c, err)
		return
	}
	success(c, resp)
}
