package controller

import (
	"shop_admin_v1_202610/internal/repository"
	"shop_admin_v1_202610/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogController 基础资料集合的通用增删改查
// 品牌、标签、属性、FAQ、评价、优惠券、税率、角色、商家共用
type CatalogController[T any, P repository.RecordPtr[T]] struct {
	svc *service.CatalogService[T, P]
}

func NewCatalogController[T any, P repository.RecordPtr[T]](svc *service.CatalogService[T, P]) *CatalogController[T, P] {
	return &CatalogController[T, P]{svc: svc}
}

// Register 挂载 GET/POST /  GET/PATCH/DELETE /:id
func (ctl *CatalogController[T, P]) Register(group *gin.RouterGroup) {
	group.GET("", ctl.List)
	group.POST("", ctl.Create)
	group.GET("/:id", ctl.Get)
	group.PATCH("/:id", ctl.Update)
	group.DELETE("/:id", ctl.Delete)
}

// List 列表
// @Summary 基础资料列表（最新的在前）
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param collection path string true "brands|tags|attributes|faqs|testimonials|coupons|taxes|roles|vendors"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/{collection} [get]
func (ctl *CatalogController[T, P]) List(c *gin.Context) {
	list, err := ctl.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, gin.H{"list": list, "total": len(list)})
}

// Get 详情
// @Summary 基础资料详情
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param collection path string true "集合名"
// @Param id path string true "记录ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/{collection}/{id} [get]
func (ctl *CatalogController[T, P]) Get(c *gin.Context) {
	rec, err := ctl.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, rec)
}

// Create 新增
// @Summary 新增基础资料
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param collection path string true "集合名"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/{collection} [post]
func (ctl *CatalogController[T, P]) Create(c *gin.Context) {
	var rec P = new(T)
	if err := c.ShouldBindJSON(rec); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := ctl.svc.Create(c.Request.Context(), rec)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, rec)
}

// Update 合并更新，只修改请求体中出现的字段
// @Summary 更新基础资料
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param collection path string true "集合名"
// @Param id path string true "记录ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/{collection}/{id} [patch]
func (ctl *CatalogController[T, P]) Update(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := ctl.svc.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, rec)
}

// Delete 删除
// @Summary 删除基础资料
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param collection path string true "集合名"
// @Param id path string true "记录ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/{collection}/{id} [delete]
func (ctl *CatalogController[T, P]) Delete(c *gin.Context) {
	if err := ctl.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c, nil)
}
