package controller

import (
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/service"

	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	categorySvc *service.CategoryService
}

func NewCategoryController(categorySvc *service.CategoryService) *CategoryController {
	return &CategoryController{categorySvc: categorySvc}
}

// List 分类列表
// @Summary 分类列表（按名称排序）
// @Tags Category
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/categories [get]
func (ctl *CategoryController) List(c *gin.Context) {
	list, err := ctl.categorySvc.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, gin.H{"list": list, "total": len(list)})
}

// Get 分类详情
// @Summary 分类详情
// @Tags Category
// @Produce json
// @Security BearerAuth
// @Param id path string true "分类ID"
// @Success 200 {object} model.Category
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/categories/{id} [get]
func (ctl *CategoryController) Get(c *gin.Context) {
	cat, err := ctl.categorySvc.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, cat)
}

// GetBySlug 按 slug 查找分类或子分类
// @Summary 按 slug 查找分类
// @Description subCategory 不为空表示命中的是子分类
// @Tags Category
// @Produce json
// @Security BearerAuth
// @Param slug path string true "slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/categories/slug/{slug} [get]
func (ctl *CategoryController) GetBySlug(c *gin.Context) {
	cat, sub, err := ctl.categorySvc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, gin.H{"category": cat, "subCategory": sub})
}

// Create 创建分类
// @Summary 创建分类
// @Description slug 为空时由名称生成
// @Tags Category
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CategoryReq true "分类信息"
// @Success 201 {object} model.Category
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/categories [post]
func (ctl *CategoryController) Create(c *gin.Context) {
	var req dto.CategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := ctl.categorySvc.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, cat)
}

// Update 更新分类
// @Summary 更新分类
// @Tags Category
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "分类ID"
// @Param request body dto.CategoryReq true "分类信息"
// @Success 200 {object} model.Category
// @Router /api/v1/categories/{id} [put]
func (ctl *CategoryController) Update(c *gin.Context) {
	var req dto.CategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := ctl.categorySvc.UpdateCategory(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, cat)
}

// Delete 删除分类
// @Summary 删除分类
// @Description 同时释放 slug 并从商品中移除该分类
// @Tags Category
// @Produce json
// @Security BearerAuth
// @Param id path string true "分类ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/categories/{id} [delete]
func (ctl *CategoryController) Delete(c *gin.Context) {
	if err := ctl.categorySvc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c, nil)
}

// AddSubCategory 新增子分类
// @Summary 新增子分类
// @Tags Category
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "分类ID"
// @Param request body dto.SubCategoryReq true "子分类"
// @Success 200 {object} model.Category
// @Router /api/v1/categories/{id}/subcategories [post]
func (ctl *CategoryController) AddSubCategory(c *gin.Context) {
	var req dto.SubCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := ctl.categorySvc.AddSubCategory(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, cat)
}

// RemoveSubCategory 删除子分类
// @Summary 删除子分类
// @Tags Category
// @Produce json
// @Security BearerAuth
// @Param id path string true "分类ID"
// @Param slug path string true "子分类 slug"
// @Success 200 {object} model.Category
// @Router /api/v1/categories/{id}/subcategories/{slug} [delete]
func (ctl *CategoryController) RemoveSubCategory(c *gin.Context) {
	cat, err := ctl.categorySvc.RemoveSubCategory(c.Request.Context(), c.Param("id"), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, cat)
}

// RebuildSlugIndex 重建 slug 索引
// @Summary 重建分类 slug 索引
// @Description 冲突的 slug 以先创建的分类为准，其余列在 conflicts 中
// @Tags Category
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/categories/slug-index/rebuild [post]
func (ctl *CategoryController) RebuildSlugIndex(c *gin.Context) {
	n, conflicts, err := ctl.categorySvc.RebuildSlugIndex(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, gin.H{"indexed": n, "conflicts": conflicts})
}
