package controller

import (
	"io"
	"net/http"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/service"

	"github.com/gin-gonic/gin"
)

// 上传读取上限，超出部分交给存储服务判定为过大
const maxUploadBytes = 10<<20 + 1

type ProductController struct {
	productSvc *service.ProductService
}

func NewProductController(productSvc *service.ProductService) *ProductController {
	return &ProductController{productSvc: productSvc}
}

// ==================== 查询 ====================

// GetProducts 商品列表
// @Summary 商品列表
// @Description 最新的在前，可按商家、分类、状态、关键字筛选
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Param vendorId query string false "商家ID"
// @Param categoryId query string false "分类ID"
// @Param status query string false "draft|published|archived"
// @Param keyword query string false "名称或SKU"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/products [get]
func (ctl *ProductController) GetProducts(c *gin.Context) {
	var req dto.ProductListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	list, err := ctl.productSvc.ListProducts(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, gin.H{"list": list, "total": len(list)})
}

// GetProduct 商品详情
// @Summary 商品详情
// @Description 分类、品牌、标签 id 已解析为名称
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Success 200 {object} dto.ProductDetailResp
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id} [get]
func (ctl *ProductController) GetProduct(c *gin.Context) {
	resp, err := ctl.productSvc.ProductDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, resp)
}

// ==================== 写入 ====================

// CreateProduct 创建商品
// @Summary 创建商品
// @Tags Product
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ProductReq true "商品信息"
// @Success 201 {object} model.Product
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/products [post]
func (ctl *ProductController) CreateProduct(c *gin.Context) {
	var req dto.ProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := ctl.productSvc.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, p)
}

// UpdateProduct 更新商品
// @Summary 更新商品
// @Tags Product
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Param request body dto.UpdateProductReq true "要修改的字段"
// @Success 200 {object} model.Product
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id} [patch]
func (ctl *ProductController) UpdateProduct(c *gin.Context) {
	var req dto.UpdateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := ctl.productSvc.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, p)
}

// DeleteProduct 删除商品
// @Summary 删除商品
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id} [delete]
func (ctl *ProductController) DeleteProduct(c *gin.Context) {
	if err := ctl.productSvc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c, nil)
}

// ==================== 图片 ====================

// UploadImage 上传商品图片
// @Summary 上传商品图片
// @Tags Product
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Param file formData file true "图片文件"
// @Success 200 {object} model.Product
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/products/{id}/images [post]
func (ctl *ProductController) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "请选择要上传的图片", nil)
		return
	}
	f, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := ctl.productSvc.AddImage(c.Request.Context(), c.Param("id"), data, file.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, p)
}

// ImportImageURL 从外部链接导入图片
// @Summary 从链接导入商品图片
// @Tags Product
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Param request body dto.ProductImageURLReq true "图片链接"
// @Success 200 {object} model.Product
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/products/{id}/images/url [post]
func (ctl *ProductController) ImportImageURL(c *gin.Context) {
	var req dto.ProductImageURLReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := ctl.productSvc.AddImageFromURL(c.Request.Context(), c.Param("id"), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, p)
}

// DeleteImage 删除商品图片
// @Summary 删除商品图片
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Param url query string true "图片URL"
// @Success 200 {object} model.Product
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id}/images [delete]
func (ctl *ProductController) DeleteImage(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		fail(c, http.StatusBadRequest, "缺少图片 url", nil)
		return
	}
	p, err := ctl.productSvc.RemoveImage(c.Request.Context(), c.Param("id"), url)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, p)
}
