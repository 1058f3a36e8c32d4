package dto

import "shop_admin_v1_202610/internal/model"

// ==================== 请求 DTO ====================

// ProductListReq 商品列表筛选
type ProductListReq struct {
	VendorID   string `form:"vendorId"`
	CategoryID string `form:"categoryId"`
	Status     string `form:"status" binding:"omitempty,oneof=draft published archived"`
	Keyword    string `form:"keyword"` // 名称或 SKU
}

// ProductReq 创建商品；slug 为空时由名称生成，inventoryType 默认 simple
type ProductReq struct {
	VendorID         string  `json:"vendorId" binding:"required"`
	Name             string  `json:"name" binding:"required,max=200"`
	Slug             string  `json:"slug"`
	ShortDescription string  `json:"shortDescription" binding:"required,max=500"`
	Description      string  `json:"description"`
	SKU              string  `json:"sku" binding:"required,max=100"`
	Price            float64 `json:"price" binding:"gte=0"`
	SalePrice        float64 `json:"salePrice" binding:"gte=0"`
	StockQuantity    int     `json:"stockQuantity" binding:"gte=0"`

	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
	Tags       []string `json:"tags"`
	Images     []string `json:"images"`

	InventoryType   string                 `json:"inventoryType"`
	VariableOptions []model.VariableOption `json:"variableOptions"`
	Status          string                 `json:"status"`
}

// UpdateProductReq 更新商品，未传的字段不修改
type UpdateProductReq struct {
	VendorID         *string  `json:"vendorId,omitempty"`
	Name             *string  `json:"name,omitempty"`
	Slug             *string  `json:"slug,omitempty"`
	ShortDescription *string  `json:"shortDescription,omitempty"`
	Description      *string  `json:"description,omitempty"`
	SKU              *string  `json:"sku,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	SalePrice        *float64 `json:"salePrice,omitempty"`
	StockQuantity    *int     `json:"stockQuantity,omitempty"`

	Categories *[]string `json:"categories,omitempty"`
	Brands     *[]string `json:"brands,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`

	InventoryType   *string                 `json:"inventoryType,omitempty"`
	VariableOptions *[]model.VariableOption `json:"variableOptions,omitempty"`
	Status          *string                 `json:"status,omitempty"`
}

// ProductImageURLReq 从外部链接导入图片
type ProductImageURLReq struct {
	URL string `json:"url" binding:"required,url"`
}

// ==================== 响应 DTO ====================

// NamedRef 关联记录的 id 和名称；记录已删除时 Name 为空
type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductDetailResp 商品详情，关联 id 已解析为名称
type ProductDetailResp struct {
	*model.Product
	VendorName     string     `json:"vendorName"`
	CategoryRefs   []NamedRef `json:"categoryRefs"`
	BrandRefs      []NamedRef `json:"brandRefs"`
	TagRefs        []NamedRef `json:"tagRefs"`
	TotalStock     int        `json:"totalStock"`
	EffectivePrice float64    `json:"effectivePrice"`
}
