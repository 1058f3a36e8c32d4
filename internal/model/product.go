package model

// 库存类型
const (
	InventorySimple   = "simple"
	InventoryVariable = "variable"
)

// Product 商品 products/{id}
type Product struct {
	Meta

	VendorID         string `json:"vendorId" validate:"required"`
	Name             string `json:"name" validate:"required,max=200"`
	Slug             string `json:"slug" validate:"required,slug"`
	ShortDescription string `json:"shortDescription" validate:"required,max=500"`
	Description      string `json:"description,omitempty"`
	SKU              string `json:"sku" validate:"required,max=100"`

	// 价格与库存
	Price         float64 `json:"price" validate:"gte=0"`
	SalePrice     float64 `json:"salePrice,omitempty" validate:"gte=0"`
	StockQuantity int     `json:"stockQuantity" validate:"gte=0"`

	// 关联 id，展示时在客户端解析为名称
	Categories []string `json:"categories,omitempty" validate:"dive,required"`
	Brands     []string `json:"brands,omitempty" validate:"dive,required"`
	Tags       []string `json:"tags,omitempty" validate:"dive,required"`

	Images []string `json:"images,omitempty"`

	// simple / variable；variable 至少需要一个规格组合
	InventoryType   string           `json:"inventoryType" validate:"required,oneof=simple variable"`
	VariableOptions []VariableOption `json:"variableOptions,omitempty" validate:"dive"`

	Status string `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
}

// VariableOption 规格组合（尺码/颜色/价格/库存）
type VariableOption struct {
	Size  string  `json:"size,omitempty"`
	Color string  `json:"color,omitempty"`
	Price float64 `json:"price" validate:"gte=0"`
	Stock int     `json:"stock" validate:"gte=0"`
	SKU   string  `json:"sku,omitempty"`
}

// TotalStock 简单商品取 StockQuantity，规格商品累加各规格库存
func (p *Product) TotalStock() int {
	if p.InventoryType != InventoryVariable {
		return p.StockQuantity
	}
	total := 0
	for _, o := range p.VariableOptions {
		total += o.Stock
	}
	return total
}

// Category 分类 categories/{id}，子分类内嵌在父记录中
type Category struct {
	Meta

	Name          string        `json:"name" validate:"required,max=100"`
	Slug          string        `json:"slug" validate:"required,slug"`
	Description   string        `json:"description,omitempty"`
	Image         string        `json:"image,omitempty"`
	SubCategories []SubCategory `json:"subCategories,omitempty" validate:"dive"`
}

// SubCategory 子分类
type SubCategory struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"required,slug"`
}
