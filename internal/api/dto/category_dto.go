package dto

// CategoryReq 创建/更新分类，slug 为空时由名称生成
type CategoryReq struct {
	Name        string `json:"name" binding:"required,max=100"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// SubCategoryReq 添加子分类
type SubCategoryReq struct {
	Name string `json:"name" binding:"required,max=100"`
	Slug string `json:"slug"`
}
