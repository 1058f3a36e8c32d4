package model

// 以下为后台的基础资料集合，结构都比较简单

// Brand 品牌 brands/{id}
type Brand struct {
	Meta
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug,omitempty" validate:"omitempty,slug"`
	Logo        string `json:"logo,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// Tag 标签 tags/{id}
type Tag struct {
	Meta
	Name string `json:"name" validate:"required,max=50"`
	Slug string `json:"slug,omitempty" validate:"omitempty,slug"`
}

// Attribute 商品属性 attributes/{id}，如颜色、尺码
type Attribute struct {
	Meta
	Name   string   `json:"name" validate:"required,max=50"`
	Values []string `json:"values" validate:"required,min=1,dive,required"`
}

// FAQ 常见问题 faqs/{id}
type FAQ struct {
	Meta
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Sort     int    `json:"sort,omitempty" validate:"gte=0"`
}

// Testimonial 用户评价 testimonials/{id}
type Testimonial struct {
	Meta
	Name    string `json:"name" validate:"required"`
	Content string `json:"content" validate:"required"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Avatar  string `json:"avatar,omitempty"`
	Title   string `json:"title,omitempty"`
}

// 优惠券类型
const (
	CouponPercentage = "percentage"
	CouponFixed      = "fixed"
)

// Coupon 优惠券 coupons/{id}
type Coupon struct {
	Meta
	Code      string  `json:"code" validate:"required,alphanum,max=32"`
	Type      string  `json:"type" validate:"required,oneof=percentage fixed"`
	Value     float64 `json:"value" validate:"gt=0"`
	MinOrder  float64 `json:"minOrder,omitempty" validate:"gte=0"`
	ExpiresAt int64   `json:"expiresAt,omitempty" validate:"gte=0"`
	Active    bool    `json:"active"`
}

// Tax 税率 taxes/{id}
type Tax struct {
	Meta
	Name    string  `json:"name" validate:"required"`
	Rate    float64 `json:"rate" validate:"gte=0,lte=100"`
	Country string  `json:"country,omitempty"`
}

// Role 后台角色 roles/{id}
type Role struct {
	Meta
	Name        string   `json:"name" validate:"required"`
	Permissions []string `json:"permissions,omitempty" validate:"dive,required"`
}

// Vendor 商家 vendors/{id}
type Vendor struct {
	Meta
	Name           string  `json:"name" validate:"required"`
	StoreName      string  `json:"storeName,omitempty"`
	Email          string  `json:"email" validate:"required,email"`
	Phone          string  `json:"phone,omitempty"`
	CommissionRate float64 `json:"commissionRate,omitempty" validate:"gte=0,lte=100"`
	Status         string  `json:"status,omitempty" validate:"omitempty,oneof=pending active suspended"`
}
