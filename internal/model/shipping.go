package model

// 运费地理层级：三个平铺集合，通过 id 互相引用
// countries/{id}  states/{id}  cities/{id}

// Country 国家
type Country struct {
	Meta
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code,omitempty" validate:"omitempty,max=3"`
}

// State 州/省，CountryID 必须指向已存在的国家
type State struct {
	Meta
	Name      string `json:"name" validate:"required,max=100"`
	CountryID string `json:"countryId" validate:"required"`
}

// City 城市
// CountryID 是冗余字段，必须与 StateID 所属州的 CountryID 一致，写入时由服务端推导
type City struct {
	Meta
	Name         string  `json:"name" validate:"required,max=100"`
	StateID      string  `json:"stateId" validate:"required"`
	CountryID    string  `json:"countryId" validate:"required"`
	DefaultPrice float64 `json:"defaultPrice" validate:"gte=0"`
}

// LegacyShippingRule 旧版 shipping/{country} 中的一条规则，国家/州/城市都是名称字符串
type LegacyShippingRule struct {
	Country string  `json:"country"`
	State   string  `json:"state"`
	City    string  `json:"city"`
	Price   float64 `json:"price"`
}

// LegacyShippingTree 旧版按名称嵌套的结构 country -> state -> city -> price
type LegacyShippingTree map[string]map[string]map[string]float64
