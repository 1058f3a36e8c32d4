package dto

// ==================== 请求 DTO ====================

// CountryReq 新增/修改国家
type CountryReq struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// StateReq 新增/修改州/省
type StateReq struct {
	Name      string `json:"name"`
	CountryID string `json:"countryId"`
}

// CityReq 新增/修改城市，countryId 由所属州推导，不需要传
type CityReq struct {
	Name         string  `json:"name"`
	StateID      string  `json:"stateId"`
	DefaultPrice float64 `json:"defaultPrice"`
}

// ShippingQuoteReq 按名称查询运费
type ShippingQuoteReq struct {
	Country string `form:"country" json:"country" binding:"required"`
	State   string `form:"state" json:"state" binding:"required"`
	City    string `form:"city" json:"city" binding:"required"`
}

// ==================== 响应 DTO ====================

// ShippingQuoteResp 运费查询结果
type ShippingQuoteResp struct {
	Found bool    `json:"found"`
	Price float64 `json:"price"`
}

// LegacyImportResp 旧版运费数据导入结果
type LegacyImportResp struct {
	CountriesCreated int `json:"countriesCreated"`
	StatesCreated    int `json:"statesCreated"`
	CitiesCreated    int `json:"citiesCreated"`
	CitiesUpdated    int `json:"citiesUpdated"`
	Skipped          int `json:"skipped"`
}
