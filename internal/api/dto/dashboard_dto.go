package dto

import "shop_admin_v1_202610/internal/model"

// LowStockItem 低库存商品
type LowStockItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	SKU   string `json:"sku"`
	Stock int    `json:"stock"`
}

// RevenueSummary 营收汇总
// Growth 在上月为 0 时固定为 0，并不代表真实的零增长，前端应结合 LastMonth 判断
type RevenueSummary struct {
	Total     float64 `json:"total"`
	ThisMonth float64 `json:"thisMonth"`
	LastMonth float64 `json:"lastMonth"`
	Growth    float64 `json:"growth"`
}

// OrderSummary 订单数汇总
type OrderSummary struct {
	Total     int            `json:"total"`
	ThisMonth int            `json:"thisMonth"`
	LastMonth int            `json:"lastMonth"`
	Growth    float64        `json:"growth"`
	ByStatus  map[string]int `json:"byStatus"`
}

// DashboardStatsResp 管理员看板
type DashboardStatsResp struct {
	Revenue        RevenueSummary `json:"revenue"`
	Orders         OrderSummary   `json:"orders"`
	TotalProducts  int            `json:"totalProducts"`
	TotalCustomers int            `json:"totalCustomers"`
	TotalVendors   int            `json:"totalVendors"`
	LowStock       []LowStockItem `json:"lowStock"`
	RecentOrders   []*model.Order `json:"recentOrders"`
}

// VendorStatsResp 商家看板，只统计属于该商家的订单行
type VendorStatsResp struct {
	VendorID       string         `json:"vendorId"`
	Revenue        RevenueSummary `json:"revenue"`
	Orders         OrderSummary   `json:"orders"`
	TotalProducts  int            `json:"totalProducts"`
	TotalCustomers int            `json:"totalCustomers"`
	LowStock       []LowStockItem `json:"lowStock"`
	RecentOrders   []*model.Order `json:"recentOrders"`
}
