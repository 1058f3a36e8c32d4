package service

import (
	"context"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	lowStockThreshold = 5
	recentOrderLimit  = 5
)

// ==================== 聚合函数 ====================

// TotalRevenue 订单总额，已取消/已退款不计
func TotalRevenue(orders []*model.Order) float64 {
	total := 0.0
	for _, o := range orders {
		if o == nil || o.IsClosed() {
			continue
		}
		total += o.Total
	}
	return total
}

// GrowthPercentage 环比增长 (current - previous) / previous * 100
// previous 为 0 时返回 0，调用方不能把它当成真实的零增长
func GrowthPercentage(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// OrderBelongsToVendor order.vendor 或任一订单行的 vendor 等于 vendorID
func OrderBelongsToVendor(o *model.Order, vendorID string) bool {
	if o == nil || vendorID == "" {
		return false
	}
	if o.Vendor == vendorID {
		return true
	}
	for _, item := range o.Items {
		if item.Vendor == vendorID {
			return true
		}
	}
	return false
}

// FilterOrdersByVendor 保留属于该商家的订单
func FilterOrdersByVendor(orders []*model.Order, vendorID string) []*model.Order {
	out := make([]*model.Order, 0, len(orders))
	for _, o := range orders {
		if OrderBelongsToVendor(o, vendorID) {
			out = append(out, o)
		}
	}
	return out
}

// VendorRevenue 只累加该商家的订单行（单价 * 数量）
// 订单级 vendor 等于该商家但订单行未标注商家时，未标注的行也算该商家的
func VendorRevenue(orders []*model.Order, vendorID string) float64 {
	total := 0.0
	for _, o := range orders {
		if o == nil || o.IsClosed() || !OrderBelongsToVendor(o, vendorID) {
			continue
		}
		for _, item := range o.Items {
			if item.Vendor == vendorID || (item.Vendor == "" && o.Vendor == vendorID) {
				total += item.Price * float64(item.Quantity)
			}
		}
	}
	return total
}

// monthRange 返回 now 所在月和上个月的起始时间
func monthRange(now time.Time) (thisMonth, lastMonth, nextMonth time.Time) {
	thisMonth = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return thisMonth, thisMonth.AddDate(0, -1, 0), thisMonth.AddDate(0, 1, 0)
}

// OrdersBetween 创建时间在 [from, to) 内的订单
func OrdersBetween(orders []*model.Order, from, to time.Time) []*model.Order {
	lo, hi := from.UnixMilli(), to.UnixMilli()
	out := make([]*model.Order, 0)
	for _, o := range orders {
		if o != nil && o.CreatedAt >= lo && o.CreatedAt < hi {
			out = append(out, o)
		}
	}
	return out
}

// ==================== DashboardService ====================

// DashboardService 看板统计，所有计算都在已读取的全量集合上进行
type DashboardService struct {
	orders   *repository.CollectionRepository[model.Order, *model.Order]
	products *repository.CollectionRepository[model.Product, *model.Product]
	users    *repository.CollectionRepository[model.User, *model.User]
	vendors  *repository.CollectionRepository[model.Vendor, *model.Vendor]
}

func NewDashboardService(reader repository.Reader, writer repository.Mutator) *DashboardService {
	return &DashboardService{
		orders:   repository.NewCollectionRepository[model.Order, *model.Order](model.ColOrders, reader, writer),
		products: repository.NewCollectionRepository[model.Product, *model.Product](model.ColProducts, reader, writer),
		users:    repository.NewCollectionRepository[model.User, *model.User](model.ColUsers, reader, writer),
		vendors:  repository.NewCollectionRepository[model.Vendor, *model.Vendor](model.ColVendors, reader, writer),
	}
}

type dashboardData struct {
	orders   []*model.Order
	products []*model.Product
	users    []*model.User
	vendors  []*model.Vendor
}

// load 并发读取四个集合
func (s *DashboardService) load(ctx context.Context) (*dashboardData, error) {
	data := &dashboardData{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.orders, err = s.orders.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.products, err = s.products.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.users, err = s.users.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.vendors, err = s.vendors.List(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	repository.SortByCreatedDesc(data.orders)
	return data, nil
}

// Stats 管理员看板
func (s *DashboardService) Stats(ctx context.Context, now time.Time) (*dto.DashboardStatsResp, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	customers := 0
	for _, u := range data.users {
		if u.Role == model.RoleCustomer {
			customers++
		}
	}

	return &dto.DashboardStatsResp{
		Revenue:        revenueSummary(data.orders, now, TotalRevenue),
		Orders:         orderSummary(data.orders, now),
		TotalProducts:  len(data.products),
		TotalCustomers: customers,
		TotalVendors:   len(data.vendors),
		LowStock:       lowStock(data.products),
		RecentOrders:   firstN(data.orders, recentOrderLimit),
	}, nil
}

// VendorStats 商家看板
func (s *DashboardService) VendorStats(ctx context.Context, vendorID string, now time.Time) (*dto.VendorStatsResp, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	orders := FilterOrdersByVendor(data.orders, vendorID)
	products := make([]*model.Product, 0)
	for _, p := range data.products {
		if p.VendorID == vendorID {
			products = append(products, p)
		}
	}
	customers := make(map[string]bool)
	for _, o := range orders {
		key := o.CustomerID
		if key == "" {
			key = strings.ToLower(o.CustomerEmail)
		}
		if key != "" {
			customers[key] = true
		}
	}

	return &dto.VendorStatsResp{
		VendorID: vendorID,
		Revenue: revenueSummary(orders, now, func(list []*model.Order) float64 {
			return VendorRevenue(list, vendorID)
		}),
		Orders:         orderSummary(orders, now),
		TotalProducts:  len(products),
		TotalCustomers: len(customers),
		LowStock:       lowStock(products),
		RecentOrders:   firstN(orders, recentOrderLimit),
	}, nil
}

func revenueSummary(orders []*model.Order, now time.Time, sum func([]*model.Order) float64) dto.RevenueSummary {
	thisMonth, lastMonth, nextMonth := monthRange(now)
	cur := sum(OrdersBetween(orders, thisMonth, nextMonth))
	prev := sum(OrdersBetween(orders, lastMonth, thisMonth))
	return dto.RevenueSummary{
		Total:     sum(orders),
		ThisMonth: cur,
		LastMonth: prev,
		Growth:    GrowthPercentage(cur, prev),
	}
}

func orderSummary(orders []*model.Order, now time.Time) dto.OrderSummary {
	thisMonth, lastMonth, nextMonth := monthRange(now)
	cur := len(OrdersBetween(orders, thisMonth, nextMonth))
	prev := len(OrdersBetween(orders, lastMonth, thisMonth))

	byStatus := make(map[string]int)
	for _, o := range orders {
		byStatus[o.Status]++
	}
	return dto.OrderSummary{
		Total:     len(orders),
		ThisMonth: cur,
		LastMonth: prev,
		Growth:    GrowthPercentage(float64(cur), float64(prev)),
		ByStatus:  byStatus,
	}
}

func lowStock(products []*model.Product) []dto.LowStockItem {
	out := make([]dto.LowStockItem, 0)
	for _, p := range products {
		if stock := p.TotalStock(); stock <= lowStockThreshold {
			out = append(out, dto.LowStockItem{ID: p.ID, Name: p.Name, SKU: p.SKU, Stock: stock})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out
}

func firstN[T any](list []T, n int) []T {
	if len(list) > n {
		return list[:n]
	}
	return list
}
