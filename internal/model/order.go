package model

// 订单状态
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// Order 订单 orders/{id}
// 由外部结账流程创建；Items 与 Address 是下单时的快照，商品或商家后续修改不影响历史订单
type Order struct {
	Meta

	OrderNumber   string      `json:"orderNumber,omitempty"`
	CustomerID    string      `json:"customerId,omitempty"`
	CustomerName  string      `json:"customerName" validate:"required"`
	CustomerEmail string      `json:"customerEmail" validate:"required,email"`
	Vendor        string      `json:"vendor,omitempty"`
	Items         []OrderItem `json:"items" validate:"required,min=1,dive"`
	Address       Address     `json:"address"`
	Subtotal      float64     `json:"subtotal,omitempty" validate:"gte=0"`
	Shipping      float64     `json:"shipping,omitempty" validate:"gte=0"`
	Total         float64     `json:"total" validate:"gte=0"`
	Status        string      `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled refunded"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	Note          string      `json:"note,omitempty"`
}

// OrderItem 订单行
type OrderItem struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Price     float64 `json:"price" validate:"gte=0"`
	Quantity  int     `json:"quantity" validate:"min=1"`
	Vendor    string  `json:"vendor,omitempty"`
	Image     string  `json:"image,omitempty"`
}

// Address 收货地址
type Address struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Line1   string `json:"line1,omitempty"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	Zip     string `json:"zip,omitempty"`
}

// IsClosed 已取消或已退款的订单不计入营收
func (o *Order) IsClosed() bool {
	return o.Status == OrderStatusCancelled || o.Status == OrderStatusRefunded
}
