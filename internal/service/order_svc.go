package service

import (
	"context"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"strings"

	"go.uber.org/zap"
)

// OrderNotifier 订单状态变更后的通知（EmailService 实现）
type OrderNotifier interface {
	NotifyOrderStatus(ctx context.Context, order *model.Order, status, reason string) error
}

// OrderService 订单查询与状态维护，订单本身由结账流程创建
type OrderService struct {
	orders   *repository.CollectionRepository[model.Order, *model.Order]
	notifier OrderNotifier
	logger   *zap.Logger
}

func NewOrderService(reader repository.Reader, writer repository.Mutator, notifier OrderNotifier, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orders:   repository.NewCollectionRepository[model.Order, *model.Order](model.ColOrders, reader, writer),
		notifier: notifier,
		logger:   logger,
	}
}

// ListOrders 最新的在前；VendorID 按订单或订单行的商家匹配
func (s *OrderService) ListOrders(ctx context.Context, req *dto.ListOrdersReq) (*dto.ListOrdersResp, error) {
	list, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	repository.SortByCreatedDesc(list)
	if req == nil {
		req = &dto.ListOrdersReq{}
	}

	keyword := strings.ToLower(strings.TrimSpace(req.Keyword))
	out := make([]*model.Order, 0, len(list))
	for _, o := range list {
		if req.Status != "" && o.Status != req.Status {
			continue
		}
		if req.VendorID != "" && !OrderBelongsToVendor(o, req.VendorID) {
			continue
		}
		if keyword != "" && !orderMatches(o, keyword) {
			continue
		}
		out = append(out, o)
	}
	return &dto.ListOrdersResp{Total: len(out), List: out}, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return s.orders.Get(ctx, id)
}

// UpdateStatus 保存新状态后通知客户；状态未变化时不写入也不通知
func (s *OrderService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateOrderStatusReq) (*dto.UpdateOrderStatusResp, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == req.Status {
		return &dto.UpdateOrderStatusResp{Order: order}, nil
	}

	if err := s.orders.Update(ctx, id, map[string]any{"status": req.Status}); err != nil {
		return nil, err
	}
	prev := order.Status
	order.Status = req.Status
	order.UpdatedAt = model.NowMillis()
	s.logger.Info("[Order] 状态变更",
		zap.String("order_id", id),
		zap.String("from", prev),
		zap.String("to", req.Status))

	resp := &dto.UpdateOrderStatusResp{Order: order}
	if s.notifier == nil || !notifiesCustomer(req.Status) {
		return resp, nil
	}
	if err := s.notifier.NotifyOrderStatus(ctx, order, req.Status, req.Reason); err != nil {
		s.logger.Warn("[Order] 通知邮件发送失败", zap.String("order_id", id), zap.Error(err))
		resp.EmailError = err.Error()
		return resp, nil
	}
	resp.EmailSent = true
	return resp, nil
}

func notifiesCustomer(status string) bool {
	return status == model.OrderStatusCancelled || status == model.OrderStatusRefunded
}

func orderMatches(o *model.Order, keyword string) bool {
	for _, v := range []string{o.OrderNumber, o.ID, o.CustomerName, o.CustomerEmail} {
		if strings.Contains(strings.ToLower(v), keyword) {
			return true
		}
	}
	return false
}
