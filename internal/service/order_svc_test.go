package service

import (
	"context"
	"errors"
	"shop_admin_v1_202610/internal/api/dto"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/repository"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	calls []string
	err   error
}

func (f *fakeNotifier) NotifyOrderStatus(_ context.Context, order *model.Order, status, reason string) error {
	f.calls = append(f.calls, order.ID+":"+status+":"+reason)
	return f.err
}

func seedOrders(t *testing.T, env *testEnv) {
	t.Helper()
	order := func(number, vendor, itemVendor, status string, created int64) map[string]any {
		return map[string]any{
			"orderNumber": number, "customerName": "Ann", "customerEmail": "ann@example.com",
			"vendor": vendor, "status": status, "total": 30, "createdAt": created,
			"items": []any{map[string]any{"productId": "p1", "name": "Shirt", "price": 30, "quantity": 1, "vendor": itemVendor}},
		}
	}
	env.seed(t, "orders/o1", order("1001", "v1", "", model.OrderStatusPending, 100))
	env.seed(t, "orders/o2", order("1002", "", "v2", model.OrderStatusShipped, 300))
	env.seed(t, "orders/o3", order("1003", "v1", "v2", model.OrderStatusPending, 200))
}

func TestOrderService_ListOrders(t *testing.T) {
	env := newTestEnv(t)
	seedOrders(t, env)
	svc := NewOrderService(env.db, env.ops, nil, nil)

	all, err := svc.ListOrders(env.ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 3, all.Total)
	assert.Equal(t, []string{"o2", "o3", "o1"}, []string{all.List[0].ID, all.List[1].ID, all.List[2].ID})

	pending, err := svc.ListOrders(env.ctx, &dto.ListOrdersReq{Status: model.OrderStatusPending})
	require.NoError(t, err)
	assert.Equal(t, 2, pending.Total)

	v2, err := svc.ListOrders(env.ctx, &dto.ListOrdersReq{VendorID: "v2"})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Total, "订单行属于该商家也算")

	kw, err := svc.ListOrders(env.ctx, &dto.ListOrdersReq{Keyword: "1003"})
	require.NoError(t, err)
	require.Equal(t, 1, kw.Total)
	assert.Equal(t, "o3", kw.List[0].ID)
}

func TestOrderService_UpdateStatusNotifies(t *testing.T) {
	env := newTestEnv(t)
	seedOrders(t, env)
	notifier := &fakeNotifier{}
	svc := NewOrderService(env.db, env.ops, notifier, nil)

	resp, err := svc.UpdateStatus(env.ctx, "o1", &dto.UpdateOrderStatusReq{Status: model.OrderStatusProcessing})
	require.NoError(t, err)
	assert.False(t, resp.EmailSent)
	assert.Empty(t, notifier.calls, "非取消/退款状态不通知")

	resp, err = svc.UpdateStatus(env.ctx, "o1", &dto.UpdateOrderStatusReq{Status: model.OrderStatusCancelled, Reason: "缺货"})
	require.NoError(t, err)
	assert.True(t, resp.EmailSent)
	assert.Equal(t, []string{"o1:cancelled:缺货"}, notifier.calls)
	assert.Equal(t, model.OrderStatusCancelled, env.value(t, "orders/o1/status"))

	// 状态未变化不重复通知
	_, err = svc.UpdateStatus(env.ctx, "o1", &dto.UpdateOrderStatusReq{Status: model.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Len(t, notifier.calls, 1)

	_, err = svc.UpdateStatus(env.ctx, "missing", &dto.UpdateOrderStatusReq{Status: model.OrderStatusShipped})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderService_EmailFailureKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	seedOrders(t, env)
	notifier := &fakeNotifier{err: errors.New("dial tcp: connection refused")}
	svc := NewOrderService(env.db, env.ops, notifier, nil)

	resp, err := svc.UpdateStatus(env.ctx, "o2", &dto.UpdateOrderStatusReq{Status: model.OrderStatusRefunded})
	require.NoError(t, err)
	assert.False(t, resp.EmailSent)
	assert.Contains(t, resp.EmailError, "connection refused")
	assert.Equal(t, model.OrderStatusRefunded, env.value(t, "orders/o2/status"))
}

func TestOrderService_UpdateStatusWithEmailService(t *testing.T) {
	env := newTestEnv(t)
	seedOrders(t, env)
	sender := &fakeSender{}
	emails := NewEmailService(SMTPSettings{FromEmail: "shop@example.com"}, sender, nil)
	svc := NewOrderService(env.db, env.ops, emails, nil)

	resp, err := svc.UpdateStatus(env.ctx, "o3", &dto.UpdateOrderStatusReq{Status: model.OrderStatusRefunded})
	require.NoError(t, err)
	assert.True(t, resp.EmailSent)
	require.Len(t, sender.sent, 1)
}
