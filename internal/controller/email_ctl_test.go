package controller

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/internal/service"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type stubSender struct {
	sent int
	err  error
}

func (s *stubSender) DialAndSend(m ...*gomail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent += len(m)
	return nil
}

func setupEmailRoute(env *ctlEnv, sender service.MailSender) {
	svc := service.NewEmailService(service.SMTPSettings{FromEmail: "shop@example.com"}, sender, nil)
	env.router.POST("/api/v1/emails/:kind",
		middleware.CooldownRateLimit(middleware.LimitEmail, "kind", 0),
		NewEmailController(svc).Send,
	)
}

func emailBody() map[string]any {
	return map[string]any{
		"to": "ann@example.com",
		"order": map[string]any{
			"id": "o1", "orderNumber": "1001", "customerName": "Ann",
			"customerEmail": "ann@example.com", "status": "pending", "total": 30,
		},
	}
}

func TestEmailController_SendAndCooldown(t *testing.T) {
	env := newCtlEnvAs(t, model.SessionUser{ID: "email-ok", Role: model.RoleAdmin})
	sender := &stubSender{}
	setupEmailRoute(env, sender)
	t.Cleanup(func() {
		for _, kind := range []string{"order-confirmation", "refund"} {
			middleware.GetLimiter().Reset(middleware.UserLimitKey(middleware.LimitEmail, kind, "email-ok"))
		}
	})

	w, resp := env.do(t, http.MethodPost, "/api/v1/emails/order-confirmation", emailBody())
	assertStatus(t, http.StatusOK, w)
	assert.Equal(t, true, dataOf(resp)["success"])
	assert.Equal(t, 1, sender.sent)

	// 同一类型冷却中
	w, resp = env.do(t, http.MethodPost, "/api/v1/emails/order-confirmation", emailBody())
	assertStatus(t, http.StatusTooManyRequests, w)
	assert.NotNil(t, dataOf(resp)["retry_after"])

	// 不同类型互不影响
	w, _ = env.do(t, http.MethodPost, "/api/v1/emails/refund", emailBody())
	assertStatus(t, http.StatusOK, w)
}

func TestEmailController_FailureReleasesCooldown(t *testing.T) {
	env := newCtlEnvAs(t, model.SessionUser{ID: "email-fail", Role: model.RoleAdmin})
	setupEmailRoute(env, &stubSender{err: errors.New("dial tcp: lookup smtp.example.com: no such host")})

	for i := 0; i < 2; i++ {
		w, resp := env.do(t, http.MethodPost, "/api/v1/emails/order-cancellation", emailBody())
		assertStatus(t, http.StatusInternalServerError, w)
		data := dataOf(resp)
		assert.Equal(t, false, data["success"])
		assert.NotEmpty(t, data["troubleshooting"])
	}

	w, _ := env.do(t, http.MethodPost, "/api/v1/emails/newsletter", emailBody())
	assertStatus(t, http.StatusNotFound, w)
}

// ==================== CSV 导入 ====================

func csvUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportController_ImportProducts(t *testing.T) {
	env := newCtlEnvAs(t, model.SessionUser{ID: "importer", Role: model.RoleAdmin})
	svc := service.NewImportService(env.db, env.ops, env.validator, nil)
	env.router.POST("/api/v1/import/products",
		middleware.CooldownRateLimit(middleware.LimitCSVImport, "", 0),
		NewImportController(svc).ImportProducts,
	)
	t.Cleanup(func() {
		middleware.GetLimiter().Reset(middleware.UserLimitKey(middleware.LimitCSVImport, "", "importer"))
	})

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, csvUpload(t, "products.txt", "a,b\n"))
	assertStatus(t, http.StatusBadRequest, w)

	// 表头缺列：失败后允许立即重试
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, csvUpload(t, "products.csv", "name,price\nMug,9\n"))
	assertStatus(t, http.StatusBadRequest, w)

	csv := "vendorId,name,slug,shortDescription,sku,price,stockQuantity,categoryId\n" +
		"v1,Mug,mug,Short,M1,9.99,3,c1\n" +
		"v1,Cap,cap,Short,C1,abc,1,c1\n"
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, csvUpload(t, "products.csv", csv))
	assertStatus(t, http.StatusOK, w)
	assert.Contains(t, w.Body.String(), `"created":1`)
	assert.Contains(t, w.Body.String(), `"failed":1`)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, csvUpload(t, "products.csv", csv))
	assertStatus(t, http.StatusTooManyRequests, w)
}

// ==================== 看板 ====================

func TestDashboardController_VendorScope(t *testing.T) {
	env := newCtlEnvAs(t, model.SessionUser{ID: "u-v1", Role: model.RoleVendor, VendorID: "v1"})
	ctl := NewDashboardController(service.NewDashboardService(env.db, env.ops))
	env.router.GET("/api/v1/dashboard/vendor", ctl.VendorStats)

	env.seed(t, "orders/o1", map[string]any{
		"orderNumber": "1", "vendor": "v1", "status": "delivered", "total": 40, "createdAt": model.NowMillis(),
		"items": []any{map[string]any{"productId": "p1", "price": 40, "quantity": 1, "vendor": "v1"}},
	})
	env.seed(t, "orders/o2", map[string]any{
		"orderNumber": "2", "vendor": "v2", "status": "delivered", "total": 99, "createdAt": model.NowMillis(),
		"items": []any{map[string]any{"productId": "p2", "price": 99, "quantity": 1, "vendor": "v2"}},
	})

	// 商家账号忽略 vendorId 参数，只能看自己的数据
	w, resp := env.do(t, http.MethodGet, "/api/v1/dashboard/vendor?vendorId=v2", nil)
	assertStatus(t, http.StatusOK, w)
	data := dataOf(resp)
	assert.Equal(t, "v1", data["vendorId"])
	assert.EqualValues(t, 40, data["revenue"].(map[string]any)["total"])
	assert.Len(t, data["recentOrders"], 1)
}

func TestDashboardController_AdminNeedsVendorID(t *testing.T) {
	env := newCtlEnv(t)
	ctl := NewDashboardController(service.NewDashboardService(env.db, env.ops))
	env.router.GET("/api/v1/dashboard/vendor", ctl.VendorStats)

	w, _ := env.do(t, http.MethodGet, "/api/v1/dashboard/vendor", nil)
	assertStatus(t, http.StatusBadRequest, w)
}
