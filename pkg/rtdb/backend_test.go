package rtdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 三种存储实现跑同一套用例

func newSQLiteBackend(t *testing.T) Backend {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: 每个连接都是独立的库
	sqlDB.SetMaxOpenConns(1)

	b, err := NewSQLBackend(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// fakeRTDBServer 用内存存储模拟 Realtime Database REST 接口
func fakeRTDBServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := NewMemoryBackend()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("auth") == "deny" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Permission denied"}`))
			return
		}
		path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".json")
		ctx := r.Context()

		var body any
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &body); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					_, _ = w.Write([]byte(`{"error":"Invalid data; couldn't parse JSON object"}`))
					return
				}
				if fields, ok := body.(map[string]any); ok && r.Method == http.MethodPatch {
					// PATCH 中的 null 表示删除该字段，需要保留
					for k, fv := range fields {
						fields[k] = prune(fv)
					}
				} else {
					body = prune(body)
				}
			}
		}

		var out any
		var err error
		switch r.Method {
		case http.MethodGet:
			out, err = mem.Get(ctx, path)
		case http.MethodPut:
			err = mem.Set(ctx, path, body)
			out = body
		case http.MethodPost:
			var key string
			key, err = mem.Push(ctx, path, body)
			out = map[string]any{"name": key}
		case http.MethodPatch:
			fields, _ := body.(map[string]any)
			if path == "" {
				err = mem.MultiUpdate(ctx, fields)
			} else {
				err = mem.Update(ctx, path, fields)
			}
			out = fields
		case http.MethodDelete:
			err = mem.Delete(ctx, path)
		}
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRESTBackendForTest(t *testing.T) Backend {
	t.Helper()
	srv := fakeRTDBServer(t)
	return NewRESTBackend(RESTConfig{BaseURL: srv.URL, Namespace: "demo"})
}

func backendFactories() map[string]func(t *testing.T) Backend {
	return map[string]func(t *testing.T) Backend{
		"memory": func(t *testing.T) Backend { return NewMemoryBackend() },
		"sqlite": newSQLiteBackend,
		"rest":   newRESTBackendForTest,
	}
}

func TestBackends_Contract(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			b := factory(t)
			ctx := context.Background()

			// 不存在的节点
			v, err := b.Get(ctx, "products/none")
			require.NoError(t, err)
			assert.Nil(t, v)

			// Set 覆盖
			require.NoError(t, b.Set(ctx, "products/P1", map[string]any{"name": "A", "stock": float64(1)}))
			require.NoError(t, b.Set(ctx, "products/P1", map[string]any{"name": "B"}))
			v, err = b.Get(ctx, "products/P1")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"name": "B"}, v)

			// Update 合并
			require.NoError(t, b.Update(ctx, "products/P1", map[string]any{"price": float64(5)}))
			v, err = b.Get(ctx, "products/P1")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"name": "B", "price": float64(5)}, v)

			// Push
			k1, err := b.Push(ctx, "orders", map[string]any{"total": float64(1)})
			require.NoError(t, err)
			k2, err := b.Push(ctx, "orders", map[string]any{"total": float64(1)})
			require.NoError(t, err)
			assert.NotEqual(t, k1, k2)
			v, err = b.Get(ctx, "orders")
			require.NoError(t, err)
			assert.Len(t, v, 2)

			// MultiUpdate 跨集合
			require.NoError(t, b.MultiUpdate(ctx, map[string]any{
				"categories/C1":       map[string]any{"slug": "shoes"},
				"categorySlugs/shoes": "C1",
				"products/P1/price":   nil,
			}))
			v, err = b.Get(ctx, "categorySlugs/shoes")
			require.NoError(t, err)
			assert.Equal(t, "C1", v)
			v, err = b.Get(ctx, "products/P1")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"name": "B"}, v)

			// Delete 清理空父节点
			require.NoError(t, b.Delete(ctx, "categories/C1"))
			v, err = b.Get(ctx, "categories")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestBackends_WorkBehindDatabase(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			db := New(factory(t))
			ctx := context.Background()

			rec := newRecorder()
			unsub, err := db.Subscribe("products", rec)
			require.NoError(t, err)
			defer unsub()
			assert.False(t, rec.next(t).Exists())

			require.NoError(t, db.Set(ctx, "products/P1", map[string]any{"name": "Shirt", "price": 100}))
			rec.waitFor(t, func(s Snapshot) bool { return s.Child("P1/price").Value == float64(100) })

			require.NoError(t, db.Update(ctx, "products/P1", map[string]any{"price": 500}))
			snap := rec.waitFor(t, func(s Snapshot) bool { return s.Child("P1/price").Value == float64(500) })
			assert.Equal(t, "Shirt", snap.Child("P1/name").Value)
		})
	}
}

func TestRESTBackend_ClassifiesErrors(t *testing.T) {
	srv := fakeRTDBServer(t)
	b := NewRESTBackend(RESTConfig{BaseURL: srv.URL, AuthToken: "deny"})

	_, err := b.Get(context.Background(), "users")
	require.Error(t, err)
	assert.Equal(t, CodePermissionDenied, CodeOf(err))
	assert.Contains(t, err.Error(), "Permission denied")

	// 连接失败
	down := NewRESTBackend(RESTConfig{BaseURL: "http://127.0.0.1:1"})
	_, err = down.Get(context.Background(), "users")
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
}

func TestRESTURL(t *testing.T) {
	assert.Equal(t, "/.json", restURL(""))
	assert.Equal(t, "/products/P1.json", restURL("products/P1"))
}
