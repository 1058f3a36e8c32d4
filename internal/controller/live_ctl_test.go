package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readSnapshot 读取下一个 snapshot 事件的数据
func readSnapshot(t *testing.T, scanner *bufio.Scanner) map[string]any {
	t.Helper()
	inSnapshot := false
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "event:snapshot":
			inSnapshot = true
		case inSnapshot && strings.HasPrefix(line, "data:"):
			var payload map[string]any
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &payload))
			return payload
		}
	}
	t.Fatalf("SSE 连接提前结束: %v", scanner.Err())
	return nil
}

func TestLiveController_StreamsSnapshots(t *testing.T) {
	env := newCtlEnv(t)
	env.router.GET("/api/v1/live/*path", NewLiveController(env.db).Stream)
	env.seed(t, "orders/o1", map[string]any{"status": "pending"})

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/live/orders", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	scanner := bufio.NewScanner(resp.Body)
	first := readSnapshot(t, scanner)
	assert.Equal(t, "orders", first["path"])
	assert.Contains(t, first["value"], "o1")

	require.NoError(t, env.db.Set(env.ctx, "orders/o2", map[string]any{"status": "shipped"}))
	second := readSnapshot(t, scanner)
	value := second["value"].(map[string]any)
	assert.Contains(t, value, "o1")
	assert.Contains(t, value, "o2", "推送的是完整子树")

	// 客户端断开后取消订阅
	cancel()
	assert.Eventually(t, func() bool { return env.db.SubscriptionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestLiveController_RejectsPaths(t *testing.T) {
	env := newCtlEnv(t)
	env.router.GET("/api/v1/live/*path", NewLiveController(env.db).Stream)

	w, _ := env.do(t, http.MethodGet, "/api/v1/live/users", nil)
	assertStatus(t, http.StatusForbidden, w)

	w, _ = env.do(t, http.MethodGet, "/api/v1/live/orders/a.b", nil)
	assertStatus(t, http.StatusBadRequest, w)

	assert.Equal(t, 0, env.db.SubscriptionCount())
}
