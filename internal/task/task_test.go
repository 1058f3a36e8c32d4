package task

import (
	"context"
	"shop_admin_v1_202610/pkg/rtdb"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	block chan struct{}
}

func (r *countingRefresher) Refresh(ctx context.Context) int {
	r.calls.Add(1)
	if r.block != nil {
		<-r.block
	}
	return 3
}

func TestRefreshTask_DeliversExternalChanges(t *testing.T) {
	backend := rtdb.NewMemoryBackend()
	db := rtdb.New(backend)
	defer db.Close()
	ctx := context.Background()

	var mu sync.Mutex
	var latest any
	unsub, err := db.Subscribe("orders", rtdb.Funcs(func(s rtdb.Snapshot) {
		mu.Lock()
		latest = s.Value
		mu.Unlock()
	}, nil))
	require.NoError(t, err)
	defer unsub()

	// 绕过 Database 直接写存储，模拟其他客户端的修改
	require.NoError(t, backend.Set(ctx, "orders/o1", map[string]any{"status": "shipped"}))

	task := NewRefreshTask(db, "*/15 * * * * *", nil)
	assert.Equal(t, 1, task.RunOnce(ctx))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		m, ok := latest.(map[string]any)
		return ok && m["o1"] != nil
	}, time.Second, 10*time.Millisecond)
}

func TestRefreshTask_SkipsOverlappingRuns(t *testing.T) {
	r := &countingRefresher{block: make(chan struct{})}
	task := NewRefreshTask(r, "*/15 * * * * *", nil)

	done := make(chan int)
	go func() { done <- task.RunOnce(context.Background()) }()
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, -1, task.RunOnce(context.Background()))
	close(r.block)
	assert.Equal(t, 3, <-done)
	assert.EqualValues(t, 1, r.calls.Load())
}

func TestRefreshTask_InvalidSpec(t *testing.T) {
	task := NewRefreshTask(&countingRefresher{}, "not a cron", nil)
	assert.Error(t, task.Start())
}

func TestTaskManager(t *testing.T) {
	tm := NewTaskManager(&TaskManagerDeps{}, nil)
	assert.False(t, tm.Status()["refresh"], "没有存储时不创建任务")
	require.NoError(t, tm.Start())
	tm.Stop()

	r := &countingRefresher{}
	tm = NewTaskManager(&TaskManagerDeps{Store: r}, &TaskManagerConfig{RefreshEnabled: true, RefreshSpec: "* * * * * *"})
	assert.True(t, tm.Status()["refresh"])
	require.NoError(t, tm.Start())
	assert.Eventually(t, func() bool { return r.calls.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
	tm.Stop()
}
