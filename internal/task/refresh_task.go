package task

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher 重新拉取订阅路径的存储
type Refresher interface {
	Refresh(ctx context.Context) int
}

// RefreshTask 定时把远程存储上的外部变更推给订阅者
type RefreshTask struct {
	db      Refresher
	spec    string
	timeout time.Duration
	logger  *zap.Logger
	cron    *cron.Cron

	// 上一轮没跑完时跳过本轮
	running sync.Mutex
}

func NewRefreshTask(db Refresher, spec string, logger *zap.Logger) *RefreshTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshTask{
		db:      db,
		spec:    spec,
		timeout: 30 * time.Second,
		logger:  logger,
		cron:    cron.New(cron.WithSeconds()),
	}
}

// Start 注册并启动定时任务
func (t *RefreshTask) Start() error {
	if _, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		t.RunOnce(ctx)
	}); err != nil {
		return err
	}
	t.cron.Start()
	t.logger.Info("[Task] 远程变更拉取任务已启动", zap.String("spec", t.spec))
	return nil
}

// Stop 停止调度并等待正在执行的一轮结束
func (t *RefreshTask) Stop() {
	<-t.cron.Stop().Done()
}

// RunOnce 执行一轮拉取，返回处理的订阅数；上一轮未结束时返回 -1
func (t *RefreshTask) RunOnce(ctx context.Context) int {
	if !t.running.TryLock() {
		t.logger.Debug("[Task] 上一轮拉取未结束，跳过")
		return -1
	}
	defer t.running.Unlock()

	start := time.Now()
	n := t.db.Refresh(ctx)
	if n > 0 {
		t.logger.Debug("[Task] 远程变更拉取完成",
			zap.Int("subscriptions", n),
			zap.Duration("cost", time.Since(start)),
		)
	}
	return n
}
