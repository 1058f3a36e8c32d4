package task

import (
	"go.uber.org/zap"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台定时任务
type TaskManager struct {
	refreshTask *RefreshTask
	logger      *zap.Logger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	Store  Refresher
	Logger *zap.Logger
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	// 远程存储变更拉取
	RefreshEnabled bool
	RefreshSpec    string
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		RefreshEnabled: true,
		RefreshSpec:    "*/15 * * * * *",
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tm := &TaskManager{logger: logger}
	if cfg.RefreshEnabled && deps.Store != nil {
		spec := cfg.RefreshSpec
		if spec == "" {
			spec = DefaultConfig().RefreshSpec
		}
		tm.refreshTask = NewRefreshTask(deps.Store, spec, logger)
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	tm.logger.Info("[TaskManager] 正在启动后台任务...")
	if tm.refreshTask != nil {
		if err := tm.refreshTask.Start(); err != nil {
			return err
		}
	}
	tm.logger.Info("[TaskManager] 后台任务已全部启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	tm.logger.Info("[TaskManager] 正在停止后台任务...")
	if tm.refreshTask != nil {
		tm.refreshTask.Stop()
	}
	tm.logger.Info("[TaskManager] 后台任务已全部停止")
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"refresh": tm.refreshTask != nil,
	}
}
