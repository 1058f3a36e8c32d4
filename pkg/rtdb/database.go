package rtdb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Database 实时数据绑定层
// 写操作直接交给 Backend，成功后把相关路径的完整子树推送给订阅者
type Database struct {
	backend Backend
	logger  *zap.Logger

	// notifyMu 保证同一路径的快照按读取顺序入队（版本单调）
	// 写操作本身不加锁，并发写由存储层按最后写入为准处理
	notifyMu sync.Mutex

	subsMu sync.RWMutex
	subs   map[uint64]*subscription

	nextID  atomic.Uint64
	version atomic.Uint64
	closed  atomic.Bool
}

// Option 配置项
type Option func(*Database)

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(d *Database) {
		if l != nil {
			d.logger = l
		}
	}
}

// New 创建 Database
func New(backend Backend, opts ...Option) *Database {
	d := &Database{
		backend: backend,
		logger:  zap.NewNop(),
		subs:    make(map[uint64]*subscription),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ==================== 读取 ====================

// Get 读取一次完整子树
func (d *Database) Get(ctx context.Context, path string) (Snapshot, error) {
	p, err := d.prepare("get", path)
	if err != nil {
		return Snapshot{}, err
	}
	v, err := d.backend.Get(ctx, p)
	if err != nil {
		return Snapshot{}, wrapErr("get", p, CodeUnknown, err)
	}
	return Snapshot{Path: p, Value: v, Version: d.version.Load()}, nil
}

// ==================== 写入 ====================

// Set 覆盖写入（create）
func (d *Database) Set(ctx context.Context, path string, value any) error {
	p, err := d.prepare("set", path)
	if err != nil {
		return err
	}
	v, err := Normalize(value)
	if err != nil {
		return wrapErr("set", p, CodeInvalidData, err)
	}
	if err := d.backend.Set(ctx, p, v); err != nil {
		return wrapErr("set", p, CodeUnknown, err)
	}
	d.notify(ctx, p)
	return nil
}

// Push 生成新 key 并写入（createWithKey），非幂等
func (d *Database) Push(ctx context.Context, path string, value any) (string, error) {
	p, err := d.prepare("push", path)
	if err != nil {
		return "", err
	}
	v, err := Normalize(value)
	if err != nil {
		return "", wrapErr("push", p, CodeInvalidData, err)
	}
	if v == nil {
		return "", wrapErr("push", p, CodeInvalidData, fmt.Errorf("%w: 空值", ErrInvalidData))
	}
	key, err := d.backend.Push(ctx, p, v)
	if err != nil {
		return "", wrapErr("push", p, CodeUnknown, err)
	}
	d.notify(ctx, Join(p, key))
	return key, nil
}

// Update 合并顶层字段，值为 nil 的字段被删除
func (d *Database) Update(ctx context.Context, path string, fields map[string]any) error {
	p, err := d.prepare("update", path)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return wrapErr("update", p, CodeInvalidData, fmt.Errorf("%w: 没有需要更新的字段", ErrInvalidData))
	}
	nf, err := normalizeFields(fields)
	if err != nil {
		return wrapErr("update", p, CodeInvalidData, err)
	}
	if err := d.backend.Update(ctx, p, nf); err != nil {
		return wrapErr("update", p, CodeUnknown, err)
	}
	d.notify(ctx, p)
	return nil
}

// Remove 删除整棵子树
func (d *Database) Remove(ctx context.Context, path string) error {
	p, err := d.prepare("remove", path)
	if err != nil {
		return err
	}
	if err := d.backend.Delete(ctx, p); err != nil {
		return wrapErr("remove", p, CodeUnknown, err)
	}
	d.notify(ctx, p)
	return nil
}

// Batch 多路径原子写入；路径之间不能存在祖先关系
func (d *Database) Batch(ctx context.Context, updates map[string]any) error {
	if d.closed.Load() {
		return wrapErr("batch", "/", CodeUnknown, ErrClosed)
	}
	if len(updates) == 0 {
		return nil
	}

	clean := make(map[string]any, len(updates))
	paths := make([]string, 0, len(updates))
	for raw, value := range updates {
		p, err := CleanPath(raw)
		if err != nil {
			return wrapErr("batch", raw, CodeInvalidPath, err)
		}
		v, err := Normalize(value)
		if err != nil {
			return wrapErr("batch", p, CodeInvalidData, err)
		}
		clean[p] = v
		paths = append(paths, p)
	}

	sort.Strings(paths)
	for i := 1; i < len(paths); i++ {
		if IsAncestorOrSelf(paths[i-1], paths[i]) {
			return wrapErr("batch", paths[i], CodeInvalidPath,
				fmt.Errorf("%w: %q 与 %q 重叠", ErrInvalidPath, paths[i-1], paths[i]))
		}
	}

	if err := d.backend.MultiUpdate(ctx, clean); err != nil {
		return wrapErr("batch", "/", CodeUnknown, err)
	}
	d.notify(ctx, paths...)
	return nil
}

// ==================== 订阅 ====================

// Subscribe 订阅 path 下的整棵子树
// 首个快照异步投递；节点不存在时投递 Value 为 nil 的快照
func (d *Database) Subscribe(path string, l Listener) (Unsubscribe, error) {
	p, err := d.prepare("subscribe", path)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("rtdb: listener 不能为空")
	}

	sub := newSubscription(d.nextID.Add(1), p, l, d.logger)
	d.subsMu.Lock()
	d.subs[sub.id] = sub
	d.subsMu.Unlock()

	go sub.run()
	go func() {
		d.notifyMu.Lock()
		defer d.notifyMu.Unlock()
		d.load(context.Background(), sub)
	}()

	d.logger.Debug("[RTDB] 新增订阅", zap.String("path", p), zap.Uint64("sub_id", sub.id))
	return func() { d.unsubscribe(sub) }, nil
}

func (d *Database) unsubscribe(sub *subscription) {
	if !sub.close() {
		return
	}
	d.subsMu.Lock()
	delete(d.subs, sub.id)
	d.subsMu.Unlock()
	d.logger.Debug("[RTDB] 取消订阅", zap.String("path", sub.path), zap.Uint64("sub_id", sub.id))
}

// SubscriptionCount 当前活跃订阅数
func (d *Database) SubscriptionCount() int {
	d.subsMu.RLock()
	defer d.subsMu.RUnlock()
	return len(d.subs)
}

// Refresh 重新读取所有订阅路径，有变化的才会投递
// 用于远程存储上由其他客户端产生的变更
func (d *Database) Refresh(ctx context.Context) int {
	subs := d.snapshotSubs(nil)

	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	for _, sub := range subs {
		d.load(ctx, sub)
	}
	return len(subs)
}

// Close 关闭所有订阅并释放存储
func (d *Database) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	for _, sub := range d.snapshotSubs(nil) {
		d.unsubscribe(sub)
	}
	return d.backend.Close()
}

// ==================== 内部 ====================

func (d *Database) prepare(op, path string) (string, error) {
	if d.closed.Load() {
		return "", wrapErr(op, path, CodeUnknown, ErrClosed)
	}
	p, err := CleanPath(path)
	if err != nil {
		return "", wrapErr(op, path, CodeInvalidPath, err)
	}
	return p, nil
}

// notify 向与 changed 路径相关的订阅推送最新完整子树
func (d *Database) notify(ctx context.Context, changed ...string) {
	subs := d.snapshotSubs(func(sub *subscription) bool {
		for _, c := range changed {
			if Related(sub.path, c) {
				return true
			}
		}
		return false
	})
	if len(subs) == 0 {
		return
	}

	// 写请求的 ctx 可能随即被取消，推送不受影响
	ctx = context.WithoutCancel(ctx)

	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	for _, sub := range subs {
		d.load(ctx, sub)
	}
}

// load 读取订阅路径并入队；调用方需持有 notifyMu
func (d *Database) load(ctx context.Context, sub *subscription) {
	v, err := d.backend.Get(ctx, sub.path)
	if err != nil {
		d.logger.Warn("[RTDB] 读取订阅数据失败", zap.String("path", sub.path), zap.Error(err))
		sub.enqueue(event{err: wrapErr("subscribe", sub.path, CodeUnknown, err)})
		return
	}
	sub.enqueue(event{snap: Snapshot{Path: sub.path, Value: v, Version: d.version.Add(1)}})
}

func (d *Database) snapshotSubs(filter func(*subscription) bool) []*subscription {
	d.subsMu.RLock()
	defer d.subsMu.RUnlock()
	out := make([]*subscription, 0, len(d.subs))
	for _, sub := range d.subs {
		if filter == nil || filter(sub) {
			out = append(out, sub)
		}
	}
	return out
}
