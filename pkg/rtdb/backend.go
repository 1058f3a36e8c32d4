package rtdb

import (
	"context"
)

// Backend 树形键值存储的底层原语
// 路径已经过 CleanPath 规范化；值已经过 Normalize
type Backend interface {
	// Get 读取整棵子树，不存在时返回 nil
	Get(ctx context.Context, path string) (any, error)

	// Set 覆盖写入，原有子节点全部清除；value 为 nil 等同删除
	Set(ctx context.Context, path string, value any) error

	// Push 在 path 下生成唯一 key 并写入，返回生成的 key
	Push(ctx context.Context, path string, value any) (string, error)

	// Update 合并顶层字段，未提及的字段保持不变；嵌套对象整体替换
	Update(ctx context.Context, path string, fields map[string]any) error

	// Delete 删除整棵子树
	Delete(ctx context.Context, path string) error

	// MultiUpdate 多路径原子写入，全部成功或全部失败
	MultiUpdate(ctx context.Context, updates map[string]any) error

	Close() error
}
