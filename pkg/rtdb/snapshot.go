package rtdb

import (
	"encoding/json"
	"reflect"
	"sort"
)

// Snapshot 某个路径在某一时刻的完整子树
// Value 为 nil 表示节点不存在（空哨兵），与“尚未加载”区分开
type Snapshot struct {
	Path    string
	Value   any
	Version uint64
}

// Exists 节点是否存在
func (s Snapshot) Exists() bool {
	return s.Value != nil
}

// Decode 把子树解码到 out；节点不存在时 out 保持不变
func (s Snapshot) Decode(out any) error {
	if s.Value == nil {
		return nil
	}
	raw, err := json.Marshal(s.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Child 取子节点快照
func (s Snapshot) Child(key string) Snapshot {
	v := getAt(map[string]any{"_": s.Value}, append([]string{"_"}, Segments(key)...))
	return Snapshot{Path: Join(s.Path, key), Value: v, Version: s.Version}
}

// Keys 子节点 key，按字典序（push key 即时间顺序）
func (s Snapshot) Keys() []string {
	children := childMap(s.Value)
	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func childMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		return arrayToMap(t)
	default:
		return nil
	}
}

// Changes 两次完整快照之间子节点的变化
type Changes struct {
	Added   []string
	Changed []string
	Removed []string
}

// Empty 没有任何变化
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Changed) == 0 && len(c.Removed) == 0
}

// Diff 在客户端根据两次完整快照计算子节点差异（存储层不提供增量）
func Diff(prev, next Snapshot) Changes {
	before, after := childMap(prev.Value), childMap(next.Value)
	var c Changes
	for k, nv := range after {
		ov, ok := before[k]
		switch {
		case !ok:
			c.Added = append(c.Added, k)
		case !reflect.DeepEqual(ov, nv):
			c.Changed = append(c.Changed, k)
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			c.Removed = append(c.Removed, k)
		}
	}
	sort.Strings(c.Added)
	sort.Strings(c.Changed)
	sort.Strings(c.Removed)
	return c
}
