package rtdb

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Normalize 把任意可 JSON 序列化的值转换为树节点值
// (nil / bool / float64 / string / []any / map[string]any)，
// 并去掉 nil 字段和空对象，与实时数据库的存储语义一致
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return prune(out), nil
}

func prune(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			child = prune(child)
			if child == nil {
				delete(t, k)
				continue
			}
			t[k] = child
		}
		if len(t) == 0 {
			return nil
		}
		return t
	case []any:
		if len(t) == 0 {
			return nil
		}
		for i := range t {
			t[i] = prune(t[i])
		}
		return t
	default:
		return v
	}
}

// cloneValue 深拷贝节点值
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = cloneValue(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = cloneValue(child)
		}
		return out
	default:
		return v
	}
}

// getAt 读取 segs 指向的节点，不存在返回 nil
func getAt(root map[string]any, segs []string) any {
	var cur any = root
	for _, s := range segs {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[s]
			if !ok {
				return nil
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(s)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
	}
	if m, ok := cur.(map[string]any); ok && len(m) == 0 {
		return nil
	}
	return cur
}

// setAt 覆盖写入；val 为 nil 时删除并清理空父节点
// 路径经过数组时，数组会被转换为以下标为 key 的对象
func setAt(root map[string]any, segs []string, val any) {
	if len(segs) == 0 {
		return
	}
	cur := root
	for _, s := range segs[:len(segs)-1] {
		next, isMap := cur[s].(map[string]any)
		if !isMap {
			if arr, isArr := cur[s].([]any); isArr {
				next = arrayToMap(arr)
			} else if val == nil {
				return
			} else {
				next = map[string]any{}
			}
			cur[s] = next
		}
		cur = next
	}

	last := segs[len(segs)-1]
	if val == nil {
		delete(cur, last)
		pruneEmptyParents(root, segs[:len(segs)-1])
		return
	}
	cur[last] = val
}

// updateAt 合并顶层字段；字段值整体替换，不做深合并
func updateAt(root map[string]any, base []string, fields map[string]any) {
	for k, v := range fields {
		segs := make([]string, 0, len(base)+1)
		segs = append(segs, base...)
		segs = append(segs, Segments(k)...)
		setAt(root, segs, v)
	}
}

func pruneEmptyParents(root map[string]any, segs []string) {
	for i := len(segs); i > 0; i-- {
		node, ok := getRawMap(root, segs[:i])
		if !ok || len(node) > 0 {
			return
		}
		parent, ok := getRawMap(root, segs[:i-1])
		if !ok {
			return
		}
		delete(parent, segs[i-1])
	}
}

func getRawMap(root map[string]any, segs []string) (map[string]any, bool) {
	cur := root
	for _, s := range segs {
		next, ok := cur[s].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func arrayToMap(arr []any) map[string]any {
	out := make(map[string]any, len(arr))
	for i, v := range arr {
		if v != nil {
			out[strconv.Itoa(i)] = v
		}
	}
	return out
}

// normalizeFields 规范化 update 的字段（nil 值保留，表示删除该字段）
func normalizeFields(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, err := CleanPath(k); err != nil {
			return nil, err
		}
		nv, err := Normalize(v)
		if err != nil {
			return nil, err
		}
		out[k] = nv
	}
	return out, nil
}
