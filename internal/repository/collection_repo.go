package repository

import (
	"context"
	"errors"
	"fmt"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/pkg/rtdb"
	"sort"
	"strings"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// ==================== 依赖接口 ====================

// Reader 读取子树快照（*rtdb.Database 实现）
type Reader interface {
	Get(ctx context.Context, path string) (rtdb.Snapshot, error)
}

// Mutator 写操作入口（service.OperationService 实现）
type Mutator interface {
	Create(ctx context.Context, path string, value any) (model.Operation, error)
	CreateWithKey(ctx context.Context, path string, value any) (model.Operation, error)
	Update(ctx context.Context, path string, fields map[string]any) (model.Operation, error)
	Remove(ctx context.Context, path string) (model.Operation, error)
	Batch(ctx context.Context, updates map[string]any) (model.Operation, error)
}

// RecordPtr 约束 *T 实现 model.Record
type RecordPtr[T any] interface {
	*T
	model.Record
}

// ==================== 通用集合仓储 ====================

// CollectionRepository 一个顶层集合的读写
// 读取走 Reader，写入全部经过 Mutator，以便统一校验和记录操作状态
type CollectionRepository[T any, P RecordPtr[T]] struct {
	collection string
	reader     Reader
	writer     Mutator
}

// NewCollectionRepository 创建集合仓储
func NewCollectionRepository[T any, P RecordPtr[T]](collection string, reader Reader, writer Mutator) *CollectionRepository[T, P] {
	return &CollectionRepository[T, P]{
		collection: collection,
		reader:     reader,
		writer:     writer,
	}
}

// Collection 集合名
func (r *CollectionRepository[T, P]) Collection() string {
	return r.collection
}

// Path 记录路径
func (r *CollectionRepository[T, P]) Path(id string) string {
	return r.collection + "/" + id
}

// List 全部记录，按 key 排序；需要时间顺序的调用方自行按时间戳重排
func (r *CollectionRepository[T, P]) List(ctx context.Context) ([]P, error) {
	snap, err := r.reader.Get(ctx, r.collection)
	if err != nil {
		return nil, err
	}
	return DecodeList[T, P](snap)
}

// Get 按 id 读取
func (r *CollectionRepository[T, P]) Get(ctx context.Context, id string) (P, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	snap, err := r.reader.Get(ctx, r.Path(id))
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, ErrNotFound
	}
	return decodeRecord[T, P](id, snap)
}

// Exists 记录是否存在
func (r *CollectionRepository[T, P]) Exists(ctx context.Context, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	snap, err := r.reader.Get(ctx, r.Path(id))
	if err != nil {
		return false, err
	}
	return snap.Exists(), nil
}

// Create 生成 key 新增记录，返回新 id
func (r *CollectionRepository[T, P]) Create(ctx context.Context, rec P) (string, error) {
	rec.Touch(model.NowMillis(), true)
	value, err := r.Values(rec)
	if err != nil {
		return "", err
	}
	op, err := r.writer.CreateWithKey(ctx, r.collection, value)
	if err != nil {
		return "", err
	}
	rec.SetID(op.Key)
	return op.Key, nil
}

// Put 以指定 id 覆盖写入
func (r *CollectionRepository[T, P]) Put(ctx context.Context, id string, rec P) error {
	if err := checkID(id); err != nil {
		return err
	}
	rec.Touch(model.NowMillis(), true)
	value, err := r.Values(rec)
	if err != nil {
		return err
	}
	if _, err := r.writer.Create(ctx, r.Path(id), value); err != nil {
		return err
	}
	rec.SetID(id)
	return nil
}

// Update 合并字段；记录不存在时返回 ErrNotFound
func (r *CollectionRepository[T, P]) Update(ctx context.Context, id string, fields map[string]any) error {
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	patch := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		if k == "id" || k == "createdAt" {
			continue
		}
		patch[k] = v
	}
	patch["updatedAt"] = model.NowMillis()
	_, err = r.writer.Update(ctx, r.Path(id), patch)
	return err
}

// Delete 删除记录；记录不存在时返回 ErrNotFound
func (r *CollectionRepository[T, P]) Delete(ctx context.Context, id string) error {
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	_, err = r.writer.Remove(ctx, r.Path(id))
	return err
}

// Values 记录转换为存储值，去掉 id 字段（id 即 key）
func (r *CollectionRepository[T, P]) Values(rec P) (map[string]any, error) {
	v, err := rtdb.Normalize(rec)
	if err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	delete(m, "id")
	return m, nil
}

// ==================== 解码 ====================

// DecodeList 把集合快照解码为记录列表，按 key 排序
func DecodeList[T any, P RecordPtr[T]](snap rtdb.Snapshot) ([]P, error) {
	keys := snap.Keys()
	out := make([]P, 0, len(keys))
	for _, k := range keys {
		rec, err := decodeRecord[T, P](k, snap.Child(k))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeRecord[T any, P RecordPtr[T]](id string, snap rtdb.Snapshot) (P, error) {
	var rec P = new(T)
	if err := snap.Decode(rec); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", snap.Path, err)
	}
	rec.SetID(id)
	return rec, nil
}

// SortByCreatedDesc 按创建时间倒序（最新在前），时间相同按 id 倒序
func SortByCreatedDesc[T any, P RecordPtr[T]](list []P) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].CreatedMillis(), list[j].CreatedMillis()
		if a != b {
			return a > b
		}
		return list[i].GetID() > list[j].GetID()
	})
}

func checkID(id string) error {
	if id == "" || strings.Contains(id, "/") {
		return fmt.Errorf("%w: 无效的 id %q", rtdb.ErrInvalidPath, id)
	}
	if _, err := rtdb.CleanPath(id); err != nil {
		return fmt.Errorf("%w: 无效的 id %q", rtdb.ErrInvalidPath, id)
	}
	return nil
}
