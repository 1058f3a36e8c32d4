package service

import (
	"context"
	"errors"
	"shop_admin_v1_202610/internal/middleware"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/pkg/rtdb"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
)

const (
	operationTTL      = 10 * time.Minute
	operationCapacity = 10_000
)

// OperationService 所有写操作的统一入口
// 每次调用：按集合约束校验 -> 记录独立的操作状态 -> 只发起一次存储调用
// 失败直接返回，不重试，也不回滚
type OperationService struct {
	db        *rtdb.Database
	validator *model.SchemaValidator
	ops       *ttlcache.Cache[string, model.Operation]
	logger    *zap.Logger
}

func NewOperationService(db *rtdb.Database, validator *model.SchemaValidator, logger *zap.Logger) *OperationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	ops := ttlcache.New[string, model.Operation](
		ttlcache.WithTTL[string, model.Operation](operationTTL),
		ttlcache.WithCapacity[string, model.Operation](operationCapacity),
		ttlcache.WithDisableTouchOnHit[string, model.Operation](),
	)
	go ops.Start()

	return &OperationService{
		db:        db,
		validator: validator,
		ops:       ops,
		logger:    logger,
	}
}

// Stop 停止过期清理
func (s *OperationService) Stop() {
	s.ops.Stop()
}

// ==================== 写操作 ====================

// Create 覆盖写入 path（set），原有子节点会被清除
func (s *OperationService) Create(ctx context.Context, path string, value any) (model.Operation, error) {
	op := s.begin(ctx, model.OpCreate, path, nil)
	if err := s.validator.ValidateSet(path, value); err != nil {
		return s.finish(op, "", err)
	}
	return s.finish(op, "", s.db.Set(ctx, path, value))
}

// CreateWithKey 在 path 下生成新 key 并写入（push），非幂等
func (s *OperationService) CreateWithKey(ctx context.Context, path string, value any) (model.Operation, error) {
	op := s.begin(ctx, model.OpCreateWithKey, path, nil)
	if err := s.validator.ValidatePush(path, value); err != nil {
		return s.finish(op, "", err)
	}
	key, err := s.db.Push(ctx, path, value)
	return s.finish(op, key, err)
}

// Update 合并顶层字段，未提及的字段不变，嵌套对象整体替换
func (s *OperationService) Update(ctx context.Context, path string, fields map[string]any) (model.Operation, error) {
	op := s.begin(ctx, model.OpUpdate, path, nil)
	if err := s.validator.ValidateUpdate(path, fields); err != nil {
		return s.finish(op, "", err)
	}
	return s.finish(op, "", s.db.Update(ctx, path, fields))
}

// Remove 删除整棵子树
func (s *OperationService) Remove(ctx context.Context, path string) (model.Operation, error) {
	op := s.begin(ctx, model.OpRemove, path, nil)
	if err := s.validator.ValidateRemove(path); err != nil {
		return s.finish(op, "", err)
	}
	return s.finish(op, "", s.db.Remove(ctx, path))
}

// Batch 多路径原子写入，全部成功或全部失败
func (s *OperationService) Batch(ctx context.Context, updates map[string]any) (model.Operation, error) {
	paths := make([]string, 0, len(updates))
	for p := range updates {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	op := s.begin(ctx, model.OpBatch, "/", paths)
	var problems []string
	for _, p := range paths {
		if err := s.validator.ValidateSet(p, updates[p]); err != nil {
			var ve *model.ValidationError
			if errors.As(err, &ve) {
				problems = append(problems, ve.Problems...)
			}
		}
	}
	if err := model.NewValidationError(problems); err != nil {
		return s.finish(op, "", err)
	}
	return s.finish(op, "", s.db.Batch(ctx, updates))
}

// ==================== 状态查询 ====================

// Get 查询操作状态
func (s *OperationService) Get(id string) (model.Operation, bool) {
	item := s.ops.Get(id)
	if item == nil {
		return model.Operation{}, false
	}
	return item.Value(), true
}

// InFlight 仍在执行的操作
func (s *OperationService) InFlight() []model.Operation {
	var out []model.Operation
	for _, item := range s.ops.Items() {
		if op := item.Value(); op.Loading() {
			out = append(out, op)
		}
	}
	sortOperations(out)
	return out
}

// Recent 最近的操作，按开始时间倒序
func (s *OperationService) Recent(limit int) []model.Operation {
	out := make([]model.Operation, 0, s.ops.Len())
	for _, item := range s.ops.Items() {
		out = append(out, item.Value())
	}
	sortOperations(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortOperations(ops []model.Operation) {
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].StartedAt.After(ops[j].StartedAt)
	})
}

// ==================== 内部 ====================

func (s *OperationService) begin(ctx context.Context, kind, path string, paths []string) model.Operation {
	op := model.Operation{
		ID:        uuid.NewString(),
		Actor:     middleware.GetAuditUserID(ctx),
		Kind:      kind,
		Path:      path,
		Paths:     paths,
		Status:    model.OpStatusPending,
		StartedAt: time.Now(),
	}
	s.ops.Set(op.ID, op, ttlcache.DefaultTTL)
	return op
}

func (s *OperationService) finish(op model.Operation, key string, err error) (model.Operation, error) {
	now := time.Now()
	op.FinishedAt = &now
	op.Key = key

	if err != nil {
		op.Status = model.OpStatusFailed
		op.Error = err.Error()
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			op.ErrorCode = "validation"
		} else {
			op.ErrorCode = string(rtdb.CodeOf(err))
		}
		s.logger.Warn("[Operation] 写操作失败",
			zap.String("op_id", op.ID),
			zap.String("kind", op.Kind),
			zap.String("path", op.Path),
			zap.String("actor", op.Actor),
			zap.String("code", op.ErrorCode),
			zap.Error(err))
	} else {
		op.Status = model.OpStatusSucceeded
		s.logger.Debug("[Operation] 写操作完成",
			zap.String("op_id", op.ID),
			zap.String("kind", op.Kind),
			zap.String("path", op.Path),
			zap.Duration("cost", now.Sub(op.StartedAt)))
	}

	s.ops.Set(op.ID, op, ttlcache.DefaultTTL)
	return op, err
}
