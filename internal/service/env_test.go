package service

import (
	"context"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/pkg/rtdb"
	"testing"

	"github.com/stretchr/testify/require"
)

// ==================== 测试辅助 ====================

type testEnv struct {
	db  *rtdb.Database
	ops *OperationService
	ctx context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := rtdb.New(rtdb.NewMemoryBackend())
	ops := NewOperationService(db, model.NewSchemaValidator(), nil)
	t.Cleanup(func() {
		ops.Stop()
		_ = db.Close()
	})
	return &testEnv{db: db, ops: ops, ctx: context.Background()}
}

// seed 绕过校验直接写入
func (e *testEnv) seed(t *testing.T, path string, value any) {
	t.Helper()
	require.NoError(t, e.db.Set(e.ctx, path, value))
}

func (e *testEnv) value(t *testing.T, path string) any {
	t.Helper()
	snap, err := e.db.Get(e.ctx, path)
	require.NoError(t, err)
	return snap.Value
}
