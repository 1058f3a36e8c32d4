package rtdb

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// KeyGenerator 生成大致按时间排序的唯一 key
type KeyGenerator interface {
	NewKey() string
}

// ulidKeys ULID 生成器，同一毫秒内单调递增
type ulidKeys struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewKeyGenerator 创建 push key 生成器
func NewKeyGenerator() KeyGenerator {
	return &ulidKeys{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ulidKeys) NewKey() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	return strings.ToLower(id.String())
}
