package rtdb

import (
	"context"
	"sync"
)

// MemoryBackend 进程内树形存储，用于测试和本地开发
type MemoryBackend struct {
	mu     sync.RWMutex
	root   map[string]any
	keys   KeyGenerator
	closed bool
}

// NewMemoryBackend 创建内存存储
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		root: map[string]any{},
		keys: NewKeyGenerator(),
	}
}

func (m *MemoryBackend) Get(_ context.Context, path string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return cloneValue(getAt(m.root, Segments(path))), nil
}

func (m *MemoryBackend) Set(_ context.Context, path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	setAt(m.root, Segments(path), cloneValue(value))
	return nil
}

func (m *MemoryBackend) Push(_ context.Context, path string, value any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}
	key := m.keys.NewKey()
	setAt(m.root, append(Segments(path), key), cloneValue(value))
	return key, nil
}

func (m *MemoryBackend) Update(_ context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	updateAt(m.root, Segments(path), cloneValue(fields).(map[string]any))
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	setAt(m.root, Segments(path), nil)
	return nil
}

func (m *MemoryBackend) MultiUpdate(_ context.Context, updates map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	// 单把锁内完成全部写入，对读者而言是原子的
	for path, value := range updates {
		setAt(m.root, Segments(path), cloneValue(value))
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
