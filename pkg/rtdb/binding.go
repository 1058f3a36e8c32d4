package rtdb

import (
	"context"
	"sync"
)

// State 绑定的本地状态
// Loading 为 true 表示尚未收到首个快照；Exists 为 false 表示节点不存在
type State[T any] struct {
	Data    T
	Exists  bool
	Loading bool
	Err     error
	Version uint64
}

// Decoder 快照解码函数
type Decoder[T any] func(Snapshot) (T, error)

// DecodeInto 默认解码：JSON 反序列化到 T
func DecodeInto[T any](s Snapshot) (T, error) {
	var v T
	err := s.Decode(&v)
	return v, err
}

// Binding 把一个订阅路径绑定为本地状态
// 切换路径时先拆除旧订阅再建立新订阅，旧订阅迟到的推送会被丢弃
type Binding[T any] struct {
	db     *Database
	decode Decoder[T]

	mu        sync.RWMutex
	path      string
	gen       uint64
	state     State[T]
	unsub     Unsubscribe
	loaded    chan struct{}
	isLoaded  bool
	listeners []func(State[T])
}

// Bind 创建绑定并立即订阅
func Bind[T any](db *Database, path string, decode Decoder[T]) (*Binding[T], error) {
	if decode == nil {
		decode = DecodeInto[T]
	}
	b := &Binding[T]{db: db, decode: decode}
	if err := b.SetPath(path); err != nil {
		return nil, err
	}
	return b, nil
}

// SetPath 切换绑定路径
func (b *Binding[T]) SetPath(path string) error {
	b.mu.Lock()
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
	// 唤醒等待旧路径的调用方，由 Wait 转而等待新路径
	if b.loaded != nil && !b.isLoaded {
		close(b.loaded)
	}
	b.gen++
	gen := b.gen
	b.path = path
	b.state = State[T]{Loading: true}
	b.loaded = make(chan struct{})
	b.isLoaded = false
	b.mu.Unlock()

	unsub, err := b.db.Subscribe(path, Funcs(
		func(s Snapshot) { b.apply(gen, s, nil) },
		func(err error) { b.apply(gen, Snapshot{}, err) },
	))
	if err != nil {
		b.apply(gen, Snapshot{}, err)
		return err
	}

	b.mu.Lock()
	if gen == b.gen {
		b.unsub = unsub
		unsub = nil
	}
	b.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	return nil
}

// Path 当前绑定路径
func (b *Binding[T]) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// State 当前状态
func (b *Binding[T]) State() State[T] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// OnChange 注册状态变化回调
func (b *Binding[T]) OnChange(fn func(State[T])) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

// Wait 等待当前路径的首个快照（或错误），等待期间切换路径则继续等待新路径
func (b *Binding[T]) Wait(ctx context.Context) error {
	for {
		b.mu.RLock()
		ch, gen := b.loaded, b.gen
		b.mu.RUnlock()

		select {
		case <-ch:
			b.mu.RLock()
			current, err := gen == b.gen, b.state.Err
			b.mu.RUnlock()
			if current {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close 释放订阅
func (b *Binding[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
}

func (b *Binding[T]) apply(gen uint64, s Snapshot, err error) {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}

	if err == nil {
		var data T
		data, err = b.decode(s)
		if err == nil {
			b.state = State[T]{Data: data, Exists: s.Exists(), Version: s.Version}
		}
	}
	if err != nil {
		b.state.Err = err
		b.state.Loading = false
	}

	if !b.isLoaded {
		b.isLoaded = true
		close(b.loaded)
	}
	state := b.state
	listeners := append([]func(State[T]){}, b.listeners...)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
