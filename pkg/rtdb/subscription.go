package rtdb

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Listener 订阅回调，每次收到的都是整棵子树而不是增量
type Listener interface {
	OnSnapshot(Snapshot)
}

// ErrorListener 可选实现：接收网络/权限等错误，存储层不会自动重试
type ErrorListener interface {
	OnError(error)
}

// Unsubscribe 取消订阅，可重复调用
type Unsubscribe func()

type funcListener struct {
	onData  func(Snapshot)
	onError func(error)
}

func (f funcListener) OnSnapshot(s Snapshot) {
	if f.onData != nil {
		f.onData(s)
	}
}

func (f funcListener) OnError(err error) {
	if f.onError != nil {
		f.onError(err)
	}
}

// Funcs 用两个函数构造 Listener
func Funcs(onData func(Snapshot), onError func(error)) Listener {
	return funcListener{onData: onData, onError: onError}
}

type event struct {
	snap Snapshot
	err  error
}

// subscription 单个订阅；在独立 goroutine 中按顺序投递
// 未投递的事件只保留最新一个，保证不会先收到新值再收到旧值
type subscription struct {
	id       uint64
	path     string
	listener Listener
	logger   *zap.Logger

	mu      sync.Mutex
	pending *event
	hasLast bool
	last    any
	closed  bool

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func newSubscription(id uint64, path string, l Listener, logger *zap.Logger) *subscription {
	return &subscription{
		id:       id,
		path:     path,
		listener: l,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (s *subscription) enqueue(ev event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = &ev
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		ev := s.pending
		s.pending = nil
		if ev == nil || s.closed {
			s.mu.Unlock()
			continue
		}
		if ev.err != nil {
			// 出错后下一次快照无论是否相同都要投递
			s.hasLast = false
		} else {
			if s.hasLast && reflect.DeepEqual(s.last, ev.snap.Value) {
				s.mu.Unlock()
				continue
			}
			s.hasLast = true
			s.last = ev.snap.Value
			ev.snap.Value = cloneValue(ev.snap.Value)
		}
		s.mu.Unlock()

		s.deliver(*ev)
	}
}

func (s *subscription) deliver(ev event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("[RTDB] 订阅回调 panic",
				zap.String("path", s.path),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()

	if ev.err != nil {
		if el, ok := s.listener.(ErrorListener); ok {
			el.OnError(ev.err)
		}
		return
	}
	s.listener.OnSnapshot(ev.snap)
}

func (s *subscription) close() bool {
	closed := false
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.pending = nil
		s.mu.Unlock()
		close(s.done)
		closed = true
	})
	return closed
}
