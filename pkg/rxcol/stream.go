package rxcol

import "sync"

// Stream 事件流，订阅者只接收订阅之后发出的事件
type Stream[E any] struct {
	mu   sync.RWMutex
	subs map[uint64]func(E)
	next uint64
}

func newStream[E any]() *Stream[E] {
	return &Stream[E]{
		subs: make(map[uint64]func(E)),
	}
}

// Subscribe 订阅事件流，返回的 Subscription 用于取消订阅
// 订阅本身对底层集合没有任何副作用
func (s *Stream[E]) Subscribe(handler func(E)) *Subscription {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = handler
	s.mu.Unlock()

	return &Subscription{
		cancel: func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		},
	}
}

// publish 同步分发事件给所有订阅者
func (s *Stream[E]) publish(e E) {
	s.mu.RLock()
	handlers := make([]func(E), 0, len(s.subs))
	for _, h := range s.subs {
		handlers = append(handlers, h)
	}
	s.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// Subscription 事件流订阅句柄
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe 取消订阅，多次调用是安全的
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}
