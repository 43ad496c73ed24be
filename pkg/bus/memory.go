package bus

import (
	"context"
	"sync"
)

// Memory 进程内广播总线
// 用于单进程内多个复用器共享房间，以及测试
type Memory struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]func(roomID string, payload []byte)
}

// NewMemory 创建进程内总线
func NewMemory() *Memory {
	return &Memory{
		subs: make(map[uint64]func(roomID string, payload []byte)),
	}
}

// Publish 同步投递给全部订阅者
func (b *Memory) Publish(ctx context.Context, roomID string, payload []byte) error {
	b.mu.RLock()
	handlers := make([]func(string, []byte), 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(roomID, payload)
	}
	return nil
}

// Subscribe 注册订阅并阻塞到 ctx 取消
func (b *Memory) Subscribe(ctx context.Context, handler func(roomID string, payload []byte)) error {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = handler
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()

	return ctx.Err()
}
