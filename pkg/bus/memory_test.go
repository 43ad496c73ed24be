package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryBusFanout 测试进程内总线扇出
func TestMemoryBusFanout(t *testing.T) {
	b := NewMemory()

	type delivery struct {
		room    string
		payload string
	}

	var mu sync.Mutex
	var got []delivery

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Subscribe(ctx, func(roomID string, payload []byte) {
				mu.Lock()
				got = append(got, delivery{room: roomID, payload: string(payload)})
				mu.Unlock()
			})
		}()
	}

	// 等待订阅注册
	require.Eventually(t, func() bool {
		b.mu.RLock()
		defer b.mu.RUnlock()
		return len(b.subs) == 2
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, b.Publish(context.Background(), "lobby", []byte("hi")))

	mu.Lock()
	assert.Len(t, got, 2, "两个订阅者都应收到")
	for _, d := range got {
		assert.Equal(t, "lobby", d.room)
		assert.Equal(t, "hi", d.payload)
	}
	mu.Unlock()

	// 取消后订阅退出并被移除
	cancel()
	wg.Wait()

	b.mu.RLock()
	remaining := len(b.subs)
	b.mu.RUnlock()
	assert.Equal(t, 0, remaining)
}

// TestRedisConfigValidation 测试 Redis 配置校验
func TestRedisConfigValidation(t *testing.T) {
	_, err := NewRedis(&Config{Mode: RedisCluster})
	assert.ErrorIs(t, err, ErrInvalidConfig, "集群模式缺少地址应报错")

	_, err = NewRedis(&Config{Mode: RedisSentinel, Addrs: []string{"x:26379"}})
	assert.ErrorIs(t, err, ErrInvalidConfig, "哨兵模式缺少主节点名应报错")

	_, err = NewRedis(&Config{Mode: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
