// Package bus 提供房间广播的跨实例扇出。
// Redis 实现基于 Pub/Sub，每个房间一个频道；
// Memory 实现用于单进程部署与测试。
package bus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis 基于 Redis Pub/Sub 的广播总线
type Redis struct {
	client     redis.UniversalClient
	prefix     string
	ownsClient bool
}

// NewRedis 按配置创建客户端并建立总线
func NewRedis(cfg *Config) (*Redis, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var client redis.UniversalClient

	switch cfg.Mode {
	case RedisStandalone, "":
		// 单机模式
		client = redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Username:     cfg.Username,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})

	case RedisCluster:
		// 集群模式
		if len(cfg.Addrs) == 0 {
			return nil, fmt.Errorf("%w: cluster mode requires addrs", ErrInvalidConfig)
		}
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.Addrs,
			Username:     cfg.Username,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})

	case RedisSentinel:
		// 哨兵模式
		if len(cfg.Addrs) == 0 {
			return nil, fmt.Errorf("%w: sentinel mode requires addrs", ErrInvalidConfig)
		}
		if cfg.MasterName == "" {
			return nil, fmt.Errorf("%w: sentinel mode requires master name", ErrInvalidConfig)
		}
		client = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.MasterName,
			SentinelAddrs: cfg.Addrs,
			Username:      cfg.Username,
			Password:      cfg.Password,
			DB:            cfg.DB,
			PoolSize:      cfg.PoolSize,
			MinIdleConns:  cfg.MinIdleConns,
			MaxRetries:    cfg.MaxRetries,
			DialTimeout:   cfg.DialTimeout,
			ReadTimeout:   cfg.ReadTimeout,
			WriteTimeout:  cfg.WriteTimeout,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported redis mode: %s", ErrInvalidConfig, cfg.Mode)
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	return &Redis{
		client:     client,
		prefix:     cfg.ChannelPrefix,
		ownsClient: true,
	}, nil
}

// NewRedisWithClient 复用外部客户端建立总线，关闭时不关闭客户端
func NewRedisWithClient(client redis.UniversalClient, channelPrefix string) *Redis {
	return &Redis{
		client: client,
		prefix: channelPrefix,
	}
}

// Publish 发布一条房间广播
func (b *Redis) Publish(ctx context.Context, roomID string, payload []byte) error {
	if err := b.client.Publish(ctx, b.prefix+roomID, payload).Err(); err != nil {
		return fmt.Errorf("bus: publish to room %q: %w", roomID, err)
	}
	return nil
}

// Subscribe 订阅全部房间频道并阻塞消费，ctx 取消后返回
func (b *Redis) Subscribe(ctx context.Context, handler func(roomID string, payload []byte)) error {
	sub := b.client.PSubscribe(ctx, b.prefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handler(strings.TrimPrefix(msg.Channel, b.prefix), []byte(msg.Payload))
		}
	}
}

// Close 关闭总线；客户端由本总线创建时一并关闭
func (b *Redis) Close() error {
	if b.ownsClient {
		return b.client.Close()
	}
	return nil
}
