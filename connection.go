package ladder

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Connection 一条客户端连接：传输通道 + 发送者身份 + 时间戳
// 同一时刻只属于一个房间
type Connection struct {
	id        string
	sender    any
	transport Transport
	openedAt  time.Time
	// lastActivity 最近活动时间（UnixNano）
	lastActivity atomic.Int64
}

// NewConnection 创建连接
// sender 为 nil 表示匿名连接
func NewConnection(sender any, transport Transport) *Connection {
	c := &Connection{
		id:        uuid.NewString(),
		sender:    sender,
		transport: transport,
		openedAt:  time.Now(),
	}
	c.lastActivity.Store(c.openedAt.UnixNano())
	return c
}

// ID 返回连接 ID
func (c *Connection) ID() string { return c.id }

// Sender 返回发送者身份，匿名连接为 nil
func (c *Connection) Sender() any { return c.sender }

// IsAnonymous 判断是否为匿名连接
func (c *Connection) IsAnonymous() bool { return c.sender == nil }

// Transport 返回底层传输通道
func (c *Connection) Transport() Transport { return c.transport }

// OpenedAt 返回连接建立时间
func (c *Connection) OpenedAt() time.Time { return c.openedAt }

// LastActivityAt 返回最近活动时间
func (c *Connection) LastActivityAt() time.Time {
	return time.Unix(0, c.lastActivity.Load())
}

// Touch 更新最近活动时间
func (c *Connection) Touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

// Equal 判断两条连接是否包装同一个传输通道
func (c *Connection) Equal(other *Connection) bool {
	return other != nil && c.transport == other.transport
}

// RemoteAddr 返回对端地址，用于诊断
func (c *Connection) RemoteAddr() string {
	return c.transport.RemoteAddr()
}
