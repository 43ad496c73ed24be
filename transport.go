package ladder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Transport 传输通道抽象
// 核心只依赖这五类原语：发送、关闭、消息回调、关闭回调、对端地址
type Transport interface {
	// Send 非阻塞发送一帧文本消息，队列满返回 ErrSendQueueFull
	Send(payload []byte) error
	// Close 正常关闭通道
	Close() error
	// CloseWithReason 先写入带原因的关闭帧再关闭通道
	CloseWithReason(code int, reason string) error
	// OnMessage 注册入站消息回调，必须在通道启动前注册
	OnMessage(handler func(payload []byte))
	// OnClose 注册关闭回调，必须在通道启动前注册
	OnClose(handler func(err error))
	// RemoteAddr 返回对端地址，用于诊断
	RemoteAddr() string
}

// transportConfig 传输配置
type transportConfig struct {
	sendQueueSize  int
	writeWait      time.Duration
	pingInterval   time.Duration
	pongWait       time.Duration
	maxMessageSize int64
}

// wsTransport 基于 gorilla/websocket 的传输实现
// 读写分离：readPump 驱动消息回调，writePump 消费发送队列并维持心跳
type wsTransport struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	onMessage func([]byte)
	onClose   func(error)

	closed    atomic.Bool
	closeOnce sync.Once

	config transportConfig
}

func newWSTransport(conn *websocket.Conn, config transportConfig) *wsTransport {
	return &wsTransport{
		conn:   conn,
		send:   make(chan []byte, config.sendQueueSize),
		done:   make(chan struct{}),
		config: config,
	}
}

// OnMessage 注册入站消息回调
func (t *wsTransport) OnMessage(handler func(payload []byte)) {
	t.onMessage = handler
}

// OnClose 注册关闭回调
func (t *wsTransport) OnClose(handler func(err error)) {
	t.onClose = handler
}

// run 启动读写协程
func (t *wsTransport) run(ctx context.Context) {
	go t.readPump()
	go t.writePump(ctx)
}

// readPump 读取消息并驱动回调
func (t *wsTransport) readPump() {
	defer func() {
		t.terminate(nil)
	}()

	t.conn.SetReadLimit(t.config.maxMessageSize)
	if err := t.conn.SetReadDeadline(time.Now().Add(t.config.pongWait)); err != nil {
		return
	}
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(t.config.pongWait))
	})

	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.terminate(err)
			return
		}
		if t.onMessage != nil {
			t.onMessage(data)
		}
	}
}

// writePump 消费发送队列并发送心跳
func (t *wsTransport) writePump(ctx context.Context) {
	ticker := time.NewTicker(t.config.pingInterval)
	defer func() {
		ticker.Stop()
		t.conn.Close()
	}()

	for {
		select {
		case <-t.done:
			return

		case <-ctx.Done():
			_ = t.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case payload := <-t.send:
			if err := t.conn.SetWriteDeadline(time.Now().Add(t.config.writeWait)); err != nil {
				return
			}
			if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			if err := t.conn.SetWriteDeadline(time.Now().Add(t.config.writeWait)); err != nil {
				return
			}
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// terminate 关闭底层连接并触发一次关闭回调
func (t *wsTransport) terminate(err error) {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		close(t.done)
		t.conn.Close()
		if t.onClose != nil {
			t.onClose(err)
		}
	})
}

// Send 非阻塞发送
func (t *wsTransport) Send(payload []byte) error {
	if t.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case t.send <- payload:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close 正常关闭
func (t *wsTransport) Close() error {
	return t.CloseWithReason(websocket.CloseNormalClosure, "")
}

// CloseWithReason 写入带原因的关闭帧后关闭
func (t *wsTransport) CloseWithReason(code int, reason string) error {
	if t.closed.Load() {
		return ErrConnectionClosed
	}

	deadline := time.Now().Add(t.config.writeWait)
	msg := websocket.FormatCloseMessage(code, reason)
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, deadline)

	t.terminate(nil)
	return nil
}

// RemoteAddr 返回对端地址
func (t *wsTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
