package ladder

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/tokmz/ladder/pkg/logger"
	"github.com/tokmz/ladder/pkg/rxcol"
)

// Room 房间
// 持有一个逻辑会话范围内的全部连接，向成员扇出消息。
// 成员关系存放在响应式列表中，任何进出都会发出事件；
// 房间自身不做销毁，空置回收由 Ladder 负责
type Room struct {
	id     string
	ladder *Ladder
	conns  *rxcol.List[*Connection]

	capacity atomic.Int64 // 0 表示不限
	messages atomic.Int64 // 已广播消息数，单调递增

	codec   Codec
	log     logger.Logger
	metrics Metrics

	// connectMu 串行化容量检查与入房
	connectMu sync.Mutex

	// 空信号：每个 空->占用->空 周期触发一次
	emptyMu  sync.Mutex
	armed    bool
	released bool
	emptyCh  chan struct{}

	subs []*rxcol.Subscription
}

// NewRoom 创建房间，容量取 Ladder 配置的默认值
func NewRoom(l *Ladder, roomID string) *Room {
	r := &Room{
		id:      roomID,
		ladder:  l,
		conns:   rxcol.NewList[*Connection](),
		codec:   l.config.Codec,
		log:     l.log,
		metrics: l.metrics,
		armed:   true,
		emptyCh: make(chan struct{}, 1),
	}
	r.capacity.Store(l.config.DefaultRoomCapacity)

	// 通过自身的事件流维护占用指标与空信号
	r.subs = append(r.subs,
		r.conns.Additions().Subscribe(func(e rxcol.ListEvent[*Connection]) {
			r.arm()
			r.metrics.SetRoomOccupation(r.id, len(e.Source))
		}),
		r.conns.Deletions().Subscribe(func(e rxcol.ListEvent[*Connection]) {
			r.metrics.SetRoomOccupation(r.id, len(e.Source))
			if len(e.Source) == 0 {
				r.signalEmpty()
			}
		}),
	)

	// 新房间即为空，立即触发一次空信号；若始终无人进入，宽限期后即被回收
	r.signalEmpty()

	return r
}

// Connect 接入一条连接
// 达到容量上限返回 ErrRoomFull，房间状态不变；
// 成功时把连接加入成员列表（发出 ADDITION 事件）并接管其传输回调
func (r *Room) Connect(conn *Connection) error {
	r.connectMu.Lock()
	defer r.connectMu.Unlock()

	if limit := r.capacity.Load(); limit != 0 && int64(r.Occupation()) >= limit {
		r.metrics.IncrementRejections("room_full")
		return ErrRoomFull
	}

	conn.Transport().OnMessage(func(raw []byte) {
		r.handleInbound(conn, raw)
	})
	conn.Transport().OnClose(func(err error) {
		r.handleTransportClosed(conn, err)
	})

	r.conns.Add(conn)

	r.log.Debug("connection joined room",
		zap.String("room", r.id),
		zap.String("remote", conn.RemoteAddr()),
		zap.Int("occupation", r.Occupation()))

	return nil
}

// handleInbound 处理入站原始负载
// 解码失败的消息直接丢弃，连接保持打开；解码成功则计数并广播
func (r *Room) handleInbound(conn *Connection, raw []byte) {
	conn.Touch()

	body, err := r.codec.Decode(raw)
	if err != nil {
		r.metrics.IncrementInvalidMessages()
		r.log.Debug("dropping malformed payload",
			zap.String("room", r.id),
			zap.String("remote", conn.RemoteAddr()),
			zap.Error(err))
		return
	}

	r.messages.Add(1)
	r.metrics.IncrementMessages(r.id)

	_ = r.Broadcast(NewMessage(conn.Sender(), body))
}

// handleTransportClosed 传输关闭时把连接移出成员列表（发出 DELETION 事件）
func (r *Room) handleTransportClosed(conn *Connection, err error) {
	if r.conns.Remove(conn) {
		if r.ladder != nil {
			r.ladder.releaseConnection(conn)
		}
		r.log.Debug("connection left room",
			zap.String("room", r.id),
			zap.String("remote", conn.RemoteAddr()),
			zap.Int("occupation", r.Occupation()),
			zap.Error(err))
	}
}

// Broadcast 向房间内所有连接广播消息
// 配置了总线时经由总线发布；单个连接发送失败只记录日志，不影响其余连接
func (r *Room) Broadcast(msg *Message) error {
	payload, err := r.codec.Encode(msg)
	if err != nil {
		r.log.Error("encode broadcast message failed",
			zap.String("room", r.id),
			zap.Error(err))
		return err
	}

	if r.ladder != nil && r.ladder.bus != nil {
		if err := r.ladder.bus.Publish(r.ladder.ctx, r.id, payload); err != nil {
			// 总线不可用时降级为本地投递
			r.log.Warn("bus publish failed, delivering locally",
				zap.String("room", r.id),
				zap.Error(err))
			r.deliver(payload)
		}
		return nil
	}

	r.deliver(payload)
	return nil
}

// deliver 按当前成员快照逐个投递
func (r *Room) deliver(payload []byte) {
	for _, conn := range r.conns.Items() {
		if err := conn.Transport().Send(payload); err != nil {
			r.metrics.IncrementDroppedMessages()
			r.log.Warn("send to connection failed",
				zap.String("room", r.id),
				zap.String("remote", conn.RemoteAddr()),
				zap.Error(err))
		}
	}
}

// EmptySignal 空信号通道
// 房间从占用变空（或创建后始终为空）时收到一次信号，仅供 Ladder 调度回收
func (r *Room) EmptySignal() <-chan struct{} {
	return r.emptyCh
}

// signalEmpty 触发一次空信号，重新占用前不会再次触发
func (r *Room) signalEmpty() {
	r.emptyMu.Lock()
	defer r.emptyMu.Unlock()
	if r.released || !r.armed {
		return
	}
	r.armed = false
	select {
	case r.emptyCh <- struct{}{}:
	default:
	}
}

// arm 房间重新被占用后重新武装空信号
func (r *Room) arm() {
	r.emptyMu.Lock()
	r.armed = true
	r.emptyMu.Unlock()
}

// release 释放房间资源，只能由 Ladder 在回收时调用
func (r *Room) release() {
	r.emptyMu.Lock()
	if r.released {
		r.emptyMu.Unlock()
		return
	}
	r.released = true
	close(r.emptyCh)
	r.emptyMu.Unlock()

	for _, sub := range r.subs {
		sub.Unsubscribe()
	}
}

// SetCapacity 设置容量上限
// 只接受正整数；不限容量（0）只能在构造时设定
func (r *Room) SetCapacity(capacity int64) error {
	if capacity <= 0 {
		return ErrInvalidCapacity
	}
	r.capacity.Store(capacity)
	return nil
}

// Capacity 返回容量上限，0 表示不限
func (r *Room) Capacity() int64 {
	return r.capacity.Load()
}

// Occupation 返回当前占用数
func (r *Room) Occupation() int {
	return r.conns.Size()
}

// MessagesCount 返回已广播消息数
func (r *Room) MessagesCount() int64 {
	return r.messages.Load()
}

// Identifier 返回房间标识
func (r *Room) Identifier() string {
	return r.id
}

// Ladder 返回所属的 Ladder
func (r *Room) Ladder() *Ladder {
	return r.ladder
}

// Connections 连接加入事件流
func (r *Room) Connections() *rxcol.Stream[rxcol.ListEvent[*Connection]] {
	return r.conns.Additions()
}

// Disconnections 连接离开事件流
func (r *Room) Disconnections() *rxcol.Stream[rxcol.ListEvent[*Connection]] {
	return r.conns.Deletions()
}

// Observer 返回成员列表的只读观察者视图
func (r *Room) Observer() *rxcol.ListObserver[*Connection] {
	return r.conns.Observer()
}
