package ladder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tokmz/ladder/pkg/logger"
	"github.com/tokmz/ladder/pkg/rxcol"
)

// Ladder 连接复用器
// 接收 WebSocket 升级请求，完成接入检查与房间路由，
// 按需创建房间并在房间空置超过宽限期后回收。
// 房间表与连接表均为响应式集合，调用方可订阅其变更事件
type Ladder struct {
	config   *Config
	log      logger.Logger
	metrics  Metrics
	bus      Bus
	upgrader *Upgrader

	rooms       *rxcol.Map[string, *Room]
	connections *rxcol.List[*Connection]

	// admitMu 串行化接入与回收，保证容量检查与成员变更的原子性
	admitMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewLadder 创建 Ladder
func NewLadder(opts ...Option) (*Ladder, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Codec == nil {
		config.Codec = &JSONCodec{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoopMetrics{}
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.NewRoom == nil {
		config.NewRoom = func(l *Ladder, roomID string) (*Room, error) {
			return NewRoom(l, roomID), nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	l := &Ladder{
		config:      config,
		log:         config.Logger,
		metrics:     config.Metrics,
		bus:         config.Bus,
		upgrader:    NewUpgrader(config.UpgraderConfig),
		rooms:       rxcol.NewMap[string, *Room](),
		connections: rxcol.NewList[*Connection](),
		ctx:         ctx,
		cancel:      cancel,
	}

	// 房间数与连接数指标跟随集合事件
	l.rooms.Additions().Subscribe(func(e rxcol.MapEvent[string, *Room]) {
		l.metrics.SetRoomCount(len(e.Source))
	})
	l.rooms.Deletions().Subscribe(func(e rxcol.MapEvent[string, *Room]) {
		l.metrics.SetRoomCount(len(e.Source))
	})
	l.connections.Additions().Subscribe(func(e rxcol.ListEvent[*Connection]) {
		l.metrics.SetConnectionCount(len(e.Source))
	})
	l.connections.Deletions().Subscribe(func(e rxcol.ListEvent[*Connection]) {
		l.metrics.SetConnectionCount(len(e.Source))
	})

	return l, nil
}

// HandleConnection 处理一次 WebSocket 升级请求
// 依次执行接入检查、房间解析、连接数上限检查、协议升级与入房。
// 升级前的失败以 HTTP 错误响应拒绝；升级后的失败（房间已满）
// 以带原因的关闭帧拒绝
func (l *Ladder) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if l.closed.Load() {
		l.metrics.IncrementRejections("shutting_down")
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}

	sender, err := l.authenticate(r)
	if err != nil {
		l.metrics.IncrementRejections("unauthorized")
		l.log.Debug("rejecting upgrade request",
			zap.String("remote", r.RemoteAddr),
			zap.Error(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	roomID, err := l.config.ResolveRoom(r)
	if err != nil {
		l.metrics.IncrementRejections("no_room")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 升级前先做一次廉价检查，接入时在 admitMu 内复查
	if l.connections.Size() >= l.config.MaxConnections {
		l.metrics.IncrementRejections("max_connections")
		http.Error(w, ErrTooManyConnections.Error(), http.StatusServiceUnavailable)
		return
	}

	wsConn, err := l.upgrader.Upgrade(w, r)
	if err != nil {
		// Upgrade 失败时已写入 HTTP 错误响应
		l.log.Warn("websocket upgrade failed",
			zap.String("remote", r.RemoteAddr),
			zap.Error(err))
		return
	}

	transport := newWSTransport(wsConn, transportConfig{
		sendQueueSize:  l.config.SendQueueSize,
		writeWait:      l.config.WriteWait,
		pingInterval:   l.config.HeartbeatInterval,
		pongWait:       l.config.HeartbeatTimeout,
		maxMessageSize: l.config.MaxMessageSize,
	})
	conn := NewConnection(sender, transport)

	room, err := l.admit(conn, roomID)
	if err != nil {
		// 协议已升级，只能通过关闭帧告知拒绝原因
		_ = transport.CloseWithReason(websocket.CloseTryAgainLater, err.Error())
		return
	}

	transport.run(l.ctx)

	l.log.Info("connection established",
		zap.String("room", room.Identifier()),
		zap.String("connection", conn.ID()),
		zap.String("remote", conn.RemoteAddr()),
		zap.Bool("anonymous", conn.IsAnonymous()))
}

// authenticate 执行接入检查
// 检查失败或身份为空时，允许匿名则降级为匿名连接，否则拒绝
func (l *Ladder) authenticate(r *http.Request) (any, error) {
	if l.config.Accept == nil {
		return nil, nil
	}

	sender, err := l.config.Accept(r.Context(), r)
	if err != nil || sender == nil {
		if l.config.AllowAnonymous {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return nil, ErrAnonymousNotAllowed
	}
	return sender, nil
}

// admit 在 admitMu 内完成入房：连接数复查、房间查找或创建、房间接入
func (l *Ladder) admit(conn *Connection, roomID string) (*Room, error) {
	l.admitMu.Lock()
	defer l.admitMu.Unlock()

	if l.closed.Load() {
		return nil, ErrLadderClosed
	}

	if l.connections.Size() >= l.config.MaxConnections {
		l.metrics.IncrementRejections("max_connections")
		return nil, ErrTooManyConnections
	}

	room, ok := l.rooms.Get(roomID)
	if !ok {
		var err error
		room, err = l.config.NewRoom(l, roomID)
		if err != nil {
			return nil, fmt.Errorf("create room %q: %w", roomID, err)
		}
		l.rooms.Put(roomID, room)
		l.wg.Add(1)
		go l.watchRoom(room)
		l.log.Debug("room created", zap.String("room", roomID))
	}

	if err := room.Connect(conn); err != nil {
		return nil, err
	}

	l.connections.Add(conn)
	l.metrics.IncrementConnections()
	return room, nil
}

// releaseConnection 连接关闭后从连接表移除，由 Room 回调
func (l *Ladder) releaseConnection(conn *Connection) {
	if l.connections.Remove(conn) {
		l.metrics.DecrementConnections()
	}
}

// watchRoom 监听房间空信号并调度回收
// 每收到一次空信号，就在宽限期后复查房间是否仍然为空
func (l *Ladder) watchRoom(room *Room) {
	defer l.wg.Done()

	for {
		select {
		case _, ok := <-room.EmptySignal():
			if !ok {
				return
			}
			time.AfterFunc(l.config.IdleRoomGrace, func() {
				l.evictIfEmpty(room)
			})

		case <-l.ctx.Done():
			return
		}
	}
}

// evictIfEmpty 宽限期结束后回收仍然为空的房间
// 宽限期内有人进入则什么也不做，等待下一次空信号
func (l *Ladder) evictIfEmpty(room *Room) {
	l.admitMu.Lock()
	defer l.admitMu.Unlock()

	current, ok := l.rooms.Get(room.Identifier())
	if !ok || current != room {
		return
	}
	if room.Occupation() != 0 {
		return
	}

	l.rooms.Remove(room.Identifier())
	room.release()

	l.log.Debug("idle room evicted", zap.String("room", room.Identifier()))
}

// Run 消费跨实例广播总线并把消息投递到本地房间，阻塞直到 Shutdown
// 未配置总线时仅阻塞等待关闭
func (l *Ladder) Run() error {
	if l.bus == nil {
		<-l.ctx.Done()
		return nil
	}

	err := l.bus.Subscribe(l.ctx, func(roomID string, payload []byte) {
		if room, ok := l.rooms.Get(roomID); ok {
			room.deliver(payload)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
// 停止接收新连接，向所有连接发送关闭帧，回收所有房间，
// 并在 ctx 超时前等待后台协程退出
func (l *Ladder) Shutdown(ctx context.Context) error {
	if !l.closed.CompareAndSwap(false, true) {
		return ErrLadderClosed
	}

	l.log.Info("shutting down",
		zap.Int("connections", l.connections.Size()),
		zap.Int("rooms", l.rooms.Len()))

	for _, conn := range l.connections.Items() {
		_ = conn.Transport().CloseWithReason(websocket.CloseGoingAway, "server shutting down")
	}

	l.admitMu.Lock()
	for _, room := range l.rooms.Values() {
		room.release()
	}
	l.rooms.Clear()
	l.admitMu.Unlock()

	l.cancel()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BroadcastAll 向所有房间广播同一条消息
func (l *Ladder) BroadcastAll(msg *Message) error {
	var errs []error
	for _, room := range l.rooms.Values() {
		if err := room.Broadcast(msg); err != nil {
			errs = append(errs, fmt.Errorf("room %q: %w", room.Identifier(), err))
		}
	}
	return errors.Join(errs...)
}

// Room 按标识查找房间
func (l *Ladder) Room(roomID string) (*Room, bool) {
	return l.rooms.Get(roomID)
}

// RoomCount 返回当前房间数
func (l *Ladder) RoomCount() int {
	return l.rooms.Len()
}

// ConnectionCount 返回当前连接数
func (l *Ladder) ConnectionCount() int {
	return l.connections.Size()
}

// AllowAnonymous 返回是否允许匿名连接
func (l *Ladder) AllowAnonymous() bool {
	return l.config.AllowAnonymous
}

// RoomsObserver 返回房间表的只读观察者视图
func (l *Ladder) RoomsObserver() *rxcol.MapObserver[string, *Room] {
	return l.rooms.Observer()
}

// ConnectionsObserver 返回连接表的只读观察者视图
func (l *Ladder) ConnectionsObserver() *rxcol.ListObserver[*Connection] {
	return l.connections.Observer()
}
