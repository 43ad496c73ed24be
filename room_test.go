package ladder

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokmz/ladder/pkg/rxcol"
)

// fakeTransport 测试用传输通道，记录出站负载并可手工注入入站事件
type fakeTransport struct {
	mu          sync.Mutex
	sent        [][]byte
	closed      bool
	closeCode   int
	closeReason string
	failSend    bool

	onMessage func([]byte)
	onClose   func(error)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (t *fakeTransport) Send(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrConnectionClosed
	}
	if t.failSend {
		return ErrSendQueueFull
	}
	t.sent = append(t.sent, payload)
	return nil
}

func (t *fakeTransport) Close() error {
	return t.CloseWithReason(0, "")
}

func (t *fakeTransport) CloseWithReason(code int, reason string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrConnectionClosed
	}
	t.closed = true
	t.closeCode = code
	t.closeReason = reason
	onClose := t.onClose
	t.mu.Unlock()

	if onClose != nil {
		onClose(nil)
	}
	return nil
}

func (t *fakeTransport) OnMessage(handler func(payload []byte)) { t.onMessage = handler }
func (t *fakeTransport) OnClose(handler func(err error))       { t.onClose = handler }
func (t *fakeTransport) RemoteAddr() string                    { return "fake:0" }

// receive 模拟入站消息
func (t *fakeTransport) receive(payload []byte) {
	if t.onMessage != nil {
		t.onMessage(payload)
	}
}

// disconnect 模拟对端断开
func (t *fakeTransport) disconnect(err error) {
	t.mu.Lock()
	t.closed = true
	onClose := t.onClose
	t.mu.Unlock()

	if onClose != nil {
		onClose(err)
	}
}

// sentCount 已发送负载数
func (t *fakeTransport) sentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

// lastSent 最后一条已发送负载
func (t *fakeTransport) lastSent() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.sent) == 0 {
		return nil
	}
	return t.sent[len(t.sent)-1]
}

// newTestLadder 创建测试用 Ladder
func newTestLadder(t *testing.T, opts ...Option) *Ladder {
	t.Helper()
	opts = append([]Option{
		WithAllowAnonymous(true),
		WithAllowAllOrigins(),
		WithIdleRoomGrace(50 * time.Millisecond),
	}, opts...)
	l, err := NewLadder(opts...)
	require.NoError(t, err)
	return l
}

// join 创建连接并接入房间
func join(t *testing.T, room *Room, sender any) (*Connection, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	conn := NewConnection(sender, ft)
	require.NoError(t, room.Connect(conn))
	return conn, ft
}

// decodeEnvelope 解析出站 JSON 信封
func decodeEnvelope(t *testing.T, payload []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(payload, &out))
	return out
}

// TestRoomConnect 测试接入与占用计数
func TestRoomConnect(t *testing.T) {
	l := newTestLadder(t)
	room := NewRoom(l, "lobby")

	conn, _ := join(t, room, "alice")

	assert.Equal(t, 1, room.Occupation())
	assert.Equal(t, "lobby", room.Identifier())
	assert.Same(t, l, room.Ladder())
	assert.Equal(t, "alice", conn.Sender())
	assert.False(t, conn.IsAnonymous())
}

// TestRoomCapacity 测试容量上限
func TestRoomCapacity(t *testing.T) {
	l := newTestLadder(t, WithDefaultRoomCapacity(2))
	room := NewRoom(l, "lobby")

	join(t, room, "a")
	join(t, room, "b")

	ft := newFakeTransport()
	err := room.Connect(NewConnection("c", ft))
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 2, room.Occupation(), "拒绝后房间状态应保持不变")
}

// TestRoomCapacityFreesOnLeave 测试离开后容量释放
func TestRoomCapacityFreesOnLeave(t *testing.T) {
	l := newTestLadder(t, WithDefaultRoomCapacity(1))
	room := NewRoom(l, "lobby")

	_, ft := join(t, room, "a")
	ft.disconnect(nil)
	assert.Equal(t, 0, room.Occupation())

	join(t, room, "b")
	assert.Equal(t, 1, room.Occupation())
}

// TestRoomSetCapacity 测试容量调整
func TestRoomSetCapacity(t *testing.T) {
	l := newTestLadder(t)
	room := NewRoom(l, "lobby")

	assert.ErrorIs(t, room.SetCapacity(0), ErrInvalidCapacity)
	assert.ErrorIs(t, room.SetCapacity(-1), ErrInvalidCapacity)

	require.NoError(t, room.SetCapacity(5))
	assert.Equal(t, int64(5), room.Capacity())
}

// TestRoomBroadcast 测试广播扇出与信封格式
func TestRoomBroadcast(t *testing.T) {
	l := newTestLadder(t)
	room := NewRoom(l, "lobby")

	_, ft1 := join(t, room, "alice")
	_, ft2 := join(t, room, "bob")

	require.NoError(t, room.Broadcast(NewMessage("alice", "hello")))

	require.Equal(t, 1, ft1.sentCount())
	require.Equal(t, 1, ft2.sentCount())

	env := decodeEnvelope(t, ft1.lastSent())
	assert.Equal(t, "alice", env["sender"])
	assert.Equal(t, "hello", env["body"])
	assert.NotEmpty(t, env["sentAt"])
}

// TestRoomBroadcastSendFailure 测试单个连接发送失败不影响其余连接
func TestRoomBroadcastSendFailure(t *testing.T) {
	l := newTestLadder(t)
	room := NewRoom(l, "lobby")

	_, bad := join(t, room, "a")
	bad.failSend = true
	_, good := join(t, room, "b")

	require.NoError(t, room.Broadcast(NewMessage(nil, "hi")))

	assert.Equal(t, 0, bad.sentCount())
	assert.Equal(t, 1, good.sentCount())
	assert.Equal(t, 2, room.Occupation(), "发送失败不应把连接移出房间")
}

// TestRoomInboundFanout 测试入站消息解码后广播给所有成员
func TestRoomInboundFanout(t *testing.T) {
	l := newTestLadder(t)
	room := NewRoom(l, "lobby")

	_, ft1 := join(t, room, "alice")
	_, ft2 := join(t, room, "bob")

	ft1.receive([]byte(`{"text":"hi"}`))

	require.Equal(t, 1, ft1.sentCount(), "发送者自己也应收到广播")
	require.Equal(t, 1, ft2.sentCount())
	assert.Equal(t, int64(1), room.MessagesCount())

	env := decodeEnvelope(t, ft2.lastSent())
	assert.Equal(t, "alice", env["sender"])
	assert.Equal(t, map[string]any{"text": "hi"}, env["body"])
}

// TestRoomInvalidMessageDropped 测试无法解码的入站负载被丢弃
func TestRoomInvalidMessageDropped(t *testing.T) {
	l := newTestLadder(t)
	room := NewRoom(l, "lobby")

	_, ft1 := join(t, room, "alice")
	_, ft2 := join(t, room, "bob")

	ft1.receive([]byte(`{not json`))

	assert.Equal(t, 0, ft1.sentCount())
	assert.Equal(t, 0, ft2.sentCount())
	assert.Equal(t, int64(0), room.MessagesCount())
	assert.Equal(t, 2, room.Occupation(), "丢弃消息不应断开连接")
}

// TestRoomMembershipEvents 测试成员进出事件
func TestRoomMembershipEvents(t *testing.T) {
	l := newTestLadder(t)
	room := NewRoom(l, "lobby")

	var joins, leaves int
	room.Connections().Subscribe(func(e rxcol.ListEvent[*Connection]) {
		joins++
	})
	room.Disconnections().Subscribe(func(e rxcol.ListEvent[*Connection]) {
		leaves++
	})

	_, ft := join(t, room, "a")
	ft.disconnect(nil)

	assert.Equal(t, 1, joins)
	assert.Equal(t, 1, leaves)
	assert.Equal(t, 0, room.Observer().Size())
}

// TestRoomEmptySignal 测试空信号的触发时机
func TestRoomEmptySignal(t *testing.T) {
	l := newTestLadder(t)
	room := NewRoom(l, "lobby")

	// 新房间创建即为空，应已触发一次
	select {
	case <-room.EmptySignal():
	default:
		t.Fatal("新房间应立即触发空信号")
	}

	// 占用期间不触发
	_, ft := join(t, room, "a")
	select {
	case <-room.EmptySignal():
		t.Fatal("占用期间不应触发空信号")
	default:
	}

	// 变空后再次触发
	ft.disconnect(nil)
	select {
	case <-room.EmptySignal():
	default:
		t.Fatal("房间变空应触发空信号")
	}
}

// TestRoomEmptySignalOncePerCycle 测试一个空置周期只触发一次
func TestRoomEmptySignalOncePerCycle(t *testing.T) {
	l := newTestLadder(t)
	room := NewRoom(l, "lobby")

	<-room.EmptySignal()

	_, ft1 := join(t, room, "a")
	_, ft2 := join(t, room, "b")
	ft1.disconnect(nil)
	ft2.disconnect(nil)

	select {
	case <-room.EmptySignal():
	default:
		t.Fatal("房间变空应触发空信号")
	}
	select {
	case <-room.EmptySignal():
		t.Fatal("同一空置周期不应重复触发")
	default:
	}
}

// TestRoomLifecycleScenario 测试满员-离场-空信号的完整序列
func TestRoomLifecycleScenario(t *testing.T) {
	l := newTestLadder(t)
	room := NewRoom(l, "lobby")
	require.NoError(t, room.SetCapacity(2))

	// 排掉创建时的空信号
	<-room.EmptySignal()

	_, ftA := join(t, room, "A")
	assert.Equal(t, 1, room.Occupation())
	_, ftB := join(t, room, "B")
	assert.Equal(t, 2, room.Occupation())

	err := room.Connect(NewConnection("C", newFakeTransport()))
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 2, room.Occupation())

	ftA.disconnect(nil)
	assert.Equal(t, 1, room.Occupation())
	select {
	case <-room.EmptySignal():
		t.Fatal("仍有成员时不应触发空信号")
	default:
	}

	ftB.disconnect(nil)
	assert.Equal(t, 0, room.Occupation())
	select {
	case <-room.EmptySignal():
	default:
		t.Fatal("最后一个成员离开应触发空信号")
	}
	select {
	case <-room.EmptySignal():
		t.Fatal("空信号不应重复触发")
	default:
	}
}

// TestConnectionEqual 测试连接等价性由传输通道决定
func TestConnectionEqual(t *testing.T) {
	ft := newFakeTransport()
	a := NewConnection("alice", ft)
	b := NewConnection("alice", ft)
	c := NewConnection("alice", newFakeTransport())

	assert.True(t, a.Equal(b), "同一传输通道的连接应等价")
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	assert.NotEqual(t, a.ID(), b.ID(), "连接 ID 应唯一")
}
