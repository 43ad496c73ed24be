package ladder

// Metrics 监控接口
type Metrics interface {
	// 连接指标
	IncrementConnections()
	DecrementConnections()
	SetConnectionCount(count int)

	// 房间指标
	SetRoomCount(count int)
	SetRoomOccupation(roomID string, count int)

	// 消息指标
	IncrementMessages(roomID string)
	IncrementInvalidMessages()
	IncrementDroppedMessages()

	// 拒绝指标
	IncrementRejections(reason string)
}

// NoopMetrics 空实现（默认）
type NoopMetrics struct{}

func (m *NoopMetrics) IncrementConnections()                       {}
func (m *NoopMetrics) DecrementConnections()                       {}
func (m *NoopMetrics) SetConnectionCount(count int)                {}
func (m *NoopMetrics) SetRoomCount(count int)                      {}
func (m *NoopMetrics) SetRoomOccupation(roomID string, count int)  {}
func (m *NoopMetrics) IncrementMessages(roomID string)             {}
func (m *NoopMetrics) IncrementInvalidMessages()                   {}
func (m *NoopMetrics) IncrementDroppedMessages()                   {}
func (m *NoopMetrics) IncrementRejections(reason string)           {}
