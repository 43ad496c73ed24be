package ladder

import "context"

// Bus 跨实例广播总线
// 配置了总线后，房间广播经由总线发布，再由订阅回调投递到各实例的本地房间，
// 使多个 Ladder 实例可以服务同一批逻辑房间
type Bus interface {
	// Publish 发布一条房间广播
	Publish(ctx context.Context, roomID string, payload []byte) error
	// Subscribe 订阅广播并阻塞消费，ctx 取消后返回
	Subscribe(ctx context.Context, handler func(roomID string, payload []byte)) error
}
