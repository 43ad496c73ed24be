package ladder

import "time"

// Message 不可变的消息信封（发送者、消息体、接收时间）
// 由编解码器从入站原始数据构造
type Message struct {
	sender any
	body   any
	sentAt time.Time
}

// NewMessage 创建消息
func NewMessage(sender any, body any) *Message {
	return &Message{
		sender: sender,
		body:   body,
		sentAt: time.Now(),
	}
}

// Sender 返回发送者身份，匿名连接为 nil
func (m *Message) Sender() any { return m.sender }

// Body 返回解码后的消息体
func (m *Message) Body() any { return m.body }

// SentAt 返回消息接收时间
func (m *Message) SentAt() time.Time { return m.sentAt }
