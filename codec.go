package ladder

import (
	"encoding/json"
	"time"
)

// Codec 消息编解码器
// Decode 把入站原始负载解码为消息体，Encode 把出站消息编码为传输负载
type Codec interface {
	Decode(raw []byte) (any, error)
	Encode(msg *Message) ([]byte, error)
}

// JSONCodec 默认 JSON 编解码器
// 出站信封格式：{"sender": ..., "sentAt": ..., "body": ...}
type JSONCodec struct{}

// envelope 出站消息信封
type envelope struct {
	Sender any       `json:"sender,omitempty"`
	SentAt time.Time `json:"sentAt"`
	Body   any       `json:"body"`
}

// Decode 解码 JSON 消息体，格式错误返回原始解码错误
func (c *JSONCodec) Decode(raw []byte) (any, error) {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// Encode 编码为 JSON 信封
func (c *JSONCodec) Encode(msg *Message) ([]byte, error) {
	return json.Marshal(envelope{
		Sender: msg.Sender(),
		SentAt: msg.SentAt(),
		Body:   msg.Body(),
	})
}
