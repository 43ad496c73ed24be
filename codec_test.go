package ladder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestJSONCodecDecode 测试入站解码
func TestJSONCodecDecode(t *testing.T) {
	c := &JSONCodec{}

	body, err := c.Decode([]byte(`{"text":"hi","n":1}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": "hi", "n": float64(1)}, body)

	body, err = c.Decode([]byte(`"plain"`))
	require.NoError(t, err)
	assert.Equal(t, "plain", body)

	_, err = c.Decode([]byte(`{broken`))
	assert.Error(t, err)
}

// TestJSONCodecEncode 测试出站信封
func TestJSONCodecEncode(t *testing.T) {
	c := &JSONCodec{}

	payload, err := c.Encode(NewMessage("alice", map[string]any{"text": "hi"}))
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal(payload, &env))
	assert.Equal(t, "alice", env["sender"])
	assert.Equal(t, map[string]any{"text": "hi"}, env["body"])
	assert.NotEmpty(t, env["sentAt"])
}

// TestJSONCodecAnonymousSender 测试匿名发送者省略 sender 字段
func TestJSONCodecAnonymousSender(t *testing.T) {
	c := &JSONCodec{}

	payload, err := c.Encode(NewMessage(nil, "hi"))
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal(payload, &env))
	_, present := env["sender"]
	assert.False(t, present, "匿名消息不应携带 sender 字段")
}
