package bus

import "errors"

var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("bus: invalid config")
	// ErrConnection 连接失败
	ErrConnection = errors.New("bus: failed to connect")
)
