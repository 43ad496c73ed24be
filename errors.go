package ladder

import "errors"

// 错误定义
var (
	// 接入相关错误
	ErrUnauthorized        = errors.New("ladder: connection not authorized")
	ErrAnonymousNotAllowed = errors.New("ladder: anonymous connection is not allowed")
	ErrNoRoomIdentifier    = errors.New("ladder: cannot resolve room identifier")
	ErrTooManyConnections  = errors.New("ladder: too many connections")

	// 房间相关错误
	ErrRoomFull        = errors.New("ladder: room is full")
	ErrInvalidCapacity = errors.New("ladder: capacity must be a positive integer")

	// 连接相关错误
	ErrConnectionClosed = errors.New("ladder: connection closed")
	ErrSendQueueFull    = errors.New("ladder: send queue full")

	// 生命周期相关错误
	ErrLadderClosed = errors.New("ladder: ladder is closed")

	// 配置相关错误
	ErrInvalidConfig = errors.New("ladder: invalid config")
)
