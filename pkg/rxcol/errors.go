package rxcol

import "errors"

// 错误定义
var (
	ErrIndexOutOfRange = errors.New("rxcol: index out of range")
)
