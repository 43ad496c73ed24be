package ladder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tokmz/ladder/pkg/logger"
)

// AcceptFunc 异步接入检查，返回发送者身份
// 返回 nil 身份表示匿名
type AcceptFunc func(ctx context.Context, r *http.Request) (any, error)

// RoomResolver 从升级请求中解析目标房间标识
type RoomResolver func(r *http.Request) (string, error)

// RoomFactory 房间构造策略
type RoomFactory func(l *Ladder, roomID string) (*Room, error)

// Config Ladder 配置
type Config struct {
	// 接入配置
	AllowAnonymous bool         // 是否允许匿名连接
	MaxConnections int          // 最大连接数
	Accept         AcceptFunc   // 接入检查函数，AllowAnonymous 为 false 时必填
	ResolveRoom    RoomResolver // 房间标识解析函数
	NewRoom        RoomFactory  // 房间工厂

	// 房间配置
	DefaultRoomCapacity int64         // 房间默认容量，0 表示不限
	IdleRoomGrace       time.Duration // 空房间保留时长，超时后回收

	// 传输配置
	MaxMessageSize    int64         // 最大消息大小
	SendQueueSize     int           // 发送队列大小
	WriteWait         time.Duration // 写超时
	HeartbeatInterval time.Duration // 心跳间隔
	HeartbeatTimeout  time.Duration // 心跳超时

	// Upgrader 配置
	UpgraderConfig UpgraderConfig

	// 编解码
	Codec Codec

	// 跨实例广播总线，可选
	Bus Bus

	// 监控
	Metrics Metrics

	// 日志
	Logger logger.Logger
}

// UpgraderConfig Upgrader 配置
type UpgraderConfig struct {
	ReadBufferSize    int                      // 读缓冲区大小
	WriteBufferSize   int                      // 写缓冲区大小
	CheckOrigin       func(*http.Request) bool // Origin 检查函数
	EnableCompression bool                     // 是否启用压缩
	AllowedOrigins    []string                 // 允许的 Origin 白名单
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		AllowAnonymous:      false,
		MaxConnections:      10000,
		ResolveRoom:         defaultRoomResolver,
		DefaultRoomCapacity: 0,
		IdleRoomGrace:       5 * time.Second,
		MaxMessageSize:      512 * 1024, // 512KB
		SendQueueSize:       256,
		WriteWait:           10 * time.Second,
		HeartbeatInterval:   30 * time.Second,
		HeartbeatTimeout:    90 * time.Second,
		UpgraderConfig: UpgraderConfig{
			ReadBufferSize:    1024,
			WriteBufferSize:   1024,
			CheckOrigin:       nil, // 将在 NewUpgrader 中设置
			EnableCompression: false,
			AllowedOrigins:    nil, // 默认为 nil，使用同源检查
		},
	}
}

// defaultRoomResolver 默认从 URL 查询参数 room 解析房间标识
func defaultRoomResolver(r *http.Request) (string, error) {
	id := r.URL.Query().Get("room")
	if id == "" {
		return "", ErrNoRoomIdentifier
	}
	return id, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if !c.AllowAnonymous && c.Accept == nil {
		return fmt.Errorf("%w: Accept is required when anonymous connections are not allowed", ErrInvalidConfig)
	}
	if c.ResolveRoom == nil {
		return fmt.Errorf("%w: ResolveRoom must not be nil", ErrInvalidConfig)
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("%w: MaxConnections must be positive, got %d", ErrInvalidConfig, c.MaxConnections)
	}
	if c.DefaultRoomCapacity < 0 {
		return fmt.Errorf("%w: DefaultRoomCapacity must not be negative, got %d", ErrInvalidConfig, c.DefaultRoomCapacity)
	}
	if c.IdleRoomGrace <= 0 {
		return fmt.Errorf("%w: IdleRoomGrace must be positive, got %v", ErrInvalidConfig, c.IdleRoomGrace)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: MaxMessageSize must be positive, got %d", ErrInvalidConfig, c.MaxMessageSize)
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("%w: SendQueueSize must be positive, got %d", ErrInvalidConfig, c.SendQueueSize)
	}
	if c.WriteWait <= 0 {
		return fmt.Errorf("%w: WriteWait must be positive, got %v", ErrInvalidConfig, c.WriteWait)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: HeartbeatInterval must be positive, got %v", ErrInvalidConfig, c.HeartbeatInterval)
	}
	if c.HeartbeatTimeout <= c.HeartbeatInterval {
		return fmt.Errorf("%w: HeartbeatTimeout (%v) must be greater than HeartbeatInterval (%v)",
			ErrInvalidConfig, c.HeartbeatTimeout, c.HeartbeatInterval)
	}
	if c.UpgraderConfig.ReadBufferSize <= 0 {
		return fmt.Errorf("%w: UpgraderConfig.ReadBufferSize must be positive, got %d", ErrInvalidConfig, c.UpgraderConfig.ReadBufferSize)
	}
	if c.UpgraderConfig.WriteBufferSize <= 0 {
		return fmt.Errorf("%w: UpgraderConfig.WriteBufferSize must be positive, got %d", ErrInvalidConfig, c.UpgraderConfig.WriteBufferSize)
	}
	return nil
}

// Option 配置选项
type Option func(*Config)

// WithAllowAnonymous 设置是否允许匿名连接
func WithAllowAnonymous(allow bool) Option {
	return func(c *Config) {
		c.AllowAnonymous = allow
	}
}

// WithMaxConnections 设置最大连接数
func WithMaxConnections(max int) Option {
	return func(c *Config) {
		c.MaxConnections = max
	}
}

// WithAcceptFunc 设置接入检查函数
func WithAcceptFunc(fn AcceptFunc) Option {
	return func(c *Config) {
		c.Accept = fn
	}
}

// WithRoomResolver 设置房间标识解析函数
func WithRoomResolver(fn RoomResolver) Option {
	return func(c *Config) {
		c.ResolveRoom = fn
	}
}

// WithRoomFactory 设置房间工厂
func WithRoomFactory(fn RoomFactory) Option {
	return func(c *Config) {
		c.NewRoom = fn
	}
}

// WithDefaultRoomCapacity 设置房间默认容量，0 表示不限
func WithDefaultRoomCapacity(capacity int64) Option {
	return func(c *Config) {
		c.DefaultRoomCapacity = capacity
	}
}

// WithIdleRoomGrace 设置空房间保留时长
func WithIdleRoomGrace(grace time.Duration) Option {
	return func(c *Config) {
		c.IdleRoomGrace = grace
	}
}

// WithMessageSizeLimit 设置消息大小限制
func WithMessageSizeLimit(size int64) Option {
	return func(c *Config) {
		c.MaxMessageSize = size
	}
}

// WithSendQueueSize 设置发送队列大小
func WithSendQueueSize(size int) Option {
	return func(c *Config) {
		c.SendQueueSize = size
	}
}

// WithHeartbeat 设置心跳间隔与超时
func WithHeartbeat(interval, timeout time.Duration) Option {
	return func(c *Config) {
		c.HeartbeatInterval = interval
		c.HeartbeatTimeout = timeout
	}
}

// WithCodec 设置消息编解码器
func WithCodec(codec Codec) Option {
	return func(c *Config) {
		c.Codec = codec
	}
}

// WithBus 设置跨实例广播总线
func WithBus(bus Bus) Option {
	return func(c *Config) {
		c.Bus = bus
	}
}

// WithMetrics 设置监控
func WithMetrics(metrics Metrics) Option {
	return func(c *Config) {
		c.Metrics = metrics
	}
}

// WithLogger 设置日志
func WithLogger(log logger.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithCheckOrigin 设置 Origin 检查函数
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(c *Config) {
		c.UpgraderConfig.CheckOrigin = fn
	}
}

// WithCheckOriginWhitelist 设置 Origin 白名单
// 示例：WithCheckOriginWhitelist([]string{"https://example.com", "https://app.example.com"})
func WithCheckOriginWhitelist(allowedOrigins []string) Option {
	return func(c *Config) {
		c.UpgraderConfig.AllowedOrigins = allowedOrigins
		c.UpgraderConfig.CheckOrigin = createWhitelistChecker(allowedOrigins)
	}
}

// WithAllowAllOrigins 允许所有来源（仅用于开发环境，生产环境禁用）
func WithAllowAllOrigins() Option {
	return func(c *Config) {
		c.UpgraderConfig.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

// WithEnableCompression 启用压缩
func WithEnableCompression(enable bool) Option {
	return func(c *Config) {
		c.UpgraderConfig.EnableCompression = enable
	}
}

// defaultCheckOrigin 默认 Origin 检查（同源策略）
// 生产环境建议使用 WithCheckOriginWhitelist 设置白名单
func defaultCheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// 严格模式：拒绝空 Origin
		// 如需允许非浏览器客户端，使用 WithAllowAllOrigins()
		return false
	}
	// 同源检查
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// createWhitelistChecker 创建白名单检查器
func createWhitelistChecker(allowedOrigins []string) func(*http.Request) bool {
	whitelist := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		whitelist[origin] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// 白名单模式下拒绝空 Origin
			return false
		}
		return whitelist[origin]
	}
}

// Upgrader WebSocket 升级器
type Upgrader struct {
	upgrader websocket.Upgrader
}

// NewUpgrader 创建升级器
func NewUpgrader(config UpgraderConfig) *Upgrader {
	// 如果没有设置 CheckOrigin，使用白名单或默认的同源检查
	checkOrigin := config.CheckOrigin
	if checkOrigin == nil {
		if len(config.AllowedOrigins) > 0 {
			checkOrigin = createWhitelistChecker(config.AllowedOrigins)
		} else {
			checkOrigin = defaultCheckOrigin
		}
	}

	return &Upgrader{
		upgrader: websocket.Upgrader{
			ReadBufferSize:    config.ReadBufferSize,
			WriteBufferSize:   config.WriteBufferSize,
			CheckOrigin:       checkOrigin,
			EnableCompression: config.EnableCompression,
		},
	}
}

// Upgrade 升级 HTTP 连接为 WebSocket
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return u.upgrader.Upgrade(w, r, nil)
}
