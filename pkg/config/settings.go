package config

import "time"

// Settings 复用器服务的文件配置结构
// 与 Unmarshal 配合使用，字段名对应配置文件中的小写键
type Settings struct {
	Server ServerSettings `mapstructure:"server"`
	Ladder LadderSettings `mapstructure:"ladder"`
	Log    LogSettings    `mapstructure:"log"`
	Redis  RedisSettings  `mapstructure:"redis"`
}

// ServerSettings HTTP 服务配置
type ServerSettings struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LadderSettings 复用器调优配置
type LadderSettings struct {
	AllowAnonymous      bool          `mapstructure:"allow_anonymous"`
	MaxConnections      int           `mapstructure:"max_connections"`
	DefaultRoomCapacity int64         `mapstructure:"default_room_capacity"`
	IdleRoomGrace       time.Duration `mapstructure:"idle_room_grace"`
	MaxMessageSize      int64         `mapstructure:"max_message_size"`
	SendQueueSize       int           `mapstructure:"send_queue_size"`
	HeartbeatInterval   time.Duration `mapstructure:"heartbeat_interval"`
	HeartbeatTimeout    time.Duration `mapstructure:"heartbeat_timeout"`
	AllowedOrigins      []string      `mapstructure:"allowed_origins"`
}

// LogSettings 日志配置
type LogSettings struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	Console bool   `mapstructure:"console"`
	File    string `mapstructure:"file"`
}

// RedisSettings 跨实例总线的 Redis 配置
type RedisSettings struct {
	Enabled       bool     `mapstructure:"enabled"`
	Mode          string   `mapstructure:"mode"`
	Addr          string   `mapstructure:"addr"`
	Addrs         []string `mapstructure:"addrs"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	DB            int      `mapstructure:"db"`
	MasterName    string   `mapstructure:"master_name"`
	ChannelPrefix string   `mapstructure:"channel_prefix"`
}

// DefaultSettings 返回默认配置
func DefaultSettings() *Settings {
	return &Settings{
		Server: ServerSettings{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Ladder: LadderSettings{
			AllowAnonymous:      true,
			MaxConnections:      10000,
			DefaultRoomCapacity: 0,
			IdleRoomGrace:       5 * time.Second,
			MaxMessageSize:      512 * 1024,
			SendQueueSize:       256,
			HeartbeatInterval:   30 * time.Second,
			HeartbeatTimeout:    90 * time.Second,
		},
		Log: LogSettings{
			Level:   "info",
			Format:  "json",
			Console: true,
		},
		Redis: RedisSettings{
			Enabled:       false,
			Mode:          "standalone",
			Addr:          "localhost:6379",
			ChannelPrefix: "ladder:room:",
		},
	}
}

// LoadSettings 加载配置文件并反序列化为 Settings
// path 为空时按名称在当前目录与 ./config 下搜索 ladder.yaml
func LoadSettings(path string) (*Settings, error) {
	opts := []Option{
		WithEnvPrefix("LADDER"),
	}
	if path != "" {
		opts = append(opts, WithConfigFile(path))
	} else {
		opts = append(opts,
			WithConfigName("ladder"),
			WithConfigType("yaml"),
			WithConfigPaths(".", "./config"),
		)
	}

	c := New(opts...)
	if err := c.Load(); err != nil {
		return nil, err
	}

	settings := DefaultSettings()
	if err := c.Unmarshal(settings); err != nil {
		return nil, err
	}
	return settings, nil
}
