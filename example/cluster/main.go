// 多实例部署示例：配置文件 + Redis 总线 + Prometheus 指标。
// 启动多个进程并共用同一个 Redis，即可让不同实例的同名房间互通。
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tokmz/ladder"
	"github.com/tokmz/ladder/pkg/bus"
	"github.com/tokmz/ladder/pkg/config"
	"github.com/tokmz/ladder/pkg/logger"
	"github.com/tokmz/ladder/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	settings, err := config.LoadSettings(*configPath)
	if err != nil {
		// 没有配置文件时按默认值运行
		if !errors.Is(err, config.ErrConfigNotFound) {
			panic(err)
		}
		settings = config.DefaultSettings()
	}

	log := buildLogger(settings.Log)
	defer log.Sync()

	prom := metrics.NewPrometheus("ladder")

	opts := []ladder.Option{
		ladder.WithAllowAnonymous(settings.Ladder.AllowAnonymous),
		ladder.WithMaxConnections(settings.Ladder.MaxConnections),
		ladder.WithDefaultRoomCapacity(settings.Ladder.DefaultRoomCapacity),
		ladder.WithIdleRoomGrace(settings.Ladder.IdleRoomGrace),
		ladder.WithMessageSizeLimit(settings.Ladder.MaxMessageSize),
		ladder.WithSendQueueSize(settings.Ladder.SendQueueSize),
		ladder.WithHeartbeat(settings.Ladder.HeartbeatInterval, settings.Ladder.HeartbeatTimeout),
		ladder.WithMetrics(prom),
		ladder.WithLogger(log),
	}
	if len(settings.Ladder.AllowedOrigins) > 0 {
		opts = append(opts, ladder.WithCheckOriginWhitelist(settings.Ladder.AllowedOrigins))
	} else {
		opts = append(opts, ladder.WithAllowAllOrigins())
	}

	if settings.Redis.Enabled {
		redisBus, err := bus.NewRedis(&bus.Config{
			Mode:          bus.RedisMode(settings.Redis.Mode),
			Addr:          settings.Redis.Addr,
			Addrs:         settings.Redis.Addrs,
			Username:      settings.Redis.Username,
			Password:      settings.Redis.Password,
			DB:            settings.Redis.DB,
			MasterName:    settings.Redis.MasterName,
			ChannelPrefix: settings.Redis.ChannelPrefix,
		})
		if err != nil {
			log.Fatal("connect redis bus failed", zap.Error(err))
		}
		defer redisBus.Close()
		opts = append(opts, ladder.WithBus(redisBus))
	}

	l, err := ladder.NewLadder(opts...)
	if err != nil {
		log.Fatal("create ladder failed", zap.Error(err))
	}

	// 消费总线广播
	go func() {
		if err := l.Run(); err != nil {
			log.Error("bus consumer stopped", zap.Error(err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.GET("/ws", func(ctx *gin.Context) {
		l.HandleConnection(ctx.Writer, ctx.Request)
	})
	engine.GET("/metrics", gin.WrapH(prom.Handler()))

	server := &http.Server{
		Addr:    settings.Server.Addr,
		Handler: engine,
	}
	go func() {
		log.Info("listening", zap.String("addr", settings.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), settings.Server.ShutdownTimeout)
	defer cancel()

	if err := l.Shutdown(ctx); err != nil {
		log.Error("ladder shutdown failed", zap.Error(err))
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}

// buildLogger 按配置构建日志器
func buildLogger(settings config.LogSettings) logger.Logger {
	level := logger.InfoLevel
	switch settings.Level {
	case "debug":
		level = logger.DebugLevel
	case "warn":
		level = logger.WarnLevel
	case "error":
		level = logger.ErrorLevel
	}

	format := logger.JSONFormat
	if settings.Format == "console" {
		format = logger.ConsoleFormat
	}

	opts := []logger.Option{
		logger.WithLevel(level),
		logger.WithFormat(format),
	}
	if settings.Console {
		opts = append(opts, logger.WithConsoleOutput())
	}
	if settings.File != "" {
		opts = append(opts, logger.WithRotateOutput(&logger.RotateConfig{
			Filename: settings.File,
		}))
	}

	log, err := logger.NewWithOptions(opts...)
	if err != nil {
		return logger.Default()
	}
	return log
}
