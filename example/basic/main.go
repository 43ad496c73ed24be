package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tokmz/ladder"
	"github.com/tokmz/ladder/pkg/logger"
	"github.com/tokmz/ladder/pkg/metrics"
	"github.com/tokmz/ladder/pkg/rxcol"
)

func main() {
	log := logger.Default()
	defer log.Sync()

	prom := metrics.NewPrometheus("ladder")

	l, err := ladder.NewLadder(
		ladder.WithAllowAnonymous(true),
		ladder.WithAllowAllOrigins(),
		ladder.WithDefaultRoomCapacity(100),
		ladder.WithIdleRoomGrace(5*time.Second),
		ladder.WithMetrics(prom),
		ladder.WithLogger(log),
	)
	if err != nil {
		log.Fatal("create ladder failed", zap.Error(err))
	}

	// 观察房间的创建与回收
	l.RoomsObserver().Additions().Subscribe(func(e rxcol.MapEvent[string, *ladder.Room]) {
		if room, ok := e.Key(); ok {
			log.Info("room opened", zap.String("room", room))
		}
	})
	l.RoomsObserver().Deletions().Subscribe(func(e rxcol.MapEvent[string, *ladder.Room]) {
		if room, ok := e.Key(); ok {
			log.Info("room closed", zap.String("room", room))
		}
	})

	engine := gin.Default()
	engine.GET("/ws", func(ctx *gin.Context) {
		l.HandleConnection(ctx.Writer, ctx.Request)
	})
	engine.GET("/metrics", gin.WrapH(prom.Handler()))

	go func() {
		if err := engine.Run(":8080"); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := l.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
