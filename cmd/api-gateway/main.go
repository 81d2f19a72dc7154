// Package main 是应用程序入口
//
// @title 酒店房态与预订服务 API
// @version 1.0
// @description 房间、入住和预订的可用性与生命周期管理
// @BasePath /
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/cache"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/config"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/database"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/lock"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/logger"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/tracing"
	"github.com/dumeirei/hotel-inventory-backend/internal/realtime"
	"github.com/dumeirei/hotel-inventory-backend/internal/scheduler"
	hotelService "github.com/dumeirei/hotel-inventory-backend/internal/service/hotel"
)

const version = "1.0.0"

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()
	log.Info("Starting Hotel Inventory Backend",
		zap.String("version", version),
		zap.String("env", cfg.Server.Mode),
	)

	// 初始化数据库连接（按配置自动迁移）
	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// 指标与追踪
	if cfg.Metrics.Enabled {
		metrics.Init(metrics.DefaultNamespace)
	}
	tracer, err := tracing.Init(&tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Server.Mode,
		Exporter:       cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}

	// 初始化 Redis 连接
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.Init(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer cache.Close()
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	}

	booking := &cfg.Business.Booking
	locker, err := newLocker(booking, redisClient)
	if err != nil {
		log.Fatal("Failed to create room locker", zap.Error(err))
	}
	log.Info("Room locker ready", zap.String("backend", booking.LockBackend))

	// 房态推送
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := realtime.NewHub()
	go hub.Run(hubCtx)

	opts := append(hotelService.FromConfig(booking), hotelService.WithStatusPublisher(hub))
	services := hotelService.NewServices(db, locker, opts...)

	// 定时任务
	sched := scheduler.NewScheduler()
	scheduler.RegisterTasks(sched, scheduler.NewTaskHandler(services.Sequences, booking.SequenceRetentionDays), booking)
	sched.Start()

	// 设置 Gin 模式
	switch {
	case cfg.IsRelease():
		gin.SetMode(gin.ReleaseMode)
	case cfg.IsDebug():
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.TestMode)
	}

	engine := gin.New()
	setupRouter(engine, cfg, log, db, redisClient, services, hub)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	sched.Stop()
	stopHub()
	if err := tracer.Shutdown(ctx); err != nil {
		log.Warn("Tracer shutdown failed", zap.Error(err))
	}

	log.Info("Server exited")
}

// newLocker 按配置选择房间锁实现
func newLocker(cfg *config.BookingConfig, redisClient *redis.Client) (lock.Locker, error) {
	switch cfg.LockBackend {
	case "", "local":
		return lock.NewLocalLocker(cfg.LockWaitDuration()), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("lock_backend=redis requires redis.enabled")
		}
		return lock.NewRedisLocker(redisClient, cfg.LockTTLDuration(), cfg.LockWaitDuration(),
			lock.WithPrefix(cache.KeyPrefixRoomLock)), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.LockBackend)
	}
}
