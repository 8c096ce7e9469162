package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"I2I/controller"
	"I2I/dao/mysql"
	"I2I/dao/store"
	"I2I/logger"
	"I2I/logic"
	"I2I/pkg/generator"
	"I2I/pkg/janitor"
	"I2I/pkg/queue"
	"I2I/pkg/sse"
	"I2I/routes"
	"I2I/setting"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg, err := setting.Load()
	if err != nil {
		fmt.Printf("load config failed, err:%v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(cfg.LogConfig, cfg.Mode); err != nil {
		fmt.Printf("init logger failed, err:%v\n", err)
		os.Exit(1)
	}
	defer zap.L().Sync()

	if err := run(cfg); err != nil {
		zap.L().Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *setting.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 上传目录在启动时创建
	stager, err := logic.NewStager(cfg.UploadDir)
	if err != nil {
		return err
	}
	gen, err := generator.New(ctx, cfg.GeneratorConfig, cfg.OutputDir)
	if err != nil {
		return err
	}

	// SSE hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := sse.NewHub()
	go hub.Run(hubCtx)
	recorders := []logic.Recorder{hub}
	var jobSources []logic.JobSource

	// 以下基础设施都是可选的，未配置就跳过
	if cfg.RedisConfig.Addr != "" {
		rs, err := store.Init(ctx, cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
		if err != nil {
			return err
		}
		defer rs.Close()
		recorders = append(recorders, rs)
		jobSources = append(jobSources, rs)
		zap.L().Info("redis job store enabled", zap.String("addr", cfg.RedisConfig.Addr))
	}
	if cfg.MySQLConfig.DSN != "" {
		db, err := mysql.Init(cfg.MySQLConfig)
		if err != nil {
			return err
		}
		repo := mysql.NewJobRepo(db)
		defer repo.Close()
		if err := repo.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate generation_jobs: %w", err)
		}
		recorders = append(recorders, repo)
		jobSources = append(jobSources, repo)
		zap.L().Info("mysql job history enabled")
	}
	if cfg.AMQPConfig.DSN != "" {
		pub, err := queue.NewEventPublisher(cfg.AMQPConfig.DSN)
		if err != nil {
			return err
		}
		defer pub.Close()
		recorders = append(recorders, pub)
		zap.L().Info("rabbitmq job events enabled", zap.String("exchange", queue.EventExchange))
	}

	if cfg.Retention > 0 {
		j := janitor.New(cfg.Retention, cfg.UploadDir, cfg.OutputDir)
		if err := j.Start(cfg.SweepInterval); err != nil {
			return err
		}
		defer j.Stop()
	}

	svc := logic.NewGenerateService(stager, gen, recorders...)
	var jobs controller.JobReader
	if len(jobSources) > 0 {
		jobs = logic.NewJobLookup(jobSources...)
	}
	r := routes.Setup(cfg.Mode, controller.NewGenerateController(svc), hub, jobs)

	srv := newServer(cfg.Addr, r)
	// 关闭 hub 后 SSE 长连接随之结束，Shutdown 不必等到超时
	srv.RegisterOnShutdown(stopHub)
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server started",
			zap.String("addr", cfg.Addr),
			zap.String("backend", cfg.Backend),
			zap.String("upload_dir", cfg.UploadDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zap.L().Info("Shutdown Server ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	zap.L().Info("Server exiting")
	return nil
}

// readHeaderTimeout 限制慢客户端发送请求头的时间
const readHeaderTimeout = 10 * time.Second

func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
