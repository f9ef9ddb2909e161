package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-screener-go/internal/api/handler"
	"resume-screener-go/internal/api/router"
	"resume-screener-go/internal/config"
	"resume-screener-go/internal/extractor"
	appCoreLogger "resume-screener-go/internal/logger"
	"resume-screener-go/internal/outbox"
	"resume-screener-go/internal/parser"
	"resume-screener-go/internal/processor"
	"resume-screener-go/internal/scoring"
	"resume-screener-go/internal/segmenter"
	"resume-screener-go/internal/storage"
	"resume-screener-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	// .env 不存在时静默忽略，环境变量覆盖在LoadConfig里处理
	_ = godotenv.Load()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		ServiceName:  cfg.Tracing.ServiceName,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		glog.Fatalf("初始化追踪失败: %v", err)
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 流水线组件按配置词表装配
	vocab := parser.Vocabulary{
		Skills:            cfg.Pipeline.SkillVocabulary,
		EducationKeywords: cfg.Pipeline.EducationKeywords,
	}
	comp := processor.Components{
		Extractor: extractor.NewDocumentTextExtractor(),
		Segmenter: segmenter.New(segmenter.Config{
			MinChunkChars:      cfg.Pipeline.MinChunkChars,
			BoundaryGuardChars: cfg.Pipeline.BoundaryGuardChars,
			HeaderMarkers:      cfg.Pipeline.HeaderMarkers,
		}),
		Parser:     parser.NewFieldParser(vocab),
		Scorer:     scoring.NewEngine(cfg.Pipeline.DegreeBonusKeywords),
		Candidates: storageManager.MySQL,
		Files:      storageManager.MinIO,
	}
	if storageManager.Redis != nil {
		comp.Deduper = storageManager.Redis
	}

	pipeline, err := processor.NewPipeline(comp)
	if err != nil {
		glog.Fatalf("初始化流水线失败: %v", err)
	}
	glog.Info("简历处理流水线初始化成功")

	// 启动outbox消息中继（仅当RabbitMQ可用）
	var messageRelay *outbox.MessageRelay
	if storageManager.RabbitMQ != nil {
		relayLogger := log.New(appCoreLogger.Logger, "[MessageRelay] ", log.LstdFlags|log.Lshortfile)
		messageRelay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ, relayLogger).
			WithPollingInterval(time.Duration(cfg.RabbitMQ.RelayIntervalMS) * time.Millisecond).
			WithBatchSize(cfg.RabbitMQ.RelayBatchSize)
		messageRelay.Start()
		glog.Info("消息中继服务已启动")
	}

	screeningHandler := handler.NewScreeningHandler(cfg, storageManager, pipeline)

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	router.RegisterRoutes(h, screeningHandler, cfg.Server.APIKey)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if messageRelay != nil {
		messageRelay.Stop()
		glog.Info("消息中继服务已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("追踪导出器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化zerolog全局日志，并把Hertz的hlog接到同一个实例
func initLogger(cfg *config.Config) {
	appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
}
