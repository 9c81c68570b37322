package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"

	"cv-agent-go/internal/api/handler"
	"cv-agent-go/internal/api/router"
	"cv-agent-go/internal/cache"
	"cv-agent-go/internal/config"
	"cv-agent-go/internal/llm"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/matcher"
	"cv-agent-go/internal/parser"
	"cv-agent-go/internal/processor"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置文件失败")
	}

	logger.Init(cfg.Logger)
	glog.SetLogger(hertzadapter.From(logger.Logger))

	ctx := context.Background()

	cvHandler, err := initializeHandler(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化简历处理器失败")
	}
	logger.Info().Msg("简历处理器初始化成功")

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, cvHandler)

	go func() {
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("服务器关闭失败")
	}

	logger.Info().Msg("优雅退出完成")
}

// initializeHandler 装配分析流水线的全部组件
func initializeHandler(ctx context.Context, cfg *config.Config) (*handler.CVHandler, error) {
	pdfExtractor, err := parser.NewEinoPDFExtractor(ctx)
	if err != nil {
		return nil, err
	}

	// Tika作为PDF解析的兜底方案
	var fallback processor.PDFTextExtractor
	if cfg.Tika.ServerURL != "" {
		fallback = parser.NewTikaPDFExtractor(cfg.Tika.ServerURL,
			parser.WithTikaTimeout(time.Duration(cfg.Tika.Timeout)*time.Second))
	}

	embedder, err := parser.NewOpenAIEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	scorer := matcher.NewSimilarityScorer(embedder)

	analysisCache := buildCache(cfg)

	compOpts := []processor.ComponentOpt{
		processor.WithcompPdfextractor(pdfExtractor),
		processor.WithcompScorer(scorer),
		processor.WithcompCache(analysisCache),
	}
	if fallback != nil {
		compOpts = append(compOpts, processor.WithcompFallbackextractor(fallback))
	}

	analyzer, err := processor.NewCVAnalyzer(compOpts, []processor.SettingOpt{
		processor.WithsetBatchworkers(cfg.Analyzer.BatchWorkers),
		processor.WithsetChunking(cfg.Analyzer.ChunkSize, cfg.Analyzer.ChunkOverlap),
	})
	if err != nil {
		return nil, err
	}

	reports, err := buildReportGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return handler.NewCVHandler(cfg, analyzer, reports), nil
}

// buildCache 选择缓存后端：Redis可用时优先，否则退化为进程内LRU
func buildCache(cfg *config.Config) processor.AnalysisCache {
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis缓存初始化失败，退化为内存缓存")
		} else {
			logger.Info().Str("address", cfg.Redis.Address).Msg("使用Redis分析缓存")
			return redisCache
		}
	}
	return cache.NewMemoryCache(cfg.Analyzer.MemoryCache)
}

// buildReportGenerator 选择补全提供方：优先OpenAI兼容端点，其次Gemini。
// 两者都未配置时报告类接口不可用，但分析与匹配不受影响。
func buildReportGenerator(ctx context.Context, cfg *config.Config) (*llm.ReportGenerator, error) {
	var completer llm.Completer

	if cfg.LLM.APIKey != "" {
		c, err := llm.NewOpenAICompleter(cfg.LLM)
		if err != nil {
			return nil, err
		}
		completer = c
	} else if cfg.Gemini.APIKey != "" {
		c, err := llm.NewGeminiCompleter(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		completer = c
	}

	if completer == nil {
		logger.Warn().Msg("未配置LLM提供方，报告类接口不可用")
		return nil, nil
	}
	return llm.NewReportGenerator(completer)
}
